package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
	"github.com/vilshansen/datavault-go/vault"
)

var (
	errUsage          = fault.InvalidError("wrong number of arguments")
	errUnknownCommand = fault.InvalidError("unknown command")
	errMismatch       = fault.InvalidError("passwords do not match")
)

// passwordReader asks for a password. The caller wipes the result.
type passwordReader func(prompt string) ([]byte, error)

// terminalPassword reads without echo when in is a terminal. Otherwise
// the password is the next line of lines, the reader shared with the
// shell.
func terminalPassword(in *os.File, lines *bufio.Reader, prompts io.Writer) passwordReader {
	return func(prompt string) ([]byte, error) {
		fmt.Fprint(prompts, prompt)
		defer fmt.Fprintln(prompts)

		if term.IsTerminal(int(in.Fd())) {
			pw, err := term.ReadPassword(int(in.Fd()))
			if err != nil {
				return nil, fmt.Errorf("error reading password: %w", err)
			}
			return pw, nil
		}
		return readLine(lines)
	}
}

// readLine returns the next line without its line ending. A last line
// without one is returned as is; io.EOF is returned only when nothing is
// left.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// app binds the command implementations to one session.
type app struct {
	vault    *vault.Vault
	in       *bufio.Reader
	out      io.Writer
	password passwordReader
}

// run executes one command line command. Entry commands log in first
// and log out afterwards, so the indices are saved after every command.
func (a *app) run(command string, args []string) error {
	switch command {
	case "init":
		if len(args) != 0 {
			return errUsage
		}
		return a.createAccount(true)
	case "shell":
		if len(args) != 0 {
			return errUsage
		}
		return a.shell()
	}

	if !isEntryCommand(command) {
		return errUnknownCommand
	}
	if err := a.login(); err != nil {
		return err
	}
	err := a.exec(command, args)
	if lerr := a.vault.Logout(); err == nil {
		err = lerr
	}
	return err
}

func isEntryCommand(command string) bool {
	switch command {
	case "create", "set", "get", "del", "list", "log":
		return true
	}
	return false
}

func (a *app) createAccount(confirm bool) error {
	if err := os.MkdirAll(a.vault.Dir(), 0700); err != nil {
		return fmt.Errorf("cannot create vault directory: %w", err)
	}

	pw, err := a.password("New password: ")
	if err != nil {
		return err
	}
	defer cryptoutils.ZeroBytes(pw)

	if confirm {
		again, err := a.password("Repeat password: ")
		if err != nil {
			return err
		}
		defer cryptoutils.ZeroBytes(again)
		if !bytes.Equal(pw, again) {
			return errMismatch
		}
	}
	return a.vault.CreateAccount(pw)
}

func (a *app) login() error {
	pw, err := a.password("Password: ")
	if err != nil {
		return err
	}
	defer cryptoutils.ZeroBytes(pw)
	return a.vault.Login(pw)
}

// exec runs an entry command on a logged-in session.
func (a *app) exec(command string, args []string) error {
	switch command {
	case "create":
		if len(args) != 1 {
			return errUsage
		}
		return a.vault.CreateEntry(args[0])

	case "set":
		if len(args) < 3 {
			return errUsage
		}
		return a.vault.SetEntryData(args[0], args[1], strings.Join(args[2:], " "))

	case "get":
		if len(args) != 2 {
			return errUsage
		}
		value, err := a.vault.GetEntryData(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, value)
		return nil

	case "del":
		if len(args) != 2 {
			return errUsage
		}
		return a.vault.DeleteEntryData(args[0], args[1])

	case "list":
		if len(args) != 0 {
			return errUsage
		}
		return a.list()

	case "log":
		if len(args) != 0 {
			return errUsage
		}
		return a.vault.Dump(a.out)
	}
	return errUnknownCommand
}

func (a *app) list() error {
	entries, err := a.vault.Entries()
	if err != nil {
		return err
	}
	categories, err := a.vault.Categories()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "entries: %s\n", strings.Join(entries, ", "))
	fmt.Fprintf(a.out, "categories: %s\n", strings.Join(categories, ", "))
	return nil
}

// shell reads commands line by line until quit or end of input and
// prints the status of every command. A live session is saved on exit.
func (a *app) shell() error {
	var readErr error
	for {
		fmt.Fprint(a.out, "> ")
		line, err := readLine(a.in)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			fmt.Fprintln(a.out)
			break
		}

		fields := strings.Fields(string(line))
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" {
			break
		}
		err = a.shellCommand(fields[0], fields[1:])
		if err != nil {
			log.Debug().Err(err).Str("command", fields[0]).Msg("command failed")
		}
		fmt.Fprintln(a.out, fault.StatusOf(err))
	}

	if a.vault.LoggedIn() {
		if err := a.vault.Logout(); err != nil {
			return err
		}
	}
	return readErr
}

func (a *app) shellCommand(command string, args []string) error {
	switch command {
	case "createAccount":
		if len(args) != 0 {
			return errUsage
		}
		return a.createAccount(false)
	case "login":
		if len(args) != 0 {
			return errUsage
		}
		return a.login()
	case "logout":
		return a.vault.Logout()
	case "help":
		fmt.Fprintln(a.out, "createAccount, login, logout, create, set, get, del, list, log, quit")
		return nil
	}
	if !isEntryCommand(command) {
		return errUnknownCommand
	}
	return a.exec(command, args)
}
