package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vilshansen/datavault-go/config"
	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/fault"
	"github.com/vilshansen/datavault-go/vault"
)

// parameters is the parsed command line.
type parameters struct {
	configPath string
	vaultDir   string
	command    string
	args       []string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(constants.HelpText)
		os.Exit(int(fault.InvalidInput))
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal error: %v\n", r)
			os.Exit(int(fault.MemoryErr))
		}
	}()

	params, err := getParameters(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error reading parameters: %v\n", err)
		}
		fmt.Print(constants.HelpText)
		os.Exit(int(fault.InvalidInput))
	}

	cfg, err := config.LoadConfig(params.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(int(fault.FileErr))
	}
	if params.vaultDir != "" {
		cfg.VaultDir = params.vaultDir
	}

	level, _ := cfg.Level()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Debug().
		Str("config", params.configPath).
		Str("vault", cfg.VaultDir).
		Str("command", params.command).
		Msg("datavault starting")

	v := vault.New(cfg.VaultDir, vault.Options{
		Iterations: cfg.KDFIterations,
		LockMemory: cfg.LockMemory,
	})
	lines := bufio.NewReader(os.Stdin)
	a := &app{
		vault:    v,
		in:       lines,
		out:      os.Stdout,
		password: terminalPassword(os.Stdin, lines, os.Stderr),
	}

	err = a.run(params.command, params.args)
	v.Kill()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", params.command, err)
	}
	os.Exit(int(fault.StatusOf(err)))
}

func getParameters(argv []string, output io.Writer) (parameters, error) {
	fs := flag.NewFlagSet("datavault", flag.ContinueOnError)
	fs.SetOutput(output)

	// Define flags
	configFlag := fs.String("config", constants.DefaultConfig, "Configuration file")
	dirFlag := fs.String("dir", "", "Vault directory (overrides the configuration)")

	// Parse flags
	if err := fs.Parse(argv); err != nil {
		return parameters{}, err
	}

	if fs.NArg() == 0 {
		return parameters{}, fmt.Errorf("a command must be specified")
	}

	return parameters{
		configPath: *configFlag,
		vaultDir:   *dirFlag,
		command:    fs.Arg(0),
		args:       fs.Args()[1:],
	}, nil
}
