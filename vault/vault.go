// Package vault is the session object of a datavault directory and the
// operations offered on top of it: account creation, login and logout,
// and the entry and category operations of a logged-in session.
//
// A Vault is not safe for concurrent use. One process is expected to own
// a vault directory at a time.
package vault

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/vilshansen/datavault-go/blockstore"
	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
	"github.com/vilshansen/datavault-go/fileutils"
	"github.com/vilshansen/datavault-go/headers"
	"github.com/vilshansen/datavault-go/index"
	"github.com/vilshansen/datavault-go/persistence"
)

// Options tune a session. The zero value gives the legacy KDF cost and
// no memory locking.
type Options struct {
	// Iterations is the PBKDF2 round count. It must match the value the
	// account was created with.
	Iterations int

	// LockMemory keeps the data key out of swap while logged in.
	LockMemory bool
}

// Vault is one session on a vault directory.
type Vault struct {
	dir  string
	opts Options

	loggedIn bool
	dataKey  []byte
	header   headers.IVHeader
	data     *cryptoutils.Codec
	codecs   persistence.Codecs
	store    *blockstore.Store
	idx      persistence.Indices

	maxEntryID uint32
	maxCatID   uint8
}

// New returns a logged-out session on dir.
func New(dir string, opts Options) *Vault {
	if opts.Iterations <= 0 {
		opts.Iterations = constants.KEKIterations
	}
	return &Vault{dir: dir, opts: opts}
}

// Dir is the vault directory of the session.
func (v *Vault) Dir() string { return v.dir }

// LoggedIn reports whether the session holds key material.
func (v *Vault) LoggedIn() bool { return v.loggedIn }

func (v *Vault) path(name string) string {
	return filepath.Join(v.dir, name)
}

// CreateAccount writes a fresh, empty vault protected by password into
// the vault directory, replacing any vault stored there. A live session
// is discarded first without saving. The session stays logged out.
func (v *Vault) CreateAccount(password []byte) error {
	if len(password) == 0 {
		return fault.ErrEmptyPassword
	}
	v.Kill()

	header, err := headers.NewIVHeader()
	if err != nil {
		return err
	}
	defer header.Clear()

	err = fileutils.ReplaceFile(v.path(constants.IVFile), v.path(constants.IVFile+".tmp"), func(w io.Writer) error {
		_, err := headers.WriteIVHeader(header, w)
		return err
	})
	if err != nil {
		return err
	}
	if err := blockstore.Create(v.dir, header.Anchor()); err != nil {
		return err
	}
	if err := persistence.CreateEmpty(v.dir); err != nil {
		return err
	}

	hash, err := cryptoutils.HashPassword(password, header.PasswordSalt)
	if err != nil {
		return err
	}
	if err := fileutils.WriteContents(v.path(constants.PasswordHashFile), hash); err != nil {
		return err
	}

	kek, err := cryptoutils.DeriveKEK(password, header.KEKSalt, v.opts.Iterations)
	if err != nil {
		return err
	}
	defer cryptoutils.ZeroBytes(kek)

	dataKey, err := cryptoutils.GenerateRandomBytes(constants.KeySize)
	if err != nil {
		return err
	}
	defer cryptoutils.ZeroBytes(dataKey)

	wrap, err := cryptoutils.NewCodec(kek, header.DataKeyIV)
	if err != nil {
		return err
	}
	defer wrap.Clear()
	if err := fileutils.WriteContents(v.path(constants.DataKeyFile), wrap.CryptBuffer(dataKey)); err != nil {
		return err
	}

	log.Info().Str("dir", v.dir).Msg("account created")
	return nil
}

// Login unlocks the vault with password and loads the indices. A live
// session is logged out first. Any failure leaves the session logged out.
func (v *Vault) Login(password []byte) (err error) {
	if v.loggedIn {
		if err := v.Logout(); err != nil {
			return err
		}
	}
	if len(password) == 0 {
		return fault.ErrEmptyPassword
	}

	defer func() {
		if err != nil {
			v.Kill()
		}
	}()

	err = fileutils.ReadFrom(v.path(constants.IVFile), func(r io.Reader) error {
		var err error
		v.header, err = headers.ReadIVHeader(r)
		return err
	})
	if err != nil {
		return err
	}

	if err := v.checkPassword(password); err != nil {
		return err
	}
	if err := v.unwrapDataKey(password); err != nil {
		return err
	}
	if err := v.buildCodecs(); err != nil {
		return err
	}

	if _, err := v.store.BlockCount(); err != nil {
		return err
	}
	v.idx, err = persistence.Load(v.dir, v.codecs)
	if err != nil {
		return err
	}
	v.maxEntryID = index.MaxValue(v.idx.Names)
	v.maxCatID = index.MaxValue(v.idx.Categories)
	v.loggedIn = true

	log.Info().
		Str("dir", v.dir).
		Int("entries", v.idx.Names.Count()).
		Msg("logged in")
	return nil
}

func (v *Vault) checkPassword(password []byte) error {
	stored, err := fileutils.ReadContents(v.path(constants.PasswordHashFile))
	if err != nil {
		return err
	}
	if len(stored) != constants.HashSize {
		return fmt.Errorf("%w: %d bytes", fault.ErrTruncatedPassword, len(stored))
	}
	ok, err := cryptoutils.VerifyPassword(password, v.header.PasswordSalt, stored)
	if err != nil {
		return err
	}
	if !ok {
		return fault.ErrWrongPassword
	}
	return nil
}

func (v *Vault) unwrapDataKey(password []byte) error {
	wrapped, err := fileutils.ReadContents(v.path(constants.DataKeyFile))
	if err != nil {
		return err
	}
	if len(wrapped) != constants.KeySize {
		return fmt.Errorf("%w: %d bytes", fault.ErrCorruptKeyFile, len(wrapped))
	}

	kek, err := cryptoutils.DeriveKEK(password, v.header.KEKSalt, v.opts.Iterations)
	if err != nil {
		return err
	}
	defer cryptoutils.ZeroBytes(kek)

	wrap, err := cryptoutils.NewCodec(kek, v.header.DataKeyIV)
	if err != nil {
		return err
	}
	defer wrap.Clear()

	v.dataKey = wrap.CryptBuffer(wrapped)
	if v.opts.LockMemory {
		if err := cryptoutils.LockMemory(v.dataKey); err != nil {
			log.Debug().Err(err).Msg("data key not locked in memory")
		}
	}
	return nil
}

// buildCodecs expands the data key once and binds it to the IV of every
// encrypted file.
func (v *Vault) buildCodecs() error {
	data, err := cryptoutils.NewCodec(v.dataKey, v.header.DataIV)
	if err != nil {
		return err
	}
	names, err := data.WithIV(v.header.NameIndexIV)
	if err != nil {
		return err
	}
	blocks, err := data.WithIV(v.header.IDIndexIV)
	if err != nil {
		return err
	}
	categories, err := data.WithIV(v.header.CategoryIndexIV)
	if err != nil {
		return err
	}

	v.data = data
	v.codecs = persistence.Codecs{Names: names, Blocks: blocks, Categories: categories}
	v.store = blockstore.New(v.dir, data)
	return nil
}

// save writes the indices. It runs after every change to them so the
// id index on disk always matches the block numbering of the data file.
func (v *Vault) save() error {
	return persistence.Save(v.dir, v.codecs, v.idx)
}

// Logout saves the indices and ends the session. The session is torn
// down even when saving fails; the save error is returned.
func (v *Vault) Logout() error {
	if !v.loggedIn {
		return fault.ErrNotLoggedIn
	}
	err := v.save()
	v.Kill()

	if err != nil {
		log.Error().Err(err).Msg("indices not saved")
		return err
	}
	log.Info().Str("dir", v.dir).Msg("logged out")
	return nil
}

// Kill discards the session without saving: key material is wiped and
// the indices are dropped.
func (v *Vault) Kill() {
	if v.dataKey != nil {
		if v.opts.LockMemory {
			_ = cryptoutils.UnlockMemory(v.dataKey)
		}
		cryptoutils.ZeroBytes(v.dataKey)
		v.dataKey = nil
	}
	for _, c := range []*cryptoutils.Codec{v.data, v.codecs.Names, v.codecs.Blocks, v.codecs.Categories} {
		if c != nil {
			c.Clear()
		}
	}
	v.data = nil
	v.codecs = persistence.Codecs{}
	v.store = nil

	if v.header.PasswordSalt != nil {
		v.header.Clear()
	}
	v.header = headers.IVHeader{}

	if v.idx.Names != nil {
		v.idx.Names.Clear()
	}
	if v.idx.Categories != nil {
		v.idx.Categories.Clear()
	}
	if v.idx.Blocks.Tree != nil {
		v.idx.Blocks.Clear()
	}
	v.idx = persistence.Indices{}

	v.maxEntryID = 0
	v.maxCatID = 0
	v.loggedIn = false
}
