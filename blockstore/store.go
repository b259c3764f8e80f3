package blockstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
	"github.com/vilshansen/datavault-go/fileutils"
)

// Store gives access to the data file of one vault directory.
type Store struct {
	path    string
	tmpPath string
	codec   *cryptoutils.Codec
}

// New binds a store to the data file in dir. codec carries the vault key
// and the data-block-chain IV.
func New(dir string, codec *cryptoutils.Codec) *Store {
	return &Store{
		path:    filepath.Join(dir, constants.DataFile),
		tmpPath: filepath.Join(dir, constants.DataTempFile),
		codec:   codec,
	}
}

// Create writes a fresh data file holding only the anchor block.
func Create(dir string, anchor []byte) error {
	if len(anchor) != constants.BlockSize {
		return fmt.Errorf("invalid anchor length %d", len(anchor))
	}
	return fileutils.WriteContents(filepath.Join(dir, constants.DataFile), anchor)
}

// BlockCount returns the number of blocks in the data file, anchor
// included.
func (s *Store) BlockCount() (uint32, error) {
	size, err := fileutils.Size(s.path)
	if err != nil {
		return 0, err
	}
	return blockCount(size)
}

func blockCount(size int64) (uint32, error) {
	if size < constants.BlockSize || size%constants.BlockSize != 0 {
		return 0, fmt.Errorf("%w: size %d", fault.ErrCorruptDataFile, size)
	}
	if size/constants.BlockSize > MaxBlocks {
		return 0, fmt.Errorf("%w: %d blocks", fault.ErrCorruptDataFile, size/constants.BlockSize)
	}
	return uint32(size / constants.BlockSize), nil
}

// load reads the whole data file for a rewrite.
func (s *Store) load() ([]byte, uint32, error) {
	data, err := fileutils.ReadContents(s.path)
	if err != nil {
		return nil, 0, err
	}
	total, err := blockCount(int64(len(data)))
	if err != nil {
		return nil, 0, err
	}
	return data, total, nil
}

func (s *Store) encrypt(b Block, pos uint32) []byte {
	plain := b.Bytes()
	defer cryptoutils.ZeroBytes(plain)
	out := make([]byte, constants.BlockSize)
	s.codec.CryptBlock(out, plain, uint64(pos))
	return out
}

func (s *Store) decrypt(raw []byte, pos uint32) Block {
	plain := make([]byte, constants.BlockSize)
	defer cryptoutils.ZeroBytes(plain)
	s.codec.CryptBlock(plain, raw, uint64(pos))
	return ParseBlock(plain)
}

// AppendChain appends an empty block to the end of the data file and
// returns its index, the root of a new chain.
func (s *Store) AppendChain() (uint32, error) {
	total, err := s.BlockCount()
	if err != nil {
		return 0, err
	}
	if total >= MaxBlocks {
		return 0, fault.ErrDataFileFull
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot open %q", constants.DataFile)
	}
	defer f.Close()

	if _, err := f.Write(s.encrypt(emptyBlock(), total)); err != nil {
		return 0, errors.Wrapf(err, "cannot append to %q", constants.DataFile)
	}
	if err := f.Sync(); err != nil {
		return 0, errors.Wrapf(err, "cannot sync %q", constants.DataFile)
	}

	log.Debug().Uint32("block", total).Msg("chain appended")
	return total, nil
}

// Get returns the value of the category's record in the chain at root.
// Only the blocks of that chain are read and decrypted.
func (s *Store) Get(root uint32, category uint8) ([]byte, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(fault.ErrMissingFile, "cannot open %q", constants.DataFile)
		}
		return nil, errors.Wrapf(err, "cannot open %q", constants.DataFile)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat %q", constants.DataFile)
	}
	total, err := blockCount(fi.Size())
	if err != nil {
		return nil, err
	}

	c, err := readChain(f, s.codec, root, total)
	if err != nil {
		return nil, err
	}
	stream := c.content()
	defer cryptoutils.ZeroBytes(stream)

	spans, _, err := scanRecords(stream)
	if err != nil {
		return nil, err
	}
	rec, ok := findRecord(spans, category)
	if !ok {
		return nil, fault.ErrRecordNotFound
	}

	value := make([]byte, rec.end-rec.start-2)
	copy(value, rec.value(stream))
	return value, nil
}

// CreateRecord appends a record for category to the chain at root. The
// chain is extended with blocks at the end of the file when its padding
// tail is too short. Blocks whose plaintext does not change are copied
// without being re-encrypted.
func (s *Store) CreateRecord(root uint32, category uint8, value []byte) error {
	data, total, err := s.load()
	if err != nil {
		return err
	}

	c, err := readChain(bytes.NewReader(data), s.codec, root, total)
	if err != nil {
		return err
	}
	stream := c.content()
	defer cryptoutils.ZeroBytes(stream)

	spans, used, err := scanRecords(stream)
	if err != nil {
		return err
	}
	if _, ok := findRecord(spans, category); ok {
		return fault.ErrRecordExists
	}

	rec := encodeRecord(category, value)
	defer cryptoutils.ZeroBytes(rec)
	grown := append(stream[:used:used], rec...)
	defer cryptoutils.ZeroBytes(grown)

	positions := append([]uint32(nil), c.positions...)
	for next := total; len(positions) < blocksNeeded(len(grown)); next++ {
		if next >= MaxBlocks {
			return fault.ErrDataFileFull
		}
		positions = append(positions, next)
	}
	filled := fillChain(grown, positions)

	changed := make(map[uint32][]byte)
	var appended [][]byte
	for k, pos := range positions {
		if k < len(c.blocks) && filled[k] == c.blocks[k] {
			continue
		}
		if pos >= total {
			appended = append(appended, s.encrypt(filled[k], pos))
		} else {
			changed[pos] = s.encrypt(filled[k], pos)
		}
	}

	err = fileutils.ReplaceFile(s.path, s.tmpPath, func(w io.Writer) error {
		for pos := uint32(0); pos < total; pos++ {
			block, ok := changed[pos]
			if !ok {
				block = data[pos*constants.BlockSize : (pos+1)*constants.BlockSize]
			}
			if _, err := w.Write(block); err != nil {
				return errors.Wrapf(err, "cannot write block %d", pos)
			}
		}
		for i, block := range appended {
			if _, err := w.Write(block); err != nil {
				return errors.Wrapf(err, "cannot write block %d", total+uint32(i))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().
		Uint32("root", root).
		Int("rewritten", len(changed)).
		Int("appended", len(appended)).
		Msg("record created")
	return nil
}
