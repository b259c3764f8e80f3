// Package persistence stores the three vault indices, each in its own
// file, encrypted as one AES-256-CTR stream under the vault key and the
// index's own IV.
//
// Serialized forms (all integers little endian):
//
//	name index      repeated  name 0x00 | id uint32     (post-order)
//	category index  repeated  name 0x00 | id uint8      (post-order)
//	id index        repeated  id uint32 | block uint32  (ascending id)
//
// A zero-length file is a valid empty index.
package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
	"github.com/vilshansen/datavault-go/fileutils"
	"github.com/vilshansen/datavault-go/index"
)

// Indices is the in-memory form of the three index files.
type Indices struct {
	Names      *index.NameIndex
	Categories *index.CategoryIndex
	Blocks     index.BlockIndex
}

// NewIndices returns three empty indices.
func NewIndices() Indices {
	return Indices{
		Names:      index.NewNameIndex(),
		Categories: index.NewCategoryIndex(),
		Blocks:     index.NewBlockIndex(),
	}
}

// Codecs holds one codec per index file, all sharing the vault key.
type Codecs struct {
	Names      *cryptoutils.Codec
	Blocks     *cryptoutils.Codec
	Categories *cryptoutils.Codec
}

// Load reads and decrypts the three index files found in dir.
func Load(dir string, codecs Codecs) (Indices, error) {
	names, err := loadFile(filepath.Join(dir, constants.NameIndexFile), codecs.Names)
	if err != nil {
		return Indices{}, err
	}
	defer cryptoutils.ZeroBytes(names)

	blocks, err := loadFile(filepath.Join(dir, constants.IDIndexFile), codecs.Blocks)
	if err != nil {
		return Indices{}, err
	}
	defer cryptoutils.ZeroBytes(blocks)

	categories, err := loadFile(filepath.Join(dir, constants.CategoryIndexFile), codecs.Categories)
	if err != nil {
		return Indices{}, err
	}
	defer cryptoutils.ZeroBytes(categories)

	idx := Indices{}
	if idx.Names, err = DecodeNames(names); err != nil {
		return Indices{}, fmt.Errorf("%s: %w", constants.NameIndexFile, err)
	}
	if idx.Blocks, err = DecodeBlocks(blocks); err != nil {
		return Indices{}, fmt.Errorf("%s: %w", constants.IDIndexFile, err)
	}
	if idx.Categories, err = DecodeCategories(categories); err != nil {
		return Indices{}, fmt.Errorf("%s: %w", constants.CategoryIndexFile, err)
	}

	log.Debug().
		Int("entries", idx.Names.Count()).
		Int("categories", idx.Categories.Count()).
		Msg("indices loaded")
	return idx, nil
}

// Save encrypts and writes the three indices into dir. Every file is
// attempted, the first error is returned.
func Save(dir string, codecs Codecs, idx Indices) error {
	names := EncodeNames(idx.Names)
	defer cryptoutils.ZeroBytes(names)
	blocks := EncodeBlocks(idx.Blocks)
	defer cryptoutils.ZeroBytes(blocks)
	categories := EncodeCategories(idx.Categories)
	defer cryptoutils.ZeroBytes(categories)

	var first error
	for _, f := range []struct {
		name  string
		codec *cryptoutils.Codec
		plain []byte
	}{
		{constants.NameIndexFile, codecs.Names, names},
		{constants.IDIndexFile, codecs.Blocks, blocks},
		{constants.CategoryIndexFile, codecs.Categories, categories},
	} {
		err := fileutils.WriteContents(filepath.Join(dir, f.name), f.codec.CryptBuffer(f.plain))
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CreateEmpty creates the three index files with no content.
func CreateEmpty(dir string) error {
	for _, name := range []string{constants.NameIndexFile, constants.IDIndexFile, constants.CategoryIndexFile} {
		if err := fileutils.CreateEmpty(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func loadFile(path string, codec *cryptoutils.Codec) ([]byte, error) {
	data, err := fileutils.ReadContents(path)
	if err != nil {
		return nil, err
	}
	return codec.CryptBuffer(data), nil
}

// EncodeNames serializes the name index in post-order.
func EncodeNames(t *index.NameIndex) []byte {
	var buf bytes.Buffer
	id := make([]byte, 4)
	for name, v := range t.PostOrder() {
		buf.WriteString(name)
		buf.WriteByte(constants.TerminatorByte)
		binary.LittleEndian.PutUint32(id, v)
		buf.Write(id)
	}
	return buf.Bytes()
}

// EncodeCategories serializes the category index in post-order.
func EncodeCategories(t *index.CategoryIndex) []byte {
	var buf bytes.Buffer
	for name, v := range t.PostOrder() {
		buf.WriteString(name)
		buf.WriteByte(constants.TerminatorByte)
		buf.WriteByte(v)
	}
	return buf.Bytes()
}

// EncodeBlocks serializes the id index in ascending id order.
func EncodeBlocks(b index.BlockIndex) []byte {
	buf := make([]byte, 0, 8*b.Count())
	for id, block := range b.All() {
		buf = binary.LittleEndian.AppendUint32(buf, id)
		buf = binary.LittleEndian.AppendUint32(buf, block)
	}
	return buf
}

// DecodeNames rebuilds a name index from its serialized form.
func DecodeNames(b []byte) (*index.NameIndex, error) {
	t := index.NewNameIndex()
	err := decodeStrings(b, 4, func(name string, id []byte) bool {
		return t.Insert(name, binary.LittleEndian.Uint32(id))
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeCategories rebuilds a category index from its serialized form.
func DecodeCategories(b []byte) (*index.CategoryIndex, error) {
	t := index.NewCategoryIndex()
	err := decodeStrings(b, 1, func(name string, id []byte) bool {
		return id[0] != 0 && t.Insert(name, id[0])
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func decodeStrings(b []byte, width int, insert func(name string, id []byte) bool) error {
	for i := 0; i < len(b); {
		end := bytes.IndexByte(b[i:], constants.TerminatorByte)
		if end < 0 {
			return fmt.Errorf("%w: unterminated name at offset %d", fault.ErrCorruptIndex, i)
		}
		if end == 0 {
			return fmt.Errorf("%w: empty name at offset %d", fault.ErrCorruptIndex, i)
		}
		name := string(b[i : i+end])
		i += end + 1
		if i+width > len(b) {
			return fmt.Errorf("%w: truncated id for %q", fault.ErrCorruptIndex, name)
		}
		if !insert(name, b[i:i+width]) {
			return fmt.Errorf("%w: invalid record for %q", fault.ErrCorruptIndex, name)
		}
		i += width
	}
	return nil
}

// DecodeBlocks rebuilds the id index from its serialized form.
func DecodeBlocks(b []byte) (index.BlockIndex, error) {
	if len(b)%8 != 0 {
		return index.BlockIndex{}, fmt.Errorf("%w: length %d is not a multiple of 8", fault.ErrCorruptIndex, len(b))
	}
	t := index.NewBlockIndex()
	for i := 0; i < len(b); i += 8 {
		id := binary.LittleEndian.Uint32(b[i:])
		block := binary.LittleEndian.Uint32(b[i+4:])
		if block == 0 || !t.Insert(id, block) {
			return index.BlockIndex{}, fmt.Errorf("%w: invalid record for entry %d", fault.ErrCorruptIndex, id)
		}
	}
	return t, nil
}
