package blockstore

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
)

// chain is one entry's blocks in chain order, decrypted.
type chain struct {
	positions []uint32
	blocks    []Block
}

// content concatenates the content regions of the chain.
func (c chain) content() []byte {
	out := make([]byte, 0, len(c.blocks)*constants.ContentSize)
	for _, b := range c.blocks {
		out = append(out, b.Content[:]...)
	}
	return out
}

// readChain follows the chain starting at root. total is the number of
// blocks in the data file.
func readChain(r io.ReaderAt, codec *cryptoutils.Codec, root uint32, total uint32) (chain, error) {
	var c chain
	raw := make([]byte, constants.BlockSize)
	plain := make([]byte, constants.BlockSize)
	defer cryptoutils.ZeroBytes(plain)

	for pos := root; ; {
		if pos == 0 || pos >= total {
			return chain{}, fmt.Errorf("%w: block %d of %d", fault.ErrInvalidBlockIndex, pos, total)
		}
		if _, err := r.ReadAt(raw, int64(pos)*constants.BlockSize); err != nil {
			return chain{}, errors.Wrapf(err, "cannot read block %d", pos)
		}
		codec.CryptBlock(plain, raw, uint64(pos))
		b := ParseBlock(plain)
		c.positions = append(c.positions, pos)
		c.blocks = append(c.blocks, b)

		if b.Next == 0 {
			return c, nil
		}
		if uint32(b.Next) <= pos {
			return chain{}, fmt.Errorf("%w: block %d points back to %d", fault.ErrCorruptChain, pos, b.Next)
		}
		pos = uint32(b.Next)
	}
}
