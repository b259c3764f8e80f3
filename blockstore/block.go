package blockstore

import (
	"encoding/binary"
	"math"

	"github.com/vilshansen/datavault-go/constants"
)

// MaxBlocks is the number of blocks addressable by a continuation pointer.
const MaxBlocks = math.MaxUint16 + 1

// Block is the decrypted form of one data block.
type Block struct {
	Content [constants.ContentSize]byte
	Next    uint16
}

// emptyBlock returns a block holding only padding and no successor.
func emptyBlock() Block {
	var b Block
	for i := range b.Content {
		b.Content[i] = constants.PaddingByte
	}
	return b
}

// ParseBlock decodes a decrypted 16-byte block.
func ParseBlock(plain []byte) Block {
	var b Block
	copy(b.Content[:], plain[:constants.ContentSize])
	b.Next = binary.LittleEndian.Uint16(plain[constants.ContentSize:])
	return b
}

// Bytes encodes the block into its 16-byte plaintext form.
func (b Block) Bytes() []byte {
	out := make([]byte, constants.BlockSize)
	copy(out, b.Content[:])
	binary.LittleEndian.PutUint16(out[constants.ContentSize:], b.Next)
	return out
}

// blocksNeeded is the number of blocks a content stream of n bytes takes.
// A chain always keeps at least its root block.
func blocksNeeded(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + constants.ContentSize - 1) / constants.ContentSize
}

// fillChain spreads stream over len(positions) blocks, pads the tail and
// links every block to the next position. The last block ends the chain.
func fillChain(stream []byte, positions []uint32) []Block {
	out := make([]Block, len(positions))
	for k := range positions {
		b := emptyBlock()
		lo := k * constants.ContentSize
		if lo < len(stream) {
			copy(b.Content[:], stream[lo:min(lo+constants.ContentSize, len(stream))])
		}
		if k+1 < len(positions) {
			b.Next = uint16(positions[k+1])
		}
		out[k] = b
	}
	return out
}
