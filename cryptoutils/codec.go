package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/fault"
)

// Codec is an AES-256-CTR stream bound to one key and one base IV.
//
// Every 16-byte block of a CTR stream only depends on the key and its own
// counter, so block i can be processed on its own by starting the stream at
// base IV + i. Encryption and decryption are the same operation.
type Codec struct {
	block cipher.Block
	iv    [constants.BlockSize]byte
}

// NewCodec expands the key schedule for key and binds it to iv.
func NewCodec(key []byte, iv []byte) (*Codec, error) {
	if len(key) != constants.KeySize {
		return nil, fault.ErrInvalidKeyLength
	}
	if len(iv) != constants.BlockSize {
		return nil, fmt.Errorf("invalid iv length %d", len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("unable to create AES block: %w", err)
	}

	c := &Codec{block: block}
	copy(c.iv[:], iv)
	return c, nil
}

// WithIV returns a codec sharing this key schedule but bound to another IV.
func (c *Codec) WithIV(iv []byte) (*Codec, error) {
	if len(iv) != constants.BlockSize {
		return nil, fmt.Errorf("invalid iv length %d", len(iv))
	}
	n := &Codec{block: c.block}
	copy(n.iv[:], iv)
	return n, nil
}

// CryptBlock encrypts or decrypts one block at counter offset index.
// dst and src must both be exactly one block long and may overlap entirely.
func (c *Codec) CryptBlock(dst, src []byte, index uint64) {
	if len(src) != constants.BlockSize || len(dst) != constants.BlockSize {
		panic("cryptoutils: CryptBlock needs whole blocks")
	}
	iv := AdvanceCounter(c.iv[:], index)
	cipher.NewCTR(c.block, iv).XORKeyStream(dst, src)
}

// CryptBuffer encrypts or decrypts a whole buffer as one CTR stream
// starting at the base IV.
func (c *Codec) CryptBuffer(buf []byte) []byte {
	out := make([]byte, len(buf))
	cipher.NewCTR(c.block, c.iv[:]).XORKeyStream(out, buf)
	return out
}

// Clear drops the key schedule and wipes the IV. The codec is unusable
// afterwards.
func (c *Codec) Clear() {
	c.block = nil
	ZeroBytes(c.iv[:])
}

// AdvanceCounter returns iv interpreted as a 128-bit big-endian counter
// advanced by n, matching the increment order of cipher.NewCTR.
func AdvanceCounter(iv []byte, n uint64) []byte {
	out := make([]byte, len(iv))
	copy(out, iv)
	carry := n
	for i := len(out) - 1; i >= 0 && carry != 0; i-- {
		sum := uint64(out[i]) + (carry & 0xff)
		out[i] = byte(sum)
		carry = (carry >> 8) + (sum >> 8)
	}
	return out
}
