package headers

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
)

// IVHeader is the plaintext content of the IV file: seven 16-byte salts
// and IVs. None of them are secret.
type IVHeader struct {
	PasswordSalt    []byte
	KEKSalt         []byte
	DataKeyIV       []byte
	DataIV          []byte
	NameIndexIV     []byte
	IDIndexIV       []byte
	CategoryIndexIV []byte
}

// NewIVHeader fills every segment from the secure random source.
func NewIVHeader() (IVHeader, error) {
	random, err := cryptoutils.GenerateRandomBytes(constants.RandomSize)
	if err != nil {
		return IVHeader{}, err
	}
	return ParseIVHeader(random)
}

// ParseIVHeader splits the 112-byte blob into its segments. The segments
// are copies, the caller keeps ownership of random.
func ParseIVHeader(random []byte) (IVHeader, error) {
	if len(random) != constants.RandomSize {
		return IVHeader{}, fmt.Errorf("%w: got %d bytes, want %d", fault.ErrCorruptIVFile, len(random), constants.RandomSize)
	}

	segment := func(offset int) []byte {
		s := make([]byte, constants.SegmentSize)
		copy(s, random[offset:offset+constants.SegmentSize])
		return s
	}

	return IVHeader{
		PasswordSalt:    segment(constants.PasswordSaltOffset),
		KEKSalt:         segment(constants.KEKSaltOffset),
		DataKeyIV:       segment(constants.DataKeyIVOffset),
		DataIV:          segment(constants.DataIVOffset),
		NameIndexIV:     segment(constants.NameIndexIVOffset),
		IDIndexIV:       segment(constants.IDIndexIVOffset),
		CategoryIndexIV: segment(constants.CategoryIndexIVOffset),
	}, nil
}

func (h IVHeader) segments() [][]byte {
	return [][]byte{
		h.PasswordSalt,
		h.KEKSalt,
		h.DataKeyIV,
		h.DataIV,
		h.NameIndexIV,
		h.IDIndexIV,
		h.CategoryIndexIV,
	}
}

// GetIVHeaderBytes concatenates the segments in file order.
func GetIVHeaderBytes(header IVHeader) []byte {
	var buf bytes.Buffer
	for _, s := range header.segments() {
		padded := make([]byte, constants.SegmentSize)
		copy(padded, s)
		buf.Write(padded)
	}
	return buf.Bytes()
}

func WriteIVHeader(header IVHeader, output io.Writer) (int64, error) {
	for i, s := range header.segments() {
		if len(s) != constants.SegmentSize {
			return 0, fmt.Errorf("invalid length of segment %d: %d, want %d", i, len(s), constants.SegmentSize)
		}
	}

	n, err := output.Write(GetIVHeaderBytes(header))
	if err != nil {
		return int64(n), fmt.Errorf("error writing iv header: %w", err)
	}

	return int64(n), nil
}

// ReadIVHeader reads exactly one IV blob from input.
func ReadIVHeader(input io.Reader) (IVHeader, error) {
	random := make([]byte, constants.RandomSize)
	if _, err := io.ReadFull(input, random); err != nil {
		return IVHeader{}, fmt.Errorf("%w: error reading iv header: %v", fault.ErrCorruptIVFile, err)
	}
	return ParseIVHeader(random)
}

// Anchor is the 16-byte block written at the start of a new data file.
// It only occupies block 0 and is never decrypted.
func (h IVHeader) Anchor() []byte {
	a := make([]byte, constants.BlockSize)
	copy(a, h.PasswordSalt)
	return a
}

// Clear wipes every segment.
func (h IVHeader) Clear() {
	for _, s := range h.segments() {
		cryptoutils.ZeroBytes(s)
	}
}
