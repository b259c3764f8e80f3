package blockstore

import (
	"bytes"
	"fmt"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/fault"
)

// span locates one record inside a content stream: the category byte is
// at start, the terminator at end-1.
type span struct {
	category uint8
	start    int
	end      int
}

func (s span) value(stream []byte) []byte {
	return stream[s.start+1 : s.end-1]
}

// scanRecords walks the records of a content stream from its first byte.
// A record only ends at its terminator, so a run of bytes without one is
// the padding tail. used is the length of the record part of the stream.
func scanRecords(stream []byte) (spans []span, used int, err error) {
	i := 0
	for i < len(stream) {
		term := bytes.IndexByte(stream[i:], constants.TerminatorByte)
		if term < 0 {
			break
		}
		if term == 0 {
			return nil, 0, fmt.Errorf("%w: record without category at offset %d", fault.ErrCorruptChain, i)
		}
		spans = append(spans, span{category: stream[i], start: i, end: i + term + 1})
		i += term + 1
	}
	return spans, i, nil
}

func findRecord(spans []span, category uint8) (span, bool) {
	for _, s := range spans {
		if s.category == category {
			return s, true
		}
	}
	return span{}, false
}

// encodeRecord builds category | value | 0x00.
func encodeRecord(category uint8, value []byte) []byte {
	rec := make([]byte, 0, len(value)+2)
	rec = append(rec, category)
	rec = append(rec, value...)
	return append(rec, constants.TerminatorByte)
}
