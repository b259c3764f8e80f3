package blockstore

import (
	"bytes"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
	"github.com/vilshansen/datavault-go/fileutils"
	"github.com/vilshansen/datavault-go/index"
)

// compaction is the plan for removing one record from a chain.
type compaction struct {
	positions []uint32 // chain blocks that stay, in chain order
	dropped   []uint32 // chain blocks removed from the file, ascending
	blocks    []Block  // new content of the kept blocks, links already renumbered
}

// classify finds the record of category in a chain. It is the only phase
// that can reject a delete, so a failed delete never touches the file.
func classify(c chain, category uint8) (stream []byte, target span, used int, err error) {
	stream = c.content()
	spans, used, err := scanRecords(stream)
	if err != nil {
		return nil, span{}, 0, err
	}
	target, ok := findRecord(spans, category)
	if !ok {
		cryptoutils.ZeroBytes(stream)
		return nil, span{}, 0, fault.ErrRecordNotFound
	}
	return stream, target, used, nil
}

// repack removes the target record from the stream and decides which
// chain blocks are still needed. The surviving records keep their order
// and start at the root block. Blocks past the last needed one are
// dropped; the root is always kept.
func repack(c chain, stream []byte, target span, used int) (survivors []byte, keep []uint32, dropped []uint32) {
	survivors = make([]byte, 0, used-(target.end-target.start))
	survivors = append(survivors, stream[:target.start]...)
	survivors = append(survivors, stream[target.end:used]...)

	needed := blocksNeeded(len(survivors))
	keep = c.positions[:needed]
	dropped = append([]uint32(nil), c.positions[needed:]...)
	return survivors, keep, dropped
}

// renumber returns the new absolute index of a block once the dropped
// blocks are removed from the file. 0 maps to 0.
func renumber(dropped []uint32) func(uint32) uint32 {
	return func(pos uint32) uint32 {
		below := sort.Search(len(dropped), func(i int) bool { return dropped[i] >= pos })
		return pos - uint32(below)
	}
}

// plan builds the new content of the kept chain blocks, linked by their
// renumbered positions.
func plan(survivors []byte, keep []uint32, dropped []uint32) compaction {
	next := renumber(dropped)
	moved := make([]uint32, len(keep))
	for i, pos := range keep {
		moved[i] = next(pos)
	}
	return compaction{
		positions: keep,
		dropped:   dropped,
		blocks:    fillChain(survivors, moved),
	}
}

// rekey produces the ciphertext of one block that is not part of the
// compacted chain. A block keeps its exact ciphertext when neither its
// position nor its link moves; otherwise it is decrypted under its old
// counter and encrypted under the new one.
func (s *Store) rekey(raw []byte, pos uint32, next func(uint32) uint32) ([]byte, bool) {
	b := s.decrypt(raw, pos)
	newPos := next(pos)
	newNext := b.Next
	if b.Next != 0 {
		newNext = uint16(next(uint32(b.Next)))
	}
	if newPos == pos && newNext == b.Next {
		return raw, false
	}
	b.Next = newNext
	out := s.encrypt(b, newPos)
	cryptoutils.ZeroBytes(b.Content[:])
	return out, true
}

// DeleteRecord removes the record of category from the chain at root and
// compacts the data file. It returns the indices, ascending, of the
// blocks physically removed from the file; the caller passes them to
// PatchIndex once the call succeeded.
func (s *Store) DeleteRecord(root uint32, category uint8) ([]uint32, error) {
	data, total, err := s.load()
	if err != nil {
		return nil, err
	}

	c, err := readChain(bytes.NewReader(data), s.codec, root, total)
	if err != nil {
		return nil, err
	}

	stream, target, used, err := classify(c, category)
	if err != nil {
		return nil, err
	}
	defer cryptoutils.ZeroBytes(stream)

	survivors, keep, dropped := repack(c, stream, target, used)
	defer cryptoutils.ZeroBytes(survivors)
	p := plan(survivors, keep, dropped)

	kept := make(map[uint32]Block, len(p.positions))
	for i, pos := range p.positions {
		kept[pos] = p.blocks[i]
	}
	gone := make(map[uint32]bool, len(p.dropped))
	for _, pos := range p.dropped {
		gone[pos] = true
	}
	next := renumber(p.dropped)

	rekeyed := 0
	err = fileutils.ReplaceFile(s.path, s.tmpPath, func(w io.Writer) error {
		// the anchor never moves
		if _, err := w.Write(data[:constants.BlockSize]); err != nil {
			return errors.Wrap(err, "cannot write anchor")
		}
		for pos := uint32(1); pos < total; pos++ {
			if gone[pos] {
				continue
			}

			var out []byte
			if b, ok := kept[pos]; ok {
				out = s.encrypt(b, next(pos))
			} else {
				var moved bool
				out, moved = s.rekey(data[pos*constants.BlockSize:(pos+1)*constants.BlockSize], pos, next)
				if moved {
					rekeyed++
				}
			}
			if _, err := w.Write(out); err != nil {
				return errors.Wrapf(err, "cannot write block %d", pos)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Uint32("root", root).
		Int("dropped", len(p.dropped)).
		Int("rekeyed", rekeyed).
		Msg("record deleted")
	return p.dropped, nil
}

// PatchIndex renumbers the root blocks of the id index after the blocks
// in dropped were removed from the data file. Dropped blocks are handled
// from the highest down so every decrement uses an index that is still
// valid at that point.
func PatchIndex(blocks index.BlockIndex, dropped []uint32) {
	for i := len(dropped) - 1; i >= 0; i-- {
		blocks.DecrementAbove(dropped[i])
	}
}
