package blockstore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilshansen/datavault-go/constants"
	"github.com/vilshansen/datavault-go/cryptoutils"
	"github.com/vilshansen/datavault-go/fault"
	"github.com/vilshansen/datavault-go/index"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	codec, err := cryptoutils.NewCodec(
		bytes.Repeat([]byte{0x11}, constants.KeySize),
		bytes.Repeat([]byte{0xf0}, constants.BlockSize),
	)
	require.NoError(t, err)
	require.NoError(t, Create(dir, bytes.Repeat([]byte{0xaa}, constants.BlockSize)))
	return New(dir, codec), dir
}

func readData(t *testing.T, dir string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, constants.DataFile))
	require.NoError(t, err)
	return data
}

func blockAt(data []byte, pos uint32) []byte {
	return data[pos*constants.BlockSize : (pos+1)*constants.BlockSize]
}

func appendChain(t *testing.T, s *Store) uint32 {
	t.Helper()
	root, err := s.AppendChain()
	require.NoError(t, err)
	return root
}

func TestAppendChain(t *testing.T) {
	s, dir := newTestStore(t)

	assert.Equal(t, uint32(1), appendChain(t, s), "block 0 is the anchor")
	assert.Equal(t, uint32(2), appendChain(t, s))

	count, err := s.BlockCount()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)

	data := readData(t, dir)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, constants.BlockSize), blockAt(data, 0))

	// a fresh chain holds padding only
	c, err := readChain(bytes.NewReader(data), s.codec, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, c.positions)
	assert.Equal(t, emptyBlock(), c.blocks[0])

	_, err = s.Get(1, 1)
	assert.ErrorIs(t, err, fault.ErrRecordNotFound)
}

func TestCreateGetRoundTrip(t *testing.T) {
	values := map[uint8]string{
		1: "gh_pwd",
		2: "michaelg29",
		3: "",
		4: "ends with quotes \"\"",
		5: strings.Repeat("long value spanning many blocks ", 5),
		6: "\x22",
		7: "\x01\xff\x22\x7f",
		8: "exactly-12ch",
	}

	s, _ := newTestStore(t)
	root := appendChain(t, s)
	for cat := uint8(1); cat <= 8; cat++ {
		require.NoError(t, s.CreateRecord(root, cat, []byte(values[cat])), "category %d", cat)
	}

	for cat, want := range values {
		got, err := s.Get(root, cat)
		require.NoError(t, err, "category %d", cat)
		assert.Equal(t, want, string(got), "category %d", cat)
	}

	_, err := s.Get(root, 9)
	assert.ErrorIs(t, err, fault.ErrRecordNotFound)
}

func TestCreateRecordExists(t *testing.T) {
	s, dir := newTestStore(t)
	root := appendChain(t, s)
	require.NoError(t, s.CreateRecord(root, 1, []byte("one")))
	before := readData(t, dir)

	err := s.CreateRecord(root, 1, []byte("two"))
	assert.ErrorIs(t, err, fault.ErrRecordExists)
	assert.Equal(t, before, readData(t, dir))
}

func TestCreateRecordCopiesUnaffectedBlocks(t *testing.T) {
	s, dir := newTestStore(t)
	a := appendChain(t, s)
	b := appendChain(t, s)
	require.NoError(t, s.CreateRecord(b, 1, []byte("bb")))
	before := readData(t, dir)

	// fits in the root block of a
	require.NoError(t, s.CreateRecord(a, 1, []byte("aa")))
	after := readData(t, dir)
	require.Len(t, after, len(before))
	assert.Equal(t, blockAt(before, 0), blockAt(after, 0))
	assert.NotEqual(t, blockAt(before, a), blockAt(after, a))
	assert.Equal(t, blockAt(before, b), blockAt(after, b), "other chains keep their ciphertext")
}

func TestCreateRecordExtendsChain(t *testing.T) {
	s, dir := newTestStore(t)
	a := appendChain(t, s)
	b := appendChain(t, s)

	// 1 + 20 + 1 bytes need two blocks, the second one is appended
	require.NoError(t, s.CreateRecord(a, 1, []byte(strings.Repeat("x", 20))))
	data := readData(t, dir)
	require.Len(t, data, 4*constants.BlockSize)

	c, err := readChain(bytes.NewReader(data), s.codec, a, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint32{a, 3}, c.positions, "chains grow at the end of the file")

	require.NoError(t, s.CreateRecord(b, 2, []byte("b-value")))
	got, err := s.Get(a, 1)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 20), string(got))
}

func TestCreateRecordExactFill(t *testing.T) {
	s, dir := newTestStore(t)
	a := appendChain(t, s)

	// 1 + 12 + 1 fills the root block exactly
	require.NoError(t, s.CreateRecord(a, 1, []byte("exactly-12ch")))
	assert.Len(t, readData(t, dir), 2*constants.BlockSize)

	// the next record needs a second block and a new link in the root
	require.NoError(t, s.CreateRecord(a, 2, []byte("z")))
	assert.Len(t, readData(t, dir), 3*constants.BlockSize)

	for cat, want := range map[uint8]string{1: "exactly-12ch", 2: "z"} {
		got, err := s.Get(a, cat)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestDeleteRecordNotFoundLeavesFile(t *testing.T) {
	s, dir := newTestStore(t)
	a := appendChain(t, s)
	require.NoError(t, s.CreateRecord(a, 1, []byte("value")))
	before := readData(t, dir)

	dropped, err := s.DeleteRecord(a, 2)
	assert.ErrorIs(t, err, fault.ErrRecordNotFound)
	assert.Nil(t, dropped)
	assert.Equal(t, before, readData(t, dir), "data file must stay byte-identical")

	_, err = os.Stat(filepath.Join(dir, constants.DataTempFile))
	assert.True(t, os.IsNotExist(err), "no temporary file is created")
}

func TestDeleteRecordInPlace(t *testing.T) {
	s, dir := newTestStore(t)
	a := appendChain(t, s)
	b := appendChain(t, s)
	require.NoError(t, s.CreateRecord(a, 1, []byte("one")))
	require.NoError(t, s.CreateRecord(a, 2, []byte("two")))
	require.NoError(t, s.CreateRecord(b, 1, []byte("bee")))
	before := readData(t, dir)

	dropped, err := s.DeleteRecord(a, 1)
	require.NoError(t, err)
	assert.Empty(t, dropped)

	after := readData(t, dir)
	assert.Len(t, after, len(before))
	assert.Equal(t, blockAt(before, b), blockAt(after, b))

	_, err = s.Get(a, 1)
	assert.ErrorIs(t, err, fault.ErrRecordNotFound)
	got, err := s.Get(a, 2)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

// Chains: a = 1 -> 3 -> 4, b = 2 -> 5. Deleting the long record of a drops
// blocks 3 and 4, so block 5 moves to 3 and b's link must follow it.
func TestDeleteRecordCompactsTrailingBlocks(t *testing.T) {
	s, dir := newTestStore(t)
	a := appendChain(t, s)
	b := appendChain(t, s)
	long := strings.Repeat("L", 30)
	require.NoError(t, s.CreateRecord(a, 1, []byte("short")))
	require.NoError(t, s.CreateRecord(a, 2, []byte(long)))
	require.NoError(t, s.CreateRecord(b, 1, []byte("b-one")))
	require.NoError(t, s.CreateRecord(b, 2, []byte("b-two-needs-more")))

	data := readData(t, dir)
	require.Len(t, data, 6*constants.BlockSize)
	ca, err := readChain(bytes.NewReader(data), s.codec, a, 6)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 3, 4}, ca.positions)
	cb, err := readChain(bytes.NewReader(data), s.codec, b, 6)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 5}, cb.positions)

	dropped, err := s.DeleteRecord(a, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 4}, dropped)

	after := readData(t, dir)
	assert.Len(t, after, 4*constants.BlockSize, "data file shrinks by the dropped blocks")
	assert.Equal(t, blockAt(data, 0), blockAt(after, 0))
	assert.NotEqual(t, blockAt(data, 2), blockAt(after, 2), "b's root links to a moved block")

	cb, err = readChain(bytes.NewReader(after), s.codec, b, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3}, cb.positions)

	for cat, want := range map[uint8]string{1: "b-one", 2: "b-two-needs-more"} {
		got, err := s.Get(b, cat)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
	got, err := s.Get(a, 1)
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

// Chains: a = 1 -> 2 -> 3, b = 4. Dropping a's tail moves b's root.
func TestDeleteRecordMovesLaterRoots(t *testing.T) {
	s, dir := newTestStore(t)
	blocks := index.NewBlockIndex()

	a := appendChain(t, s)
	require.NoError(t, s.CreateRecord(a, 1, []byte(strings.Repeat("A", 35))))
	b := appendChain(t, s)
	require.Equal(t, uint32(4), b)
	require.NoError(t, s.CreateRecord(b, 1, []byte("bee")))
	blocks.Insert(1, a)
	blocks.Insert(2, b)

	dropped, err := s.DeleteRecord(a, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3}, dropped)
	PatchIndex(blocks, dropped)

	root, _ := blocks.Search(2)
	assert.Equal(t, uint32(2), root)
	got, err := s.Get(root, 1)
	require.NoError(t, err)
	assert.Equal(t, "bee", string(got))

	rootA, _ := blocks.Search(1)
	assert.Equal(t, uint32(1), rootA)
	_, err = s.Get(rootA, 1)
	assert.ErrorIs(t, err, fault.ErrRecordNotFound)

	assert.Len(t, readData(t, dir), 3*constants.BlockSize)
}

func TestDeleteThenRecreate(t *testing.T) {
	s, _ := newTestStore(t)
	a := appendChain(t, s)
	require.NoError(t, s.CreateRecord(a, 1, []byte("gh_pwd")))
	require.NoError(t, s.CreateRecord(a, 2, []byte("michaelg29")))

	_, err := s.DeleteRecord(a, 1)
	require.NoError(t, err)
	require.NoError(t, s.CreateRecord(a, 1, []byte("gh_pwd2")))

	for cat, want := range map[uint8]string{1: "gh_pwd2", 2: "michaelg29"} {
		got, err := s.Get(a, cat)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestReadChainRejectsBackLink(t *testing.T) {
	s, dir := newTestStore(t)
	appendChain(t, s)
	appendChain(t, s)

	// rewrite block 2 so that it links back to block 1
	data := readData(t, dir)
	b := emptyBlock()
	b.Next = 1
	copy(data[2*constants.BlockSize:], s.encrypt(b, 2))
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.DataFile), data, 0600))

	_, err := s.Get(2, 1)
	assert.ErrorIs(t, err, fault.ErrCorruptChain)
	assert.Equal(t, fault.FileErr, fault.StatusOf(err))

	_, err = s.Get(7, 1)
	assert.ErrorIs(t, err, fault.ErrInvalidBlockIndex)
}

func TestCorruptDataFileSize(t *testing.T) {
	s, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.DataFile), make([]byte, 20), 0600))

	_, err := s.BlockCount()
	assert.ErrorIs(t, err, fault.ErrCorruptDataFile)
	_, err = s.AppendChain()
	assert.ErrorIs(t, err, fault.ErrCorruptDataFile)
}
