package index

// NameIndex maps entry names to entry ids.
type NameIndex = Tree[string, uint32]

// CategoryIndex maps category names to category ids.
type CategoryIndex = Tree[string, uint8]

// BlockIndex maps entry ids to the absolute index of the first block of
// the entry's chain.
type BlockIndex struct {
	*Tree[uint32, uint32]
}

func NewNameIndex() *NameIndex {
	return New[string, uint32]()
}

func NewCategoryIndex() *CategoryIndex {
	return New[string, uint8]()
}

func NewBlockIndex() BlockIndex {
	return BlockIndex{New[uint32, uint32]()}
}

// DecrementAbove lowers by one every block index strictly greater than
// threshold. Called once per block physically removed from the data file.
func (b BlockIndex) DecrementAbove(threshold uint32) {
	b.update(func(v uint32) uint32 {
		if v > threshold {
			return v - 1
		}
		return v
	})
}

// MaxValue returns the largest value stored in a tree, the zero value for
// an empty tree.
func MaxValue[K string | uint32, V uint8 | uint32](t *Tree[K, V]) V {
	var m V
	for _, v := range t.All() {
		if v > m {
			m = v
		}
	}
	return m
}

// MaxKey returns the largest key of the block index, 0 when empty.
func (b BlockIndex) MaxKey() uint32 {
	var m uint32
	for k := range b.All() {
		m = k
	}
	return m
}
