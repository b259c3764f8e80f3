package index

import (
	"cmp"
	"iter"
)

// a node in the tree
type node[K cmp.Ordered, V any] struct {
	left    *node[K, V]
	right   *node[K, V]
	key     K
	value   V
	balance int // -1, 0, +1
}

// Tree - type to hold the root node of a tree
type Tree[K cmp.Ordered, V any] struct {
	root  *node[K, V]
	count int
}

// New - create an initially empty tree
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{}
}

// IsEmpty - true if tree contains no data
func (tree *Tree[K, V]) IsEmpty() bool {
	return nil == tree.root
}

// Count - number of nodes currently in the tree
func (tree *Tree[K, V]) Count() int {
	return tree.count
}

// Insert - add a key/value pair; an existing key is left unchanged and
// false is returned
func (tree *Tree[K, V]) Insert(key K, value V) bool {
	added := false
	tree.root, added, _ = insert(key, value, tree.root)
	if added {
		tree.count += 1
	}
	return added
}

// internal routine for insert, returns the new sub-tree root, whether a
// node was added and whether the sub-tree height grew
func insert[K cmp.Ordered, V any](key K, value V, p *node[K, V]) (*node[K, V], bool, bool) {
	if nil == p {
		return &node[K, V]{key: key, value: value}, true, true
	}

	added := false
	h := false
	switch cmp.Compare(p.key, key) {
	case +1: // p.key > key
		p.left, added, h = insert(key, value, p.left)
		if h {
			// left branch has grown
			switch p.balance {
			case +1:
				p.balance = 0
				h = false
			case 0:
				p.balance = -1
			default: // -1, rebalance
				p = rebalanceLeft(p)
				h = false
			}
		}
	case -1: // p.key < key
		p.right, added, h = insert(key, value, p.right)
		if h {
			// right branch has grown
			switch p.balance {
			case -1:
				p.balance = 0
				h = false
			case 0:
				p.balance = +1
			default: // +1, rebalance
				p = rebalanceRight(p)
				h = false
			}
		}
	}
	return p, added, h
}

func rebalanceLeft[K cmp.Ordered, V any](p *node[K, V]) *node[K, V] {
	p1 := p.left
	if -1 == p1.balance {
		// single LL rotation
		p.left = p1.right
		p1.right = p
		p.balance = 0
		p = p1
	} else {
		// double LR rotation
		p2 := p1.right
		p1.right = p2.left
		p2.left = p1
		p.left = p2.right
		p2.right = p
		if -1 == p2.balance {
			p.balance = +1
		} else {
			p.balance = 0
		}
		if +1 == p2.balance {
			p1.balance = -1
		} else {
			p1.balance = 0
		}
		p = p2
	}
	p.balance = 0
	return p
}

func rebalanceRight[K cmp.Ordered, V any](p *node[K, V]) *node[K, V] {
	p1 := p.right
	if +1 == p1.balance {
		// single RR rotation
		p.right = p1.left
		p1.left = p
		p.balance = 0
		p = p1
	} else {
		// double RL rotation
		p2 := p1.left
		p1.left = p2.right
		p2.right = p1
		p.right = p2.left
		p2.left = p
		if +1 == p2.balance {
			p.balance = -1
		} else {
			p.balance = 0
		}
		if -1 == p2.balance {
			p1.balance = +1
		} else {
			p1.balance = 0
		}
		p = p2
	}
	p.balance = 0
	return p
}

// Search - find the value stored for a key
func (tree *Tree[K, V]) Search(key K) (V, bool) {
	p := tree.root
	for nil != p {
		switch cmp.Compare(p.key, key) {
		case +1:
			p = p.left
		case -1:
			p = p.right
		default:
			return p.value, true
		}
	}
	var zero V
	return zero, false
}

// All - key/value pairs in ascending key order
func (tree *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		inOrder(tree.root, yield)
	}
}

func inOrder[K cmp.Ordered, V any](p *node[K, V], yield func(K, V) bool) bool {
	if nil == p {
		return true
	}
	return inOrder(p.left, yield) && yield(p.key, p.value) && inOrder(p.right, yield)
}

// PostOrder - key/value pairs with both sub-trees of a node before the
// node itself
func (tree *Tree[K, V]) PostOrder() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		postOrder(tree.root, yield)
	}
}

func postOrder[K cmp.Ordered, V any](p *node[K, V], yield func(K, V) bool) bool {
	if nil == p {
		return true
	}
	return postOrder(p.left, yield) && postOrder(p.right, yield) && yield(p.key, p.value)
}

// update - rewrite every value in place, the keys and shape are unchanged
func (tree *Tree[K, V]) update(f func(V) V) {
	var walk func(p *node[K, V])
	walk = func(p *node[K, V]) {
		if nil == p {
			return
		}
		walk(p.left)
		p.value = f(p.value)
		walk(p.right)
	}
	walk(tree.root)
}

// Height - number of levels, 0 for an empty tree
func (tree *Tree[K, V]) Height() int {
	var height func(p *node[K, V]) int
	height = func(p *node[K, V]) int {
		if nil == p {
			return 0
		}
		return 1 + max(height(p.left), height(p.right))
	}
	return height(tree.root)
}

// Clear - drop every node
func (tree *Tree[K, V]) Clear() {
	tree.root = nil
	tree.count = 0
}
