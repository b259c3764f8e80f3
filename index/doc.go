// Package index - ordered maps backing the vault indices
//
// An AVL balanced tree keyed by any ordered type. Each node is owned by
// exactly one parent, the tree owns the root. The base algorithm is the
// one described by Niklaus Wirth in Algorithms + Data Structures =
// Programs.
//
// Three instantiations are used by the vault:
//
//	NameIndex      entry name    -> entry id
//	CategoryIndex  category name -> category id
//	BlockIndex     entry id      -> root block of the entry's chain
//
// Note: a tree is not thread safe.
package index
