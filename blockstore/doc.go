// Package blockstore implements the encrypted, block-chained data file of
// the vault.
//
// The data file is a sequence of 16-byte blocks. Block 0 is an anchor and
// never holds entry content. Every other block is encrypted with
// AES-256-CTR at counter base IV + its absolute index, so any block can be
// read or written without touching its neighbours. Decrypted, a block is
//
//	[0..14)   content
//	[14..16)  little-endian index of the next block of the chain, 0 ends it
//
// The content of a chain, concatenated in chain order, is a packed stream
// of records
//
//	category id (1 byte) | value | 0x00
//
// followed by 0x22 padding up to the end of the last block. Chains only
// ever grow by appending blocks at the end of the file, so continuation
// pointers always point forward.
package blockstore
