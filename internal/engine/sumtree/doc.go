// Package sumtree provides an immutable B+ tree of text-bearing items in
// which every node carries the aggregated byte and newline counts of its
// subtree.
//
// The tree is the common skeleton of the document backends. The piece
// package stores piece-table spans in it and the rope package stores bounded
// string chunks. Either way:
//
//   - Split and Join run in O(log n) and never modify their inputs
//   - Offset and line lookups descend by summary in O(log n)
//   - A Tree value is a snapshot; copying it is O(1)
//
// All leaves sit at the same depth. Join splices the shorter tree into the
// spine of the taller one and splits overflowing nodes on the way back up.
//
// Tree implements text.Reader, so a backend can hand its current tree out as
// a read-only snapshot that is safe to share between goroutines.
package sumtree
