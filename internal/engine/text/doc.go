// Package text defines the vocabulary shared by every layer of the editing
// core: byte offsets, ranges, line/column points, the error kinds reported by
// mutations and queries, and the Reader and Store contracts implemented by the
// storage backends.
//
// Offsets are byte positions into UTF-8 text. A valid offset lies in
// [0, Len()] and never falls inside a multi-byte scalar value. Lines are
// separated by '\n' and numbered from zero; a document always has at least
// one line.
//
// Nothing in this package mutates text. Backends live in the piece and rope
// packages and share the balanced tree in sumtree.
package text
