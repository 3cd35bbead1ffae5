// Package piece implements the default document backend: a piece table
// whose spans live in a sumtree.
//
// The original content is stored once in an immutable buffer. Inserted text
// is appended to an add buffer that only ever grows. The document is the
// in-order concatenation of spans, each naming a buffer and a byte range in
// it. Edits rewrite O(log n) tree nodes and never copy document text.
//
// Consecutive keystrokes at the end of the most recently inserted span extend
// that span instead of creating a new one, so typing a paragraph costs a
// single span.
//
// Snapshots share the span tree and both buffers. Neither buffer is written
// below its current length, so a snapshot stays valid while the table keeps
// changing.
package piece
