// Package cursor tracks the cursors and selections of one document.
//
// The cursor package handles:
//
//   - Text selections with the anchor/head model via Selection
//   - Cursors with stable IDs that survive edits, undo and redo
//   - Rebasing every cursor after each mutation of the document
//
// Selection Model:
//
// Selections use an anchor/head model where:
//   - Anchor: The position where the selection started
//   - Head: The current cursor position (where typing would occur)
//
// When Anchor == Head, the selection is a plain caret.
//
// Rebase Rule:
//
// After text in [start, end) is replaced by n bytes, an offset p becomes:
//
//	p                     if p < start
//	start + n             if start <= p < end
//	p - (end-start) + n   if p >= end
//
// A pure insertion (start == end) therefore pushes carets sitting at the
// insertion point to the end of the inserted text, and a pure deletion
// collapses carets inside the deleted range to its start.
//
// Thread Safety:
//
// Selection and Cursor are immutable values. Tracker is owned by the single
// mutator and is not synchronized.
package cursor
