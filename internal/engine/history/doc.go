// Package history records undoable edits for the engine.
//
// History only stores data. The engine applies operations to the text store,
// then hands the resulting Entry to Record. Undo and Redo pop entries back to
// the engine, which applies the inverse (or the original) operations and
// restores the saved cursor state.
//
// # Operations
//
// An Operation is a single splice: the text removed at an offset and the text
// inserted in its place. Applying an operation and then its Inverse restores
// the original content.
//
// # Entries
//
// An Entry is one undo step. It holds the operations in the order they were
// applied, along with the cursor state before the first operation and after
// the last one:
//
//	h := history.New(history.WithMaxEntries(1000))
//	h.Record(history.Entry{Ops: ops, Before: before, After: after, Time: now})
//
//	if e, ok := h.Undo(); ok {
//	    // apply e.Ops inverted, in reverse order, then restore e.Before
//	}
//
// # Coalescing
//
// Consecutive keystroke-sized edits merge into the newest entry so a burst of
// typing undoes as a unit. An edit merges only when all of these hold:
//
//   - the history has not been sealed since the last record
//   - both entries are coalescable and of the same kind (insert or delete)
//   - the cursor state left by the previous edit is the one the new edit started from
//   - every new operation continues the matching operation of the previous edit
//   - the gap since the previous edit is within the coalesce window
//   - the entry has absorbed fewer than MaxCoalesce edits
//
// With WithWordBoundaries, typing the first character of a new word after
// whitespace also starts a new entry.
//
// # Groups
//
// Several edits can be collected into one entry:
//
//	h.BeginGroup("Replace All")
//	// ... record edits ...
//	h.EndGroup()
//
// Nested BeginGroup calls are counted; only the outermost EndGroup commits.
//
// # Bounds
//
// The undo stack holds at most MaxEntries entries. Older entries are evicted
// from the bottom, which shortens the undo horizon but never touches the
// document.
package history
