// Package engine provides the text-editing core for arcane.
//
// The engine package is the mutation facade. It owns one document, the
// cursors on it and its edit history, and exposes a single mutation path:
// Apply. Everything else is a query.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - text: the store contract, ranges and the error kinds
//   - sumtree: balanced B+ tree summarized by byte and newline counts
//   - piece: piece table over an original and an append-only add buffer (default)
//   - rope: chunked rope, selectable with WithBackend
//   - buffer: validation, line and column conversion, grapheme motion, snapshots
//   - cursor: cursor tracking and the rebase rule
//   - history: undo/redo entries with keystroke coalescing
//   - tracking: the change log behind ChangesSince, and line diffs
//
// # Commands
//
// Every change is a Command value passed to Apply:
//
//	e, _ := engine.New(engine.WithContent("Hello, World!"))
//
//	e.Apply(engine.Replace{Range: engine.Range{Start: 7, End: 12}, Text: "Go"})
//	e.Text() // "Hello, Go!"
//
//	e.Apply(engine.Undo{})
//	e.Text() // "Hello, World!"
//
// Apply validates everything before it changes anything. A rejected command
// returns an error matching ErrOutOfRange, ErrInvalidOperation or
// ErrCapacityExceeded and leaves the document, cursors, history and
// generation untouched. Offsets are never clamped.
//
// # Cursors
//
// There is always at least one cursor. After every edit each cursor offset p
// is rebased through the replaced range [start, end) and the inserted length
// n: offsets before start stay put, offsets inside the range move to
// start+n, and offsets at or after end shift by the net change.
//
// Commands such as Type and DeleteBackward act at every cursor, highest
// offset first, so the lower offsets stay valid while the edit is applied:
//
//	e, _ := engine.New(engine.WithContent("foo bar foo"))
//	e.AddCursor(8)
//	e.Type("X") // "Xfoo bar Xfoo"
//
// # Undo/Redo
//
// Each command that changes text records one history entry. Quick
// keystrokes (Insert, Type, DeleteBackward and DeleteForward) that continue
// one another merge into the newest entry while they arrive within the
// coalesce window. SealHistory, any cursor movement, a pause, or a change of
// edit kind starts a new entry.
//
// Group collects several commands into one entry:
//
//	e.Group("Rename", func() error {
//	    if err := e.Replace(r1, "name"); err != nil {
//	        return err
//	    }
//	    return e.Replace(r2, "name")
//	})
//
// Undo and redo with empty stacks are no-ops, not errors.
//
// # Concurrency
//
// The engine takes no locks. Apply and the query methods belong to one
// goroutine, typically the editor's event loop. Every committed text change
// bumps Generation and publishes an immutable Snapshot, both of which are
// safe to read from any goroutine:
//
//	snap := e.Snapshot()
//	go func() {
//	    results := scan(snap)
//	    if e.Generation() != snap.Generation() {
//	        // stale: restart with e.Snapshot() or catch up via ChangesSince
//	    }
//	    _ = results
//	}()
package engine
