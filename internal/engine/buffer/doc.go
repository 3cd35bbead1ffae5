// Package buffer wraps a document backend with the editor-facing queries the
// rest of the core needs.
//
// The buffer package provides:
//
//   - Backend selection at construction time (piece table or rope)
//   - Size limits, reported as text.ErrCapacityExceeded
//   - Line queries and offset/point conversion, including UTF-16 columns
//   - Grapheme cluster boundaries and display columns for motion and rendering
//   - Immutable snapshots tagged with a generation for background readers
//
// A Buffer is owned by a single mutator and is not synchronized. Snapshots
// are immutable and may be read from any goroutine.
//
// Basic usage:
//
//	buf, _ := buffer.NewFromString("Hello, World!")
//	_ = buf.Insert(7, "Beautiful ")           // "Hello, Beautiful World!"
//	_, _ = buf.Delete(text.NewRange(0, 7))     // "Beautiful World!"
//
//	snap := buf.Snapshot(1)
//	go func() {
//	    line, _ := snap.LineText(0)
//	    // ...
//	}()
//
// Only '\n' separates lines. A '\r' before it is ordinary line content;
// line endings are preserved byte for byte.
package buffer
