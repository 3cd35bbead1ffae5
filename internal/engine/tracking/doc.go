// Package tracking lets background readers catch up with the engine.
//
// The engine records every committed operation in a Log, tagged with the
// generation it produced. A reader holding an older snapshot asks for the
// changes since its generation:
//
//	changes, ok := log.Since(gen)
//	if !ok {
//	    // too far behind, rescan the current snapshot
//	}
//
// The log has a single writer (the engine) and any number of readers. Writes
// never modify data a reader can already see, and each write publishes a new
// view through an atomic pointer, so readers take no locks.
//
// The package also computes line diffs between two documents using the
// Myers algorithm, for tools that want to show what a session changed:
//
//	hunks := tracking.Diff(before, after, tracking.DefaultDiffOptions())
//	fmt.Print(tracking.Unified(hunks, "a/file", "b/file"))
package tracking
