// Package search finds text in engine snapshots.
//
// Searches never touch the live document. A Searcher takes the latest
// snapshot from its Source, scans it line by line, and compares the
// snapshot's generation with the source's current generation as it goes.
// When the document moves on mid-scan the search restarts on a fresh
// snapshot, so a Result always describes exactly one generation.
//
// # Query Modes
//
//   - ModeLiteral matches the query text. Case-insensitive literal matching
//     uses full Unicode case folding, so "STRASSE" finds "straße".
//   - ModeRegex compiles the query as a regular expression.
//   - ModeGlob matches whole lines against a wildcard pattern using * and ?.
//
// WholeWord restricts literal and regex matches to word boundaries.
//
// # Concurrency
//
// A Searcher is safe for concurrent use. Each Search call compiles its own
// matcher and reads only immutable snapshots.
package search
