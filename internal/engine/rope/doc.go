// Package rope provides a chunked rope document backend.
//
// Text is held in bounded, immutable string chunks stored in a sumtree. An
// insert or delete rewrites only the chunks it touches and the O(log n)
// nodes above them; everything else is shared with earlier versions, which
// makes snapshots free.
//
// Chunks are kept between MinChunkSize and MaxChunkSize where possible and
// prefer to end after a newline, so that most line lookups resolve from the
// tree summaries alone.
//
// Basic usage:
//
//	r := rope.FromString("hello world")
//	_ = r.Insert(5, ",")                   // "hello, world"
//	_, _ = r.Delete(text.NewRange(0, 7))   // "world"
//	snap := r.Snapshot()                   // immutable view
package rope
