// Package script runs sandboxed Lua batch-edit scripts against an engine.
//
// A script sees a global table named buf whose functions call the engine's
// façade. Offsets are zero-based byte offsets, lines are one-based, and
// columns are zero-based bytes within the line. Every run is one undo step:
// a script that fails leaves the document as it found it.
//
//	local n = buf.line_count()
//	for i = 1, n do
//	  local s = buf.line_range(i)
//	  buf.insert(s, "> ")
//	end
//
// Only the base, table, string and math libraries are available. dofile,
// loadfile, load and loadstring are removed, and print writes to the
// runner's output.
package script
