package rope

import (
	"strings"
	"unicode/utf8"
)

// Chunk size constants control the granularity of text storage.
const (
	// MinChunkSize is the size below which a chunk is merged with new text.
	MinChunkSize = 128

	// MaxChunkSize is the maximum bytes per chunk before splitting.
	MaxChunkSize = 256

	// TargetChunkSize is the preferred chunk size when building.
	TargetChunkSize = (MinChunkSize + MaxChunkSize) / 2
)

// Chunk is a bounded string stored in the tree. Chunks are immutable.
type Chunk struct {
	data  string
	lines int
}

// NewChunk creates a chunk from a string.
func NewChunk(s string) Chunk {
	return Chunk{data: s, lines: strings.Count(s, "\n")}
}

// String returns the chunk's text.
func (c Chunk) String() string { return c.data }

func (c Chunk) Len() int      { return len(c.data) }
func (c Chunk) Newlines() int { return c.lines }

func (c Chunk) Split(at int) (Chunk, Chunk) {
	left := NewChunk(c.data[:at])
	return left, Chunk{data: c.data[at:], lines: c.lines - left.lines}
}

func (c Chunk) AppendTo(sb *strings.Builder, from, to int) {
	sb.WriteString(c.data[from:to])
}

func (c Chunk) ByteAt(i int) byte { return c.data[i] }

func (c Chunk) CountNewlines(to int) int {
	if to == len(c.data) {
		return c.lines
	}
	return strings.Count(c.data[:to], "\n")
}

func (c Chunk) NthNewline(n int) int {
	if n <= 0 || n > c.lines {
		return -1
	}
	idx := -1
	for ; n > 0; n-- {
		idx += strings.IndexByte(c.data[idx+1:], '\n') + 1
	}
	return idx
}

// splitIntoChunks splits a string into chunks of appropriate size.
func splitIntoChunks(s string) []Chunk {
	if len(s) == 0 {
		return nil
	}
	if len(s) <= MaxChunkSize {
		return []Chunk{NewChunk(s)}
	}

	var chunks []Chunk
	remaining := s
	for len(remaining) > 0 {
		if len(remaining) <= MaxChunkSize {
			chunks = append(chunks, NewChunk(remaining))
			break
		}
		split := findUTF8Boundary(remaining, TargetChunkSize)
		chunks = append(chunks, NewChunk(remaining[:split]))
		remaining = remaining[split:]
	}
	return chunks
}

// findUTF8Boundary finds a split point near target, preferring the byte
// after a newline and never splitting a scalar value.
func findUTF8Boundary(s string, target int) int {
	if target >= len(s) {
		return len(s)
	}
	if target <= 0 {
		return 0
	}

	lo := max(target-MinChunkSize/4, 1)
	hi := min(target+MinChunkSize/4, len(s))
	for i := target; i < hi; i++ {
		if s[i] == '\n' {
			return i + 1
		}
	}
	for i := target - 1; i >= lo; i-- {
		if s[i] == '\n' {
			return i + 1
		}
	}

	pos := target
	for pos > 0 && !utf8.RuneStart(s[pos]) {
		pos--
	}
	if pos == 0 {
		pos = target
		for pos < len(s) && !utf8.RuneStart(s[pos]) {
			pos++
		}
	}
	return pos
}
