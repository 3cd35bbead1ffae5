package piece

import (
	"bytes"
	"strings"
)

// Source identifies the buffer a span reads from.
type Source uint8

const (
	// Original is the content the table was created with.
	Original Source = iota

	// Added is the append-only buffer of inserted text.
	Added
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case Original:
		return "original"
	case Added:
		return "added"
	default:
		return "unknown"
	}
}

// Span describes one live run of text.
type Span struct {
	Source Source
	Start  int
	Length int
}

// piece is the tree item. data is a capacity-limited view of the source
// buffer covering [start, start+len(data)).
type piece struct {
	src   Source
	start int
	data  []byte
	lines int
}

func newPiece(src Source, start int, data []byte) piece {
	return piece{
		src:   src,
		start: start,
		data:  data[:len(data):len(data)],
		lines: bytes.Count(data, newline),
	}
}

var newline = []byte{'\n'}

func (p piece) Len() int      { return len(p.data) }
func (p piece) Newlines() int { return p.lines }

func (p piece) Split(at int) (piece, piece) {
	left := newPiece(p.src, p.start, p.data[:at])
	right := piece{
		src:   p.src,
		start: p.start + at,
		data:  p.data[at:],
		lines: p.lines - left.lines,
	}
	return left, right
}

func (p piece) AppendTo(sb *strings.Builder, from, to int) {
	sb.Write(p.data[from:to])
}

func (p piece) ByteAt(i int) byte {
	return p.data[i]
}

func (p piece) CountNewlines(to int) int {
	if to == len(p.data) {
		return p.lines
	}
	return bytes.Count(p.data[:to], newline)
}

func (p piece) NthNewline(n int) int {
	if n <= 0 || n > p.lines {
		return -1
	}
	idx := -1
	for ; n > 0; n-- {
		idx += bytes.IndexByte(p.data[idx+1:], '\n') + 1
	}
	return idx
}

func (p piece) span() Span {
	return Span{Source: p.src, Start: p.start, Length: len(p.data)}
}
