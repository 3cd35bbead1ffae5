package piece

import (
	"unicode/utf8"

	"github.com/vivax3794/arcane/internal/engine/sumtree"
	"github.com/vivax3794/arcane/internal/engine/text"
)

// MaxSpanSize bounds the bytes covered by one span. Longer runs are cut at
// scalar boundaries so that line lookups inside a span stay cheap.
const MaxSpanSize = 4096

// Table is a piece-table document. It is not safe for concurrent mutation;
// use Snapshot to hand content to other goroutines.
type Table struct {
	sumtree.Tree[piece]

	original []byte
	add      []byte
}

var (
	_ text.Store  = (*Table)(nil)
	_ text.Reader = sumtree.Tree[piece]{}
)

// New creates a table holding content as its original buffer.
// Content is not validated; callers check it with text.CheckText.
func New(content string) *Table {
	t := &Table{original: []byte(content)}
	t.Tree = sumtree.Build(cut(Original, t.original, 0, len(t.original))...)
	return t
}

// Insert splices s into the document at offset.
func (t *Table) Insert(offset text.ByteOffset, s string) error {
	if err := text.CheckText(s); err != nil {
		return err
	}
	if err := text.CheckOffset(t.Tree, offset); err != nil {
		return err
	}
	if s == "" {
		return nil
	}

	if t.extend(offset, s) {
		return nil
	}

	begin := len(t.add)
	t.add = append(t.add, s...)
	t.Tree = t.Splice(text.Empty(offset), cut(Added, t.add, begin, len(t.add))...)
	return nil
}

// extend appends s to the span ending at offset when that span is the tail
// of the add buffer.
func (t *Table) extend(offset text.ByteOffset, s string) bool {
	if offset == 0 {
		return false
	}
	p, start, ok := t.Locate(offset - 1)
	if !ok || p.src != Added {
		return false
	}
	end := start + text.ByteOffset(p.Len())
	if end != offset || p.start+p.Len() != len(t.add) || p.Len()+len(s) > MaxSpanSize {
		return false
	}

	t.add = append(t.add, s...)
	grown := newPiece(Added, p.start, t.add[p.start:])
	t.Tree = t.Splice(text.NewRange(start, end), grown)
	return true
}

// Delete removes r and returns the removed text.
func (t *Table) Delete(r text.Range) (string, error) {
	removed, err := t.Slice(r)
	if err != nil {
		return "", err
	}
	if r.IsEmpty() {
		return "", nil
	}
	t.Tree = t.Splice(r)
	return removed, nil
}

// Snapshot returns an immutable view of the current content.
func (t *Table) Snapshot() text.Reader {
	return t.Tree
}

// Spans returns the live spans in document order.
func (t *Table) Spans() []Span {
	spans := make([]Span, 0, t.Summary().Items)
	for p := range t.All() {
		spans = append(spans, p.span())
	}
	return spans
}

// SpanText returns the bytes a span refers to.
func (t *Table) SpanText(s Span) (string, error) {
	buf := t.original
	if s.Source == Added {
		buf = t.add
	}
	if s.Start < 0 || s.Length < 0 || s.Start+s.Length > len(buf) {
		return "", text.ErrOutOfRange
	}
	return string(buf[s.Start : s.Start+s.Length]), nil
}

// Stats describes the table's memory shape.
type Stats struct {
	Spans         int
	Height        int
	OriginalBytes int
	AddedBytes    int
}

// Stats returns the current memory shape.
func (t *Table) Stats() Stats {
	return Stats{
		Spans:         t.Summary().Items,
		Height:        t.Height(),
		OriginalBytes: len(t.original),
		AddedBytes:    len(t.add),
	}
}

// cut turns buf[from:to) into spans of at most MaxSpanSize bytes, splitting
// only at scalar boundaries.
func cut(src Source, buf []byte, from, to int) []piece {
	var pieces []piece
	for from < to {
		end := min(from+MaxSpanSize, to)
		for end < to && end > from && !utf8.RuneStart(buf[end]) {
			end--
		}
		if end == from {
			end = min(from+MaxSpanSize, to)
		}
		pieces = append(pieces, newPiece(src, from, buf[from:end]))
		from = end
	}
	return pieces
}
