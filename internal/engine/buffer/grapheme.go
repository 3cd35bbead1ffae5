package buffer

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// graphemeWindow is the initial number of bytes scanned around an offset to
// find a cluster boundary. It doubles until the cluster fits or the line
// is exhausted.
const graphemeWindow = 64

// NextGrapheme returns the offset just past the grapheme cluster starting
// at offset. At the end of the document it returns offset.
func (v View) NextGrapheme(offset ByteOffset) (ByteOffset, error) {
	if err := text.CheckOffset(v, offset); err != nil {
		return 0, err
	}
	if offset == v.Len() {
		return offset, nil
	}

	// A cluster never spans past the next newline, except "\r\n" which
	// ends at it.
	line, _ := v.LineOfOffset(offset)
	lineEnd := v.Len()
	if line+1 < v.LineCount() {
		lineEnd, _ = v.OffsetOfLine(line + 1)
	}

	for w := ByteOffset(graphemeWindow); ; w *= 2 {
		end := lineEnd
		if offset+w < lineEnd {
			end = v.runeStartAfter(offset + w)
		}
		s, err := v.Slice(text.NewRange(offset, end))
		if err != nil {
			return 0, err
		}
		g := uniseg.NewGraphemes(s)
		if !g.Next() {
			return offset, nil
		}
		// The boundary is only certain once the next character was seen.
		if _, to := g.Positions(); to < len(s) || end == lineEnd {
			return offset + ByteOffset(to), nil
		}
	}
}

// PrevGrapheme returns the offset of the start of the grapheme cluster
// ending at offset. At the start of the document it returns 0.
func (v View) PrevGrapheme(offset ByteOffset) (ByteOffset, error) {
	if err := text.CheckOffset(v, offset); err != nil {
		return 0, err
	}
	if offset == 0 {
		return 0, nil
	}

	line, _ := v.LineOfOffset(offset - 1)
	lineStart, _ := v.OffsetOfLine(line)

	for w := ByteOffset(graphemeWindow); ; w *= 2 {
		// Segmentation has to begin on a known boundary, or regional
		// indicator pairs and emoji sequences are split wrongly.
		start := lineStart
		if offset-w > lineStart {
			var ok bool
			if start, ok = v.asciiBoundary(offset-w, offset-1); !ok {
				continue
			}
		}
		s, err := v.Slice(text.NewRange(start, offset))
		if err != nil {
			return 0, err
		}
		g := uniseg.NewGraphemes(s)
		last := 0
		for g.Next() {
			from, _ := g.Positions()
			last = from
		}
		return start + ByteOffset(last), nil
	}
}

// asciiBoundary finds the greatest p in (lo, hi] with ASCII bytes at p-1
// and p, the first not a carriage return. Every such p is a grapheme
// boundary that does not depend on earlier text.
func (v View) asciiBoundary(lo, hi ByteOffset) (ByteOffset, bool) {
	for p := hi; p > lo; p-- {
		cur, err := v.ByteAt(p)
		if err != nil || cur >= utf8.RuneSelf {
			continue
		}
		prev, err := v.ByteAt(p - 1)
		if err == nil && prev < utf8.RuneSelf && prev != '\r' {
			return p, true
		}
	}
	return 0, false
}

// runeStartAfter returns the first scalar boundary at or after offset.
func (v View) runeStartAfter(offset ByteOffset) ByteOffset {
	for offset < v.Len() {
		b, err := v.ByteAt(offset)
		if err != nil || utf8.RuneStart(b) {
			break
		}
		offset++
	}
	return offset
}

// VisualColumn returns the display column of offset on its line, counting
// wide characters as two cells and expanding tabs to the tab width.
func (v View) VisualColumn(offset ByteOffset) (int, error) {
	p, err := v.OffsetToPoint(offset)
	if err != nil {
		return 0, err
	}
	prefix, err := v.Slice(text.NewRange(offset-ByteOffset(p.Column), offset))
	if err != nil {
		return 0, err
	}
	col := 0
	g := uniseg.NewGraphemes(prefix)
	for g.Next() {
		col += cellWidth(g.Str(), col, v.tabWidth)
	}
	return col, nil
}

// OffsetAtVisualColumn returns the offset on line whose display column is
// the largest not exceeding col. Columns past the line end map to the end.
func (v View) OffsetAtVisualColumn(line, col int) (ByteOffset, error) {
	r, err := v.LineRange(line)
	if err != nil {
		return 0, err
	}
	s, err := v.Slice(r)
	if err != nil {
		return 0, err
	}
	visual := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := cellWidth(g.Str(), visual, v.tabWidth)
		if visual+w > col {
			from, _ := g.Positions()
			return r.Start + ByteOffset(from), nil
		}
		visual += w
	}
	return r.End, nil
}

func cellWidth(cluster string, visualCol, tabWidth int) int {
	if cluster == "\t" {
		return tabWidth - visualCol%tabWidth
	}
	w := runewidth.StringWidth(cluster)
	if w <= 0 {
		w = uniseg.StringWidth(cluster)
	}
	return max(w, 0)
}
