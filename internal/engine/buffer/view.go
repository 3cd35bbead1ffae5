package buffer

import (
	"fmt"
	"unicode/utf8"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// ByteOffset is a byte position in the document.
type ByteOffset = text.ByteOffset

// PointUTF16 is a line and column where the column is measured in UTF-16
// code units, as used by LSP.
type PointUTF16 struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the point.
func (p PointUTF16) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// View adds line queries and position conversion to a text.Reader.
// It is shared by Buffer and Snapshot.
type View struct {
	text.Reader
	tabWidth int
}

// TabWidth returns the tab width used for display columns.
func (v View) TabWidth() int {
	return v.tabWidth
}

// IsEmpty returns true if the document is empty.
func (v View) IsEmpty() bool {
	return v.Len() == 0
}

// LineRange returns the range of line, excluding its newline.
func (v View) LineRange(line int) (text.Range, error) {
	start, err := v.OffsetOfLine(line)
	if err != nil {
		return text.Range{}, err
	}
	if line+1 >= v.LineCount() {
		return text.NewRange(start, v.Len()), nil
	}
	next, err := v.OffsetOfLine(line + 1)
	if err != nil {
		return text.Range{}, err
	}
	return text.NewRange(start, next-1), nil
}

// LineText returns the text of line without its newline.
func (v View) LineText(line int) (string, error) {
	r, err := v.LineRange(line)
	if err != nil {
		return "", err
	}
	return v.Slice(r)
}

// LineLen returns the byte length of line without its newline.
func (v View) LineLen(line int) (int, error) {
	r, err := v.LineRange(line)
	if err != nil {
		return 0, err
	}
	return int(r.Len()), nil
}

// RuneAt returns the scalar value starting at offset and its size.
func (v View) RuneAt(offset ByteOffset) (rune, int, error) {
	if offset >= v.Len() {
		return utf8.RuneError, 0, fmt.Errorf("rune at %d: %w", offset, text.ErrOutOfRange)
	}
	if err := text.CheckOffset(v, offset); err != nil {
		return utf8.RuneError, 0, err
	}
	end := min(offset+utf8.UTFMax, v.Len())
	s, err := v.sliceLoose(offset, end)
	if err != nil {
		return utf8.RuneError, 0, err
	}
	r, size := utf8.DecodeRuneInString(s)
	return r, size, nil
}

// OffsetToPoint converts an offset to a line and byte column.
func (v View) OffsetToPoint(offset ByteOffset) (text.Point, error) {
	line, err := v.LineOfOffset(offset)
	if err != nil {
		return text.Point{}, err
	}
	start, err := v.OffsetOfLine(line)
	if err != nil {
		return text.Point{}, err
	}
	return text.Point{Line: line, Column: int(offset - start)}, nil
}

// PointToOffset converts a line and byte column to an offset. A column past
// the end of the line is out of range.
func (v View) PointToOffset(p text.Point) (ByteOffset, error) {
	r, err := v.LineRange(p.Line)
	if err != nil {
		return 0, err
	}
	if p.Column < 0 || ByteOffset(p.Column) > r.Len() {
		return 0, fmt.Errorf("column %d not in [0, %d] on line %d: %w", p.Column, r.Len(), p.Line, text.ErrOutOfRange)
	}
	offset := r.Start + ByteOffset(p.Column)
	if err := text.CheckOffset(v, offset); err != nil {
		return 0, err
	}
	return offset, nil
}

// OffsetToPointUTF16 converts an offset to a line and UTF-16 column.
func (v View) OffsetToPointUTF16(offset ByteOffset) (PointUTF16, error) {
	p, err := v.OffsetToPoint(offset)
	if err != nil {
		return PointUTF16{}, err
	}
	prefix, err := v.Slice(text.NewRange(offset-ByteOffset(p.Column), offset))
	if err != nil {
		return PointUTF16{}, err
	}
	return PointUTF16{Line: p.Line, Column: utf16ColumnFromString(prefix)}, nil
}

// PointUTF16ToOffset converts a line and UTF-16 column to an offset.
// A column inside a surrogate pair resolves to the start of its scalar.
func (v View) PointUTF16ToOffset(p PointUTF16) (ByteOffset, error) {
	line, err := v.LineText(p.Line)
	if err != nil {
		return 0, err
	}
	if p.Column < 0 || p.Column > utf16ColumnFromString(line) {
		return 0, fmt.Errorf("utf-16 column %d on line %d: %w", p.Column, p.Line, text.ErrOutOfRange)
	}
	start, _ := v.OffsetOfLine(p.Line)
	return start + ByteOffset(byteOffsetFromUTF16Column(line, p.Column)), nil
}

// sliceLoose reads [start, end) without requiring end on a scalar boundary.
func (v View) sliceLoose(start, end ByteOffset) (string, error) {
	buf := make([]byte, 0, end-start)
	for off := start; off < end; off++ {
		b, err := v.ByteAt(off)
		if err != nil {
			return "", err
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// utf16ColumnFromString counts UTF-16 code units in a string.
func utf16ColumnFromString(s string) int {
	col := 0
	for _, r := range s {
		if r >= 0x10000 {
			col += 2 // Surrogate pair (characters outside BMP)
		} else {
			col++
		}
	}
	return col
}

// byteOffsetFromUTF16Column converts a UTF-16 column to a byte offset
// within a line.
func byteOffsetFromUTF16Column(line string, utf16Col int) int {
	col := 0
	byteOffset := 0
	for _, r := range line {
		width := 1
		if r >= 0x10000 {
			width = 2
		}
		if col+width > utf16Col {
			break
		}
		col += width
		byteOffset += utf8.RuneLen(r)
	}
	return byteOffset
}
