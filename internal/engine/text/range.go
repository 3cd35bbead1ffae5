package text

import "fmt"

// ByteOffset is a byte position in a document.
type ByteOffset = int64

// Range represents a byte range in a document.
// Start is inclusive, End is exclusive: [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset
}

// NewRange creates a Range from start and end offsets.
func NewRange(start, end ByteOffset) Range {
	return Range{Start: start, End: end}
}

// Empty returns the empty range positioned at offset.
func Empty(offset ByteOffset) Range {
	return Range{Start: offset, End: offset}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len returns the length of the range in bytes.
func (r Range) Len() ByteOffset {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsValid returns true if Start <= End and Start is not negative.
func (r Range) IsValid() bool {
	return r.Start >= 0 && r.Start <= r.End
}

// Contains returns true if offset is within the range.
func (r Range) Contains(offset ByteOffset) bool {
	return offset >= r.Start && offset < r.End
}

// Overlaps returns true if this range shares at least one byte with other.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Touches returns true if the ranges overlap or are adjacent.
func (r Range) Touches(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Union returns the smallest range that contains both ranges.
func (r Range) Union(other Range) Range {
	return Range{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

// Point is a zero-based line and byte column.
type Point struct {
	Line   int
	Column int
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	}
	return 0
}
