package cursor

import (
	"fmt"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// ByteOffset is a byte position in the document.
type ByteOffset = text.ByteOffset

// Selection represents a range of selected text.
// Anchor is where the selection started; Head is the current cursor position.
// When Anchor == Head, this represents a caret with no selection.
type Selection struct {
	Anchor ByteOffset
	Head   ByteOffset
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head ByteOffset) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// Caret creates a selection with no extent at offset.
func Caret(offset ByteOffset) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Len returns the length of the selection in bytes.
func (s Selection) Len() ByteOffset {
	return s.End() - s.Start()
}

// Range returns the selection as a range (always Start <= End).
func (s Selection) Range() text.Range {
	return text.Range{Start: s.Start(), End: s.End()}
}

// Start returns the lower bound of the selection.
func (s Selection) Start() ByteOffset {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() ByteOffset {
	return max(s.Anchor, s.Head)
}

// IsBackward returns true if the selection extends backward (head < anchor).
func (s Selection) IsBackward() bool {
	return s.Head < s.Anchor
}

// Extend returns the selection with its head moved to offset.
func (s Selection) Extend(offset ByteOffset) Selection {
	return Selection{Anchor: s.Anchor, Head: offset}
}

// Collapse collapses the selection to a caret at the head.
func (s Selection) Collapse() Selection {
	return Caret(s.Head)
}

// Overlaps returns true if this selection shares at least one byte with other.
func (s Selection) Overlaps(other Selection) bool {
	return s.Start() < other.End() && other.Start() < s.End()
}

// Merge returns a selection covering both selections. Direction follows
// the receiver.
func (s Selection) Merge(other Selection) Selection {
	start := min(s.Start(), other.Start())
	end := max(s.End(), other.End())
	if s.IsBackward() {
		return Selection{Anchor: end, Head: start}
	}
	return Selection{Anchor: start, Head: end}
}

// Rebase maps the selection through the replacement of r by n bytes.
func (s Selection) Rebase(r text.Range, n ByteOffset) Selection {
	return Selection{
		Anchor: RebaseOffset(s.Anchor, r, n),
		Head:   RebaseOffset(s.Head, r, n),
	}
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Caret(%d)", s.Head)
	}
	dir := "→"
	if s.IsBackward() {
		dir = "←"
	}
	return fmt.Sprintf("Selection(%d%s%d)", s.Anchor, dir, s.Head)
}

// RebaseOffset maps offset through the replacement of r by n bytes.
func RebaseOffset(offset ByteOffset, r text.Range, n ByteOffset) ByteOffset {
	switch {
	case offset < r.Start:
		return offset
	case offset < r.End:
		return r.Start + n
	default:
		return offset - r.Len() + n
	}
}
