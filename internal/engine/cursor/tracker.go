package cursor

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// DefaultMaxCursors is the default limit on simultaneous cursors.
const DefaultMaxCursors = 10000

// ID identifies a cursor for its whole lifetime. IDs are never reused.
type ID uint64

// Cursor is a selection with a stable identity.
type Cursor struct {
	ID ID
	Selection
}

// Offset returns the caret position (the head).
func (c Cursor) Offset() ByteOffset {
	return c.Head
}

// State is a saved cursor configuration, used by undo and redo.
type State struct {
	Cursors []Cursor
	Primary ID
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxCursors limits the number of simultaneous cursors.
func WithMaxCursors(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxCursors = n
		}
	}
}

// Tracker owns every cursor of a document. There is always at least one
// cursor, and every anchor and head lies in [0, Len()] of the document the
// tracker was last told about.
type Tracker struct {
	cursors    []Cursor // creation order
	primary    ID
	nextID     ID
	length     ByteOffset
	maxCursors int
}

// NewTracker creates a tracker for a document of the given length with a
// single caret at offset 0.
func NewTracker(length ByteOffset, opts ...Option) *Tracker {
	t := &Tracker{maxCursors: DefaultMaxCursors}
	for _, opt := range opts {
		opt(t)
	}
	t.Reset(length)
	return t
}

// Reset drops every cursor and starts over with one caret at 0.
func (t *Tracker) Reset(length ByteOffset) {
	t.length = length
	t.nextID++
	t.cursors = []Cursor{{ID: t.nextID}}
	t.primary = t.nextID
}

// DocLen returns the document length the tracker validates against.
func (t *Tracker) DocLen() ByteOffset {
	return t.length
}

// Count returns the number of cursors.
func (t *Tracker) Count() int {
	return len(t.cursors)
}

// MaxCursors returns the cursor limit.
func (t *Tracker) MaxCursors() int {
	return t.maxCursors
}

func (t *Tracker) checkOffset(offset ByteOffset) error {
	if offset < 0 || offset > t.length {
		return fmt.Errorf("cursor offset %d not in [0, %d]: %w", offset, t.length, text.ErrOutOfRange)
	}
	return nil
}

func (t *Tracker) index(id ID) (int, error) {
	for i, c := range t.cursors {
		if c.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no cursor with id %d: %w", id, text.ErrInvalidOperation)
}

// Add creates a caret at offset and returns its ID.
func (t *Tracker) Add(offset ByteOffset) (ID, error) {
	return t.AddSelection(Caret(offset))
}

// AddSelection creates a cursor with the given selection.
func (t *Tracker) AddSelection(sel Selection) (ID, error) {
	if err := t.checkOffset(sel.Anchor); err != nil {
		return 0, err
	}
	if err := t.checkOffset(sel.Head); err != nil {
		return 0, err
	}
	if len(t.cursors) >= t.maxCursors {
		return 0, fmt.Errorf("%d cursors: %w", t.maxCursors, text.ErrCapacityExceeded)
	}
	t.nextID++
	t.cursors = append(t.cursors, Cursor{ID: t.nextID, Selection: sel})
	return t.nextID, nil
}

// Remove deletes a cursor. Removing the last cursor is an invalid operation.
func (t *Tracker) Remove(id ID) error {
	i, err := t.index(id)
	if err != nil {
		return err
	}
	if len(t.cursors) == 1 {
		return fmt.Errorf("cannot remove the last cursor: %w", text.ErrInvalidOperation)
	}
	t.cursors = slices.Delete(t.cursors, i, i+1)
	if t.primary == id {
		t.primary = t.cursors[0].ID
	}
	return nil
}

// MoveTo collapses a cursor to a caret at offset.
func (t *Tracker) MoveTo(id ID, offset ByteOffset) error {
	return t.SetSelection(id, offset, offset)
}

// SetSelection sets a cursor's anchor and head.
func (t *Tracker) SetSelection(id ID, anchor, head ByteOffset) error {
	i, err := t.index(id)
	if err != nil {
		return err
	}
	if err := t.checkOffset(anchor); err != nil {
		return err
	}
	if err := t.checkOffset(head); err != nil {
		return err
	}
	t.cursors[i].Selection = NewSelection(anchor, head)
	return nil
}

// Get returns the cursor with the given ID.
func (t *Tracker) Get(id ID) (Cursor, bool) {
	i, err := t.index(id)
	if err != nil {
		return Cursor{}, false
	}
	return t.cursors[i], true
}

// Primary returns the primary cursor.
func (t *Tracker) Primary() Cursor {
	c, _ := t.Get(t.primary)
	return c
}

// SetPrimary makes id the primary cursor.
func (t *Tracker) SetPrimary(id ID) error {
	if _, err := t.index(id); err != nil {
		return err
	}
	t.primary = id
	return nil
}

// All returns a copy of all cursors in creation order.
func (t *Tracker) All() []Cursor {
	return slices.Clone(t.cursors)
}

// Sorted returns a copy of all cursors ordered by position, ties broken by
// creation order.
func (t *Tracker) Sorted() []Cursor {
	out := slices.Clone(t.cursors)
	slices.SortStableFunc(out, func(a, b Cursor) int {
		if c := cmp.Compare(a.Start(), b.Start()); c != 0 {
			return c
		}
		return cmp.Compare(a.End(), b.End())
	})
	return out
}

// Rebase maps every cursor through the replacement of r by n bytes and
// updates the tracked document length.
func (t *Tracker) Rebase(r text.Range, n ByteOffset) {
	for i := range t.cursors {
		t.cursors[i].Selection = t.cursors[i].Selection.Rebase(r, n)
	}
	t.length += n - r.Len()
}

// Merge combines cursors whose selections overlap or whose carets coincide.
// The earliest created cursor of each group survives. It returns the number
// of cursors removed.
func (t *Tracker) Merge() int {
	sorted := t.Sorted()
	keep := make([]Cursor, 0, len(sorted))
	for _, c := range sorted {
		if n := len(keep); n > 0 && mergeable(keep[n-1].Selection, c.Selection) {
			last := &keep[n-1]
			survivor := min(last.ID, c.ID)
			if t.primary == last.ID || t.primary == c.ID {
				t.primary = survivor
			}
			last.ID = survivor
			last.Selection = last.Selection.Merge(c.Selection)
			continue
		}
		keep = append(keep, c)
	}

	removed := len(t.cursors) - len(keep)
	slices.SortFunc(keep, func(a, b Cursor) int { return cmp.Compare(a.ID, b.ID) })
	t.cursors = keep
	return removed
}

func mergeable(a, b Selection) bool {
	if a.Overlaps(b) {
		return true
	}
	// Identical ranges, including coinciding carets.
	return a.Start() == b.Start() && a.End() == b.End()
}

// State captures the current cursors for later restoration.
func (t *Tracker) State() State {
	return State{Cursors: t.All(), Primary: t.primary}
}

// Restore replaces the cursors with a saved state. Offsets are validated
// against the current document length.
func (t *Tracker) Restore(s State) error {
	if len(s.Cursors) == 0 {
		return fmt.Errorf("empty cursor state: %w", text.ErrInvalidOperation)
	}
	for _, c := range s.Cursors {
		if err := t.checkOffset(c.Anchor); err != nil {
			return err
		}
		if err := t.checkOffset(c.Head); err != nil {
			return err
		}
		t.nextID = max(t.nextID, c.ID)
	}
	t.cursors = slices.Clone(s.Cursors)
	t.primary = s.Primary
	if _, err := t.index(t.primary); err != nil {
		t.primary = t.cursors[0].ID
	}
	return nil
}
