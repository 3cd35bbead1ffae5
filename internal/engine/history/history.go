package history

import (
	"slices"
	"time"
)

// History holds the undo and redo stacks.
//
// History is not safe for concurrent use; it is owned by the single mutator
// that drives the engine.
type History struct {
	undo []*Entry
	redo []*Entry

	maxEntries     int
	window         time.Duration
	maxCoalesce    int
	wordBoundaries bool

	sealed  bool
	evicted int

	group      *Entry
	groupDepth int
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{
		maxEntries:  DefaultMaxEntries,
		window:      DefaultCoalesceWindow,
		maxCoalesce: DefaultMaxCoalesce,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record adds an applied edit to the history. It returns true when the edit
// was merged into an existing entry or an open group instead of starting a
// new one. Entries without operations are ignored.
//
// Recording always clears the redo stack.
func (h *History) Record(e Entry) bool {
	if len(e.Ops) == 0 {
		return false
	}
	h.clearRedo()

	e.Ops = slices.Clone(e.Ops)
	e.tail = e.Ops
	e.edits = 1

	if h.groupDepth > 0 {
		h.accumulate(&e)
		return true
	}

	if top := h.top(); top != nil && h.absorb(top, &e) {
		return true
	}

	h.push(&e)
	h.sealed = false
	return false
}

// absorb merges e into top when the two edits form one continuous burst.
func (h *History) absorb(top, e *Entry) bool {
	if h.sealed || h.window <= 0 || h.maxCoalesce <= 0 {
		return false
	}
	if !top.Coalesce || !e.Coalesce {
		return false
	}
	kind := e.Kind()
	if kind == KindReplace || kind != top.Kind() {
		return false
	}
	if top.Edits() >= h.maxCoalesce {
		return false
	}
	if gap := e.Time.Sub(top.Time); gap < 0 || gap > h.window {
		return false
	}
	if !statesEqual(top.After, e.Before) {
		return false
	}
	if len(e.Ops) != len(top.tail) {
		return false
	}

	marks := top.marks()
	for i, op := range e.Ops {
		prev := top.tail[i]
		if !continues(prev, op, marks[i]) {
			return false
		}
		if h.wordBoundaries && kind == KindInsert && startsWord(prev.Inserted, op.Inserted) {
			return false
		}
	}

	if len(top.Ops) == 1 && len(e.Ops) == 1 {
		top.Ops[0] = fuse(top.Ops[0], e.Ops[0])
		top.tail = top.Ops
	} else {
		top.Ops = append(top.Ops, e.Ops...)
		top.tail = e.Ops
	}
	top.After = e.After
	top.Time = e.Time
	top.edits++
	return true
}

// fuse joins two continuous single-operation edits into one operation.
func fuse(prev, next Operation) Operation {
	if prev.Kind() == KindInsert {
		return Operation{Offset: prev.Offset, Inserted: prev.Inserted + next.Inserted}
	}
	if next.Range().End == prev.Offset {
		return Operation{Offset: next.Offset, Removed: next.Removed + prev.Removed}
	}
	return Operation{Offset: prev.Offset, Removed: prev.Removed + next.Removed}
}

func (h *History) push(e *Entry) {
	h.undo = append(h.undo, e)
	if over := len(h.undo) - h.maxEntries; over > 0 {
		clear(h.undo[:over])
		h.undo = slices.Delete(h.undo, 0, over)
		h.evicted += over
	}
}

func (h *History) top() *Entry {
	if len(h.undo) == 0 {
		return nil
	}
	return h.undo[len(h.undo)-1]
}

func (h *History) clearRedo() {
	clear(h.redo)
	h.redo = h.redo[:0]
}

// Undo moves the newest entry to the redo stack and returns it. The caller
// applies e.Inverse() and restores e.Before. It returns false when there is
// nothing to undo or a group is open.
func (h *History) Undo() (*Entry, bool) {
	if h.groupDepth > 0 || len(h.undo) == 0 {
		return nil, false
	}
	e := h.undo[len(h.undo)-1]
	h.undo[len(h.undo)-1] = nil
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	h.sealed = true
	return e, true
}

// Redo moves the newest undone entry back to the undo stack and returns it.
// The caller applies e.Ops and restores e.After. It returns false when there
// is nothing to redo or a group is open.
func (h *History) Redo() (*Entry, bool) {
	if h.groupDepth > 0 || len(h.redo) == 0 {
		return nil, false
	}
	e := h.redo[len(h.redo)-1]
	h.redo[len(h.redo)-1] = nil
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
	h.sealed = true
	return e, true
}

// CancelUndo reverses the last Undo when the caller could not apply it.
func (h *History) CancelUndo() {
	if len(h.redo) == 0 {
		return
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
}

// CancelRedo reverses the last Redo when the caller could not apply it.
func (h *History) CancelRedo() {
	if len(h.undo) == 0 {
		return
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
}

// Seal forces the next recorded edit into a new entry.
func (h *History) Seal() {
	h.sealed = true
}

// Sealed reports whether the next edit will start a new entry.
func (h *History) Sealed() bool {
	return h.sealed
}

// CanUndo returns true if there are entries to undo.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0 && h.groupDepth == 0
}

// CanRedo returns true if there are entries to redo.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0 && h.groupDepth == 0
}

// UndoCount returns the number of undo entries.
func (h *History) UndoCount() int {
	return len(h.undo)
}

// RedoCount returns the number of redo entries.
func (h *History) RedoCount() int {
	return len(h.redo)
}

// PeekUndo returns the entry Undo would return without removing it.
func (h *History) PeekUndo() (*Entry, bool) {
	e := h.top()
	return e, e != nil
}

// PeekRedo returns the entry Redo would return without removing it.
func (h *History) PeekRedo() (*Entry, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	return h.redo[len(h.redo)-1], true
}

// UndoInfo summarizes the undo stack, newest first.
func (h *History) UndoInfo() []Info {
	return stackInfo(h.undo)
}

// RedoInfo summarizes the redo stack, newest first.
func (h *History) RedoInfo() []Info {
	return stackInfo(h.redo)
}

func stackInfo(stack []*Entry) []Info {
	infos := make([]Info, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		infos = append(infos, stack[i].info())
	}
	return infos
}

// Evicted returns the total number of entries dropped to respect MaxEntries.
func (h *History) Evicted() int {
	return h.evicted
}

// MaxEntries returns the undo stack bound.
func (h *History) MaxEntries() int {
	return h.maxEntries
}

// Clear drops both stacks and any open group.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
	h.group = nil
	h.groupDepth = 0
	h.sealed = false
}
