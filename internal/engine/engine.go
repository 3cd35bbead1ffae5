package engine

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vivax3794/arcane/internal/engine/buffer"
	"github.com/vivax3794/arcane/internal/engine/cursor"
	"github.com/vivax3794/arcane/internal/engine/history"
	"github.com/vivax3794/arcane/internal/engine/text"
	"github.com/vivax3794/arcane/internal/engine/tracking"
	"github.com/vivax3794/arcane/internal/logging"
)

// Re-export commonly used types for convenience.
type (
	// ByteOffset is a byte position in the document.
	ByteOffset = text.ByteOffset

	// Range is a half-open byte range.
	Range = text.Range

	// Point is a zero-based line and byte column.
	Point = text.Point

	// PointUTF16 is a line and UTF-16 column (for LSP).
	PointUTF16 = buffer.PointUTF16

	// Selection is a cursor's anchor and head.
	Selection = cursor.Selection

	// Cursor is a selection tagged with a stable ID.
	Cursor = cursor.Cursor

	// Snapshot is an immutable view of the document at one generation.
	Snapshot = buffer.Snapshot

	// Change is one committed operation, as returned by ChangesSince.
	Change = tracking.Change
)

// Engine owns one document together with its cursors and edit history.
//
// Apply is the only way to change anything. The engine takes no locks:
// Apply and the query methods must be called from one goroutine (the event
// loop). Other goroutines use Snapshot, Generation and ChangesSince, which
// are safe for concurrent use.
type Engine struct {
	id      uuid.UUID
	buf     *buffer.Buffer
	cursors *cursor.Tracker
	history *history.History
	changes *tracking.Log
	log     *logging.Logger

	generation atomic.Uint64
	snapshot   atomic.Pointer[buffer.Snapshot]

	// Configuration
	kind           buffer.Kind
	tabWidth       int
	maxSize        int64
	maxCursors     int
	maxUndoEntries int
	coalesceWindow time.Duration
	maxCoalesce    int
	wordBoundaries bool
	maxChanges     int
	readOnly       bool
	now            func() time.Time

	// Initialization
	initContent string
}

// New creates an Engine with the given options. It fails if the initial
// content is not valid UTF-8 or exceeds the document size limit.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		kind:           buffer.KindPieceTable,
		tabWidth:       DefaultTabWidth,
		maxSize:        DefaultMaxDocumentSize,
		maxCursors:     DefaultMaxCursors,
		maxUndoEntries: DefaultMaxUndoEntries,
		coalesceWindow: DefaultCoalesceWindow,
		maxCoalesce:    DefaultMaxCoalesce,
		maxChanges:     DefaultMaxChanges,
		log:            logging.Discard(),
		now:            time.Now,
	}

	// Apply options to get configuration
	for _, opt := range opts {
		opt(e)
	}

	buf, err := buffer.NewFromString(e.initContent,
		buffer.WithKind(e.kind),
		buffer.WithTabWidth(e.tabWidth),
		buffer.WithMaxSize(e.maxSize),
	)
	if err != nil {
		return nil, fmt.Errorf("initial content: %w", err)
	}
	e.initContent = ""

	e.id = uuid.New()
	e.log = e.log.WithComponent("engine").WithField("session", e.id.String())
	e.buf = buf
	e.cursors = cursor.NewTracker(buf.Len(), cursor.WithMaxCursors(e.maxCursors))
	e.history = history.New(
		history.WithMaxEntries(e.maxUndoEntries),
		history.WithCoalesceWindow(e.coalesceWindow),
		history.WithMaxCoalesce(e.maxCoalesce),
		history.WithWordBoundaries(e.wordBoundaries),
	)
	e.changes = tracking.NewLog(e.maxChanges)
	e.publish(0)

	e.log.Debug("created %s engine with %d bytes", e.kind, buf.Len())
	return e, nil
}

// ============================================================================
// Identity and Concurrent Access
// ============================================================================

// ID returns the session identity of the engine.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Backend returns the text store backend in use.
func (e *Engine) Backend() buffer.Kind {
	return e.buf.Kind()
}

// IsReadOnly returns true if text mutations are rejected.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// Generation returns the number of committed text changes. It is safe to
// call from any goroutine; readers compare it with their snapshot's
// generation to detect staleness.
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

// Snapshot returns the snapshot published by the latest commit. It is safe to
// call from any goroutine.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// ChangesSince returns the operations committed after generation gen. It
// returns false when gen is too old, or predates a Load, and the caller must
// rescan a fresh snapshot. It is safe to call from any goroutine.
func (e *Engine) ChangesSince(gen uint64) ([]Change, bool) {
	return e.changes.Since(gen)
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full document.
func (e *Engine) Text() string {
	return e.buf.Text()
}

// Len returns the document length in bytes.
func (e *Engine) Len() ByteOffset {
	return e.buf.Len()
}

// IsEmpty returns true if the document is empty.
func (e *Engine) IsEmpty() bool {
	return e.buf.IsEmpty()
}

// LineCount returns the number of lines. An empty document has one line.
func (e *Engine) LineCount() int {
	return e.buf.LineCount()
}

// Slice returns the text in r.
func (e *Engine) Slice(r Range) (string, error) {
	return e.buf.Slice(r)
}

// LineText returns the text of line without its newline.
func (e *Engine) LineText(line int) (string, error) {
	return e.buf.LineText(line)
}

// LineRange returns the byte range of line without its newline.
func (e *Engine) LineRange(line int) (Range, error) {
	return e.buf.LineRange(line)
}

// LineLen returns the byte length of line without its newline.
func (e *Engine) LineLen(line int) (int, error) {
	return e.buf.LineLen(line)
}

// TabWidth returns the tab width used for visual columns.
func (e *Engine) TabWidth() int {
	return e.buf.TabWidth()
}

// ============================================================================
// Position Conversion
// ============================================================================

// OffsetOfLine returns the offset of the first byte of line.
func (e *Engine) OffsetOfLine(line int) (ByteOffset, error) {
	return e.buf.OffsetOfLine(line)
}

// LineOfOffset returns the line containing offset.
func (e *Engine) LineOfOffset(offset ByteOffset) (int, error) {
	return e.buf.LineOfOffset(offset)
}

// OffsetToPoint converts a byte offset to a line and byte column.
func (e *Engine) OffsetToPoint(offset ByteOffset) (Point, error) {
	return e.buf.OffsetToPoint(offset)
}

// PointToOffset converts a line and byte column to a byte offset.
func (e *Engine) PointToOffset(p Point) (ByteOffset, error) {
	return e.buf.PointToOffset(p)
}

// OffsetToPointUTF16 converts a byte offset to a line and UTF-16 column.
func (e *Engine) OffsetToPointUTF16(offset ByteOffset) (PointUTF16, error) {
	return e.buf.OffsetToPointUTF16(offset)
}

// PointUTF16ToOffset converts a line and UTF-16 column to a byte offset.
func (e *Engine) PointUTF16ToOffset(p PointUTF16) (ByteOffset, error) {
	return e.buf.PointUTF16ToOffset(p)
}

// VisualColumn returns the display column of offset on its line.
func (e *Engine) VisualColumn(offset ByteOffset) (int, error) {
	return e.buf.VisualColumn(offset)
}

// ============================================================================
// Cursor Queries
// ============================================================================

// Cursors returns all cursors in creation order.
func (e *Engine) Cursors() []Cursor {
	return e.cursors.All()
}

// SortedCursors returns all cursors ordered by position.
func (e *Engine) SortedCursors() []Cursor {
	return e.cursors.Sorted()
}

// Primary returns the primary cursor.
func (e *Engine) Primary() Cursor {
	return e.cursors.Primary()
}

// Cursor returns the cursor with the given ID.
func (e *Engine) Cursor(id CursorID) (Cursor, bool) {
	return e.cursors.Get(id)
}

// CursorCount returns the number of cursors.
func (e *Engine) CursorCount() int {
	return e.cursors.Count()
}

// ============================================================================
// History Queries
// ============================================================================

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of undo steps.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of redo steps.
func (e *Engine) RedoCount() int {
	return e.history.RedoCount()
}

// UndoInfo summarizes the undo steps, newest first.
func (e *Engine) UndoInfo() []history.Info {
	return e.history.UndoInfo()
}

// RedoInfo summarizes the redo steps, newest first.
func (e *Engine) RedoInfo() []history.Info {
	return e.history.RedoInfo()
}

// ============================================================================
// Mutation
// ============================================================================

// Apply runs one command as an atomic step. Every input is validated before
// anything changes, so a command that returns an error leaves the document,
// cursors, history and generation exactly as they were.
func (e *Engine) Apply(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("nil command: %w", ErrInvalidOperation)
	}
	err := e.apply(cmd)
	if err != nil {
		e.log.Debug("rejected %s: %v", cmd.Name(), err)
	}
	return err
}

func (e *Engine) apply(cmd Command) error {
	if e.readOnly && mutates(cmd) {
		return fmt.Errorf("%s: %w", cmd.Name(), ErrReadOnly)
	}

	switch c := cmd.(type) {
	case Insert:
		return e.edit(cmd, []splice{{r: text.Empty(c.Offset), s: c.Text}})
	case Delete:
		return e.edit(cmd, []splice{{r: c.Range}})
	case Replace:
		return e.edit(cmd, []splice{{r: c.Range, s: c.Text}})
	case Type:
		return e.editCursors(cmd, selectionRange, c.Text)
	case DeleteBackward:
		return e.editCursors(cmd, e.backwardRange, "")
	case DeleteForward:
		return e.editCursors(cmd, e.forwardRange, "")
	case AddCursor:
		_, err := e.addCursor(c.Offset)
		return err
	case RemoveCursor:
		return e.cursors.Remove(c.ID)
	case MoveCursor:
		return e.moveCursor(c.ID, c.Offset, c.Extend)
	case SetSelection:
		return e.setSelection(c.ID, c.Anchor, c.Offset)
	case MoveCursors:
		return e.moveCursors(c.Motion, c.Extend)
	case MergeCursors:
		if n := e.cursors.Merge(); n > 0 {
			e.log.Debug("merged %d cursors", n)
		}
		return nil
	case Undo:
		_, err := e.undo()
		return err
	case Redo:
		_, err := e.redo()
		return err
	case Load:
		return e.load(c.Text)
	case SealHistory:
		e.history.Seal()
		return nil
	default:
		return fmt.Errorf("unknown command %T: %w", cmd, ErrInvalidOperation)
	}
}

// splice replaces r with s.
type splice struct {
	r Range
	s string
}

// editCursors applies one splice per cursor as a single command. rangeOf
// picks the range each cursor replaces with s.
func (e *Engine) editCursors(cmd Command, rangeOf func(Selection) (Range, error), s string) error {
	all := e.cursors.All()
	splices := make([]splice, 0, len(all))
	for _, c := range all {
		r, err := rangeOf(c.Selection)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		splices = append(splices, splice{r: r, s: s})
	}
	return e.edit(cmd, splices)
}

func selectionRange(sel Selection) (Range, error) {
	return sel.Range(), nil
}

func (e *Engine) backwardRange(sel Selection) (Range, error) {
	if !sel.IsEmpty() {
		return sel.Range(), nil
	}
	start, err := e.buf.PrevGrapheme(sel.Head)
	if err != nil {
		return Range{}, err
	}
	return text.NewRange(start, sel.Head), nil
}

func (e *Engine) forwardRange(sel Selection) (Range, error) {
	if !sel.IsEmpty() {
		return sel.Range(), nil
	}
	end, err := e.buf.NextGrapheme(sel.Head)
	if err != nil {
		return Range{}, err
	}
	return text.NewRange(sel.Head, end), nil
}

// edit validates and applies a set of splices as one command.
func (e *Engine) edit(cmd Command, splices []splice) error {
	for _, sp := range splices {
		if err := e.buf.CheckEdit(sp.r, sp.s); err != nil {
			return fmt.Errorf("%s %v: %w", cmd.Name(), sp.r, err)
		}
	}
	splices = normalize(splices)
	if len(splices) == 0 {
		return nil
	}
	if err := e.checkSize(splices); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}

	before := e.cursors.State()
	ops, err := e.splice(splices)
	if err != nil {
		e.restoreCursors(before)
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}

	e.record(cmd, ops, before)
	e.commit(ops)
	return nil
}

// normalize drops no-op splices, merges ranges that overlap or coincide so
// colliding cursors edit once, and orders the rest highest offset first.
func normalize(in []splice) []splice {
	out := make([]splice, 0, len(in))
	for _, sp := range in {
		if !sp.r.IsEmpty() || sp.s != "" {
			out = append(out, sp)
		}
	}
	slices.SortFunc(out, func(a, b splice) int {
		if c := cmp.Compare(a.r.Start, b.r.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.r.End, b.r.End)
	})

	// Ascending order lets each range merge with everything kept so far,
	// since the last kept range has the greatest end.
	merged := out[:0]
	for _, sp := range out {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if sp.r == last.r || sp.r.Start < last.r.End {
				last.r = last.r.Union(sp.r)
				continue
			}
		}
		merged = append(merged, sp)
	}
	slices.Reverse(merged)
	return merged
}

func (e *Engine) checkSize(splices []splice) error {
	size := e.buf.Len()
	for _, sp := range splices {
		size += ByteOffset(len(sp.s)) - sp.r.Len()
	}
	if size > e.buf.MaxSize() {
		return fmt.Errorf("document of %d bytes exceeds limit of %d: %w", size, e.buf.MaxSize(), ErrCapacityExceeded)
	}
	return nil
}

// splice applies splices in order, rebasing cursors after each one. On
// failure every applied splice is reverted.
func (e *Engine) splice(splices []splice) ([]history.Operation, error) {
	ops := make([]history.Operation, 0, len(splices))
	for _, sp := range splices {
		op, err := e.applyOne(sp.r, sp.s)
		if err != nil {
			e.revert(ops)
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (e *Engine) applyOne(r Range, s string) (history.Operation, error) {
	var removed string
	var err error
	switch {
	case r.IsEmpty():
		err = e.buf.Insert(r.Start, s)
	case s == "":
		removed, err = e.buf.Delete(r)
	default:
		removed, err = e.buf.Replace(r, s)
	}
	if err != nil {
		return history.Operation{}, err
	}
	e.cursors.Rebase(r, ByteOffset(len(s)))
	return history.Operation{Offset: r.Start, Removed: removed, Inserted: s}, nil
}

// revert undoes applied operations, newest first.
func (e *Engine) revert(ops []history.Operation) {
	for i := len(ops) - 1; i >= 0; i-- {
		inv := ops[i].Inverse()
		if _, err := e.applyOne(inv.Range(), inv.Inserted); err != nil {
			e.log.Error("revert %v: %v", inv, err)
		}
	}
}

func toSplices(ops []history.Operation) []splice {
	out := make([]splice, len(ops))
	for i, op := range ops {
		out[i] = splice{r: op.Range(), s: op.Inserted}
	}
	return out
}

func (e *Engine) restoreCursors(s cursor.State) {
	if err := e.cursors.Restore(s); err != nil {
		e.log.Warn("restore cursors: %v", err)
	}
}

func (e *Engine) record(cmd Command, ops []history.Operation, before cursor.State) {
	evicted := e.history.Evicted()
	e.history.Record(history.Entry{
		Ops:      ops,
		Before:   before,
		After:    e.cursors.State(),
		Label:    cmd.Name(),
		Time:     e.now(),
		Coalesce: coalescable(cmd),
	})
	if n := e.history.Evicted() - evicted; n > 0 {
		e.log.Debug("evicted %d history entries", n)
	}
}

// commit logs the operations and publishes the next generation.
func (e *Engine) commit(ops []history.Operation) {
	gen := e.generation.Load() + 1
	e.changes.Record(gen, ops...)
	e.publish(gen)
}

// publish stores a snapshot for gen, then makes gen visible. A reader that
// observes gen always finds a snapshot at least that new.
func (e *Engine) publish(gen uint64) {
	e.snapshot.Store(e.buf.Snapshot(gen))
	e.generation.Store(gen)
	e.log.Debug("published snapshot gen=%d len=%d", gen, e.buf.Len())
}

// ============================================================================
// History Operations
// ============================================================================

func (e *Engine) undo() (bool, error) {
	if e.history.InGroup() {
		return false, fmt.Errorf("undo inside a group: %w", ErrInvalidOperation)
	}
	entry, ok := e.history.Undo()
	if !ok {
		return false, nil
	}

	before := e.cursors.State()
	ops, err := e.splice(toSplices(entry.Inverse()))
	if err != nil {
		e.history.CancelUndo()
		e.restoreCursors(before)
		return false, fmt.Errorf("undo %s: %w", entry.Label, err)
	}
	e.restoreCursors(entry.Before)
	e.commit(ops)
	return true, nil
}

func (e *Engine) redo() (bool, error) {
	if e.history.InGroup() {
		return false, fmt.Errorf("redo inside a group: %w", ErrInvalidOperation)
	}
	entry, ok := e.history.Redo()
	if !ok {
		return false, nil
	}

	before := e.cursors.State()
	ops, err := e.splice(toSplices(entry.Ops))
	if err != nil {
		e.history.CancelRedo()
		e.restoreCursors(before)
		return false, fmt.Errorf("redo %s: %w", entry.Label, err)
	}
	e.restoreCursors(entry.After)
	e.commit(ops)
	return true, nil
}

func (e *Engine) load(s string) error {
	if e.history.InGroup() {
		return fmt.Errorf("load inside a group: %w", ErrInvalidOperation)
	}
	if err := e.buf.Reset(s); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	e.cursors.Reset(e.buf.Len())
	e.history.Clear()

	gen := e.generation.Load() + 1
	e.changes.Reset(gen)
	e.publish(gen)
	return nil
}

// ============================================================================
// Cursor Operations
// ============================================================================

func (e *Engine) checkOffset(offset ByteOffset) error {
	return text.CheckOffset(e.buf, offset)
}

func (e *Engine) addCursor(offset ByteOffset) (CursorID, error) {
	if err := e.checkOffset(offset); err != nil {
		return 0, err
	}
	return e.cursors.Add(offset)
}

func (e *Engine) moveCursor(id CursorID, offset ByteOffset, extend bool) error {
	c, ok := e.cursors.Get(id)
	if !ok {
		return fmt.Errorf("no cursor with id %d: %w", id, ErrInvalidOperation)
	}
	anchor := offset
	if extend {
		anchor = c.Anchor
	}
	return e.setSelection(id, anchor, offset)
}

func (e *Engine) setSelection(id CursorID, anchor, head ByteOffset) error {
	if err := e.checkOffset(anchor); err != nil {
		return err
	}
	if err := e.checkOffset(head); err != nil {
		return err
	}
	return e.cursors.SetSelection(id, anchor, head)
}

// moveCursors computes every new selection before changing any.
func (e *Engine) moveCursors(m Motion, extend bool) error {
	all := e.cursors.All()
	next := make([]Selection, len(all))
	for i, c := range all {
		head, err := e.target(c.Selection, m, extend)
		if err != nil {
			return err
		}
		if extend {
			next[i] = cursor.NewSelection(c.Anchor, head)
		} else {
			next[i] = cursor.Caret(head)
		}
	}
	for i, c := range all {
		if err := e.cursors.SetSelection(c.ID, next[i].Anchor, next[i].Head); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Convenience Wrappers
// ============================================================================

// Insert inserts s at offset.
func (e *Engine) Insert(offset ByteOffset, s string) error {
	return e.Apply(Insert{Offset: offset, Text: s})
}

// Delete removes r.
func (e *Engine) Delete(r Range) error {
	return e.Apply(Delete{Range: r})
}

// Replace swaps the text in r for s.
func (e *Engine) Replace(r Range, s string) error {
	return e.Apply(Replace{Range: r, Text: s})
}

// Type inserts s at every cursor, replacing selections.
func (e *Engine) Type(s string) error {
	return e.Apply(Type{Text: s})
}

// AddCursor adds a caret at offset and returns its ID.
func (e *Engine) AddCursor(offset ByteOffset) (CursorID, error) {
	id, err := e.addCursor(offset)
	if err != nil {
		e.log.Debug("rejected add-cursor: %v", err)
	}
	return id, err
}

// Undo reverts the newest history entry. It returns false when there was
// nothing to undo.
func (e *Engine) Undo() (bool, error) {
	if e.readOnly {
		return false, ErrReadOnly
	}
	return e.undo()
}

// Redo reapplies the newest undone entry. It returns false when there was
// nothing to redo.
func (e *Engine) Redo() (bool, error) {
	if e.readOnly {
		return false, ErrReadOnly
	}
	return e.redo()
}

// Group runs fn, collecting every edit it applies into one undo step. If fn
// returns an error, the edits it made are reverted and the error is
// returned. Nested calls join the outermost group.
func (e *Engine) Group(label string, fn func() error) error {
	if e.readOnly {
		return ErrReadOnly
	}
	if e.history.InGroup() {
		return fn()
	}

	e.history.BeginGroup(label)
	if err := fn(); err != nil {
		if g := e.history.CancelGroup(); g != nil {
			ops, rerr := e.splice(toSplices(g.Inverse()))
			if rerr != nil {
				e.log.Error("revert group %q: %v", label, rerr)
				return err
			}
			e.restoreCursors(g.Before)
			e.commit(ops)
		}
		return err
	}
	e.history.EndGroup()
	return nil
}

// NewFromReader creates an Engine whose content is read from r.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return New(append(opts, WithContent(string(data)))...)
}
