package history

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/vivax3794/arcane/internal/engine/cursor"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func carets(offsets ...ByteOffset) cursor.State {
	s := cursor.State{Primary: 1}
	for i, off := range offsets {
		s.Cursors = append(s.Cursors, cursor.Cursor{ID: cursor.ID(i + 1), Selection: cursor.Caret(off)})
	}
	return s
}

func keystroke(at time.Duration, before, after ByteOffset, ops ...Operation) Entry {
	return Entry{
		Ops:      ops,
		Before:   carets(before),
		After:    carets(after),
		Label:    "type",
		Time:     epoch.Add(at),
		Coalesce: true,
	}
}

func apply(s string, op Operation) string {
	end := op.Offset + ByteOffset(len(op.Removed))
	return s[:op.Offset] + op.Inserted + s[end:]
}

// Operation Tests

func TestOperationKind(t *testing.T) {
	tests := []struct {
		op   Operation
		want Kind
	}{
		{Insertion(3, "x"), KindInsert},
		{Deletion(3, "x"), KindDelete},
		{Operation{Offset: 3, Removed: "x", Inserted: "y"}, KindReplace},
	}
	for _, tt := range tests {
		if got := tt.op.Kind(); got != tt.want {
			t.Errorf("%v.Kind() = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestOperationInverse(t *testing.T) {
	doc := "hello world"
	op := Operation{Offset: 6, Removed: "world", Inserted: "there"}

	got := apply(doc, op)
	if got != "hello there" {
		t.Fatalf("apply = %q, want %q", got, "hello there")
	}
	if back := apply(got, op.Inverse()); back != doc {
		t.Errorf("apply inverse = %q, want %q", back, doc)
	}
	if op.Delta() != 0 {
		t.Errorf("Delta() = %d, want 0", op.Delta())
	}
	if r := op.Range(); r.Start != 6 || r.End != 11 {
		t.Errorf("Range() = %v, want [6:11)", r)
	}
}

func TestEntryInverseOrder(t *testing.T) {
	e := Entry{Ops: []Operation{Insertion(0, "a"), Insertion(1, "b")}}
	inv := e.Inverse()
	if len(inv) != 2 {
		t.Fatalf("len(Inverse()) = %d, want 2", len(inv))
	}
	if inv[0].Offset != 1 || inv[0].Removed != "b" {
		t.Errorf("Inverse()[0] = %v, want delete of b at 1", inv[0])
	}

	doc := ""
	for _, op := range e.Ops {
		doc = apply(doc, op)
	}
	for _, op := range inv {
		doc = apply(doc, op)
	}
	if doc != "" {
		t.Errorf("doc after inverse = %q, want empty", doc)
	}
}

// Stack Tests

func TestUndoRedoEmpty(t *testing.T) {
	h := New()
	if _, ok := h.Undo(); ok {
		t.Error("Undo on empty history should report false")
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo on empty history should report false")
	}
}

func TestUndoRedoTwoStacks(t *testing.T) {
	h := New()
	h.Record(Entry{Ops: []Operation{Insertion(0, "a")}, Label: "one", Time: epoch})
	h.Record(Entry{Ops: []Operation{Insertion(1, "b")}, Label: "two", Time: epoch})

	e, ok := h.Undo()
	if !ok || e.Label != "two" {
		t.Fatalf("Undo() = %v, %v, want entry two", e, ok)
	}
	if h.UndoCount() != 1 || h.RedoCount() != 1 {
		t.Errorf("counts = %d/%d, want 1/1", h.UndoCount(), h.RedoCount())
	}

	e, ok = h.Redo()
	if !ok || e.Label != "two" {
		t.Fatalf("Redo() = %v, %v, want entry two", e, ok)
	}
	if h.UndoCount() != 2 || h.RedoCount() != 0 {
		t.Errorf("counts = %d/%d, want 2/0", h.UndoCount(), h.RedoCount())
	}
}

func TestRecordClearsRedo(t *testing.T) {
	h := New()
	h.Record(Entry{Ops: []Operation{Insertion(0, "a")}, Time: epoch})
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo after undo")
	}

	h.Record(Entry{Ops: []Operation{Insertion(0, "b")}, Time: epoch})
	if h.CanRedo() {
		t.Error("recording should clear redo")
	}
}

func TestRecordIgnoresEmpty(t *testing.T) {
	h := New()
	h.Record(Entry{Label: "nothing"})
	if h.UndoCount() != 0 {
		t.Errorf("UndoCount() = %d, want 0", h.UndoCount())
	}
}

func TestCancelUndoRedo(t *testing.T) {
	h := New()
	h.Record(Entry{Ops: []Operation{Insertion(0, "a")}, Time: epoch})

	h.Undo()
	h.CancelUndo()
	if h.UndoCount() != 1 || h.RedoCount() != 0 {
		t.Errorf("after CancelUndo counts = %d/%d, want 1/0", h.UndoCount(), h.RedoCount())
	}

	h.Undo()
	h.Redo()
	h.CancelRedo()
	if h.UndoCount() != 0 || h.RedoCount() != 1 {
		t.Errorf("after CancelRedo counts = %d/%d, want 0/1", h.UndoCount(), h.RedoCount())
	}
}

func TestEviction(t *testing.T) {
	h := New(WithMaxEntries(3))
	for i := range 5 {
		h.Record(Entry{
			Ops:   []Operation{Insertion(ByteOffset(i), "x")},
			Label: string(rune('a' + i)),
			Time:  epoch,
		})
	}

	if h.UndoCount() != 3 {
		t.Errorf("UndoCount() = %d, want 3", h.UndoCount())
	}
	if h.Evicted() != 2 {
		t.Errorf("Evicted() = %d, want 2", h.Evicted())
	}
	infos := h.UndoInfo()
	if infos[0].Label != "e" || infos[2].Label != "c" {
		t.Errorf("UndoInfo labels = %q..%q, want e..c", infos[0].Label, infos[2].Label)
	}
}

func TestClear(t *testing.T) {
	h := New()
	h.Record(Entry{Ops: []Operation{Insertion(0, "a")}, Time: epoch})
	h.Undo()
	h.BeginGroup("open")
	h.Clear()

	if h.CanUndo() || h.CanRedo() || h.InGroup() {
		t.Error("Clear should drop stacks and groups")
	}
}

// Coalescing Tests

func TestCoalesceTyping(t *testing.T) {
	h := New()
	for i, ch := range "hello" {
		off := ByteOffset(i)
		h.Record(keystroke(time.Duration(i)*100*time.Millisecond, off, off+1, Insertion(off, string(ch))))
	}

	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}
	e, _ := h.PeekUndo()
	if len(e.Ops) != 1 || e.Ops[0].Inserted != "hello" || e.Ops[0].Offset != 0 {
		t.Errorf("Ops = %v, want single insert of hello at 0", e.Ops)
	}
	if e.Edits() != 5 {
		t.Errorf("Edits() = %d, want 5", e.Edits())
	}
	if e.Before.Cursors[0].Offset() != 0 || e.After.Cursors[0].Offset() != 5 {
		t.Errorf("cursor states = %v -> %v, want 0 -> 5", e.Before, e.After)
	}
}

func TestCoalescePauseSplits(t *testing.T) {
	h := New(WithCoalesceWindow(time.Second))
	h.Record(keystroke(0, 0, 1, Insertion(0, "a")))
	h.Record(keystroke(500*time.Millisecond, 1, 2, Insertion(1, "b")))
	h.Record(keystroke(3*time.Second, 2, 3, Insertion(2, "c")))

	if h.UndoCount() != 2 {
		t.Fatalf("UndoCount() = %d, want 2", h.UndoCount())
	}
	e, _ := h.Undo()
	if e.Ops[0].Inserted != "c" {
		t.Errorf("newest entry = %v, want insert of c", e.Ops)
	}
	e, _ = h.Undo()
	if e.Ops[0].Inserted != "ab" {
		t.Errorf("oldest entry = %v, want insert of ab", e.Ops)
	}
}

func TestCoalesceBackspace(t *testing.T) {
	h := New()
	h.Record(keystroke(0, 5, 4, Deletion(4, "o")))
	h.Record(keystroke(10*time.Millisecond, 4, 3, Deletion(3, "l")))
	h.Record(keystroke(20*time.Millisecond, 3, 2, Deletion(2, "l")))

	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}
	e, _ := h.PeekUndo()
	if e.Ops[0].Offset != 2 || e.Ops[0].Removed != "llo" {
		t.Errorf("Ops = %v, want delete of llo at 2", e.Ops)
	}
	if got := apply("he", e.Ops[0].Inverse()); got != "hello" {
		t.Errorf("undo = %q, want hello", got)
	}
}

func TestCoalesceForwardDelete(t *testing.T) {
	h := New()
	h.Record(keystroke(0, 0, 0, Deletion(0, "h")))
	h.Record(keystroke(10*time.Millisecond, 0, 0, Deletion(0, "e")))

	e, _ := h.PeekUndo()
	if h.UndoCount() != 1 || e.Ops[0].Removed != "he" {
		t.Errorf("entry = %v (count %d), want delete of he", e.Ops, h.UndoCount())
	}
}

func TestCoalesceMultiCursor(t *testing.T) {
	h := New()
	h.Record(Entry{
		Ops:      []Operation{Insertion(10, "X"), Insertion(5, "X")},
		Before:   carets(5, 10),
		After:    carets(6, 12),
		Time:     epoch,
		Coalesce: true,
	})
	h.Record(Entry{
		Ops:      []Operation{Insertion(12, "Y"), Insertion(6, "Y")},
		Before:   carets(6, 12),
		After:    carets(7, 14),
		Time:     epoch.Add(50 * time.Millisecond),
		Coalesce: true,
	})

	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}
	e, _ := h.PeekUndo()
	if len(e.Ops) != 4 {
		t.Errorf("len(Ops) = %d, want 4", len(e.Ops))
	}

	doc := "0123456789abcdefghij"
	for _, op := range e.Ops {
		doc = apply(doc, op)
	}
	if doc != "01234XY56789XYabcdefghij" {
		t.Errorf("doc = %q", doc)
	}
	for _, op := range e.Inverse() {
		doc = apply(doc, op)
	}
	if doc != "0123456789abcdefghij" {
		t.Errorf("doc after undo = %q", doc)
	}
}

func TestNoCoalesce(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		first  Entry
		second Entry
	}{
		{
			name:   "not adjacent",
			first:  keystroke(0, 0, 1, Insertion(0, "a")),
			second: keystroke(10*time.Millisecond, 1, 1, Insertion(7, "b")),
		},
		{
			name:   "kind changes",
			first:  keystroke(0, 0, 1, Insertion(0, "a")),
			second: keystroke(10*time.Millisecond, 1, 0, Deletion(0, "a")),
		},
		{
			name:   "cursor moved",
			first:  keystroke(0, 0, 1, Insertion(0, "a")),
			second: keystroke(10*time.Millisecond, 4, 5, Insertion(1, "b")),
		},
		{
			name:   "replace",
			first:  keystroke(0, 0, 1, Operation{Offset: 0, Removed: "z", Inserted: "a"}),
			second: keystroke(10*time.Millisecond, 1, 2, Operation{Offset: 1, Removed: "z", Inserted: "b"}),
		},
		{
			name:   "clock went backwards",
			first:  keystroke(time.Second, 0, 1, Insertion(0, "a")),
			second: keystroke(0, 1, 2, Insertion(1, "b")),
		},
		{
			name:   "coalescing disabled",
			opts:   []Option{WithCoalesceWindow(0)},
			first:  keystroke(0, 0, 1, Insertion(0, "a")),
			second: keystroke(0, 1, 2, Insertion(1, "b")),
		},
		{
			name:  "not coalescable",
			first: keystroke(0, 0, 1, Insertion(0, "a")),
			second: Entry{
				Ops:    []Operation{Insertion(1, "b")},
				Before: carets(1),
				After:  carets(2),
				Time:   epoch,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.opts...)
			h.Record(tt.first)
			if merged := h.Record(tt.second); merged {
				t.Error("Record() merged, want new entry")
			}
			if h.UndoCount() != 2 {
				t.Errorf("UndoCount() = %d, want 2", h.UndoCount())
			}
		})
	}
}

func TestSealBreaksCoalescing(t *testing.T) {
	h := New()
	h.Record(keystroke(0, 0, 1, Insertion(0, "a")))
	h.Seal()
	if !h.Sealed() {
		t.Fatal("Sealed() = false after Seal")
	}
	h.Record(keystroke(10*time.Millisecond, 1, 2, Insertion(1, "b")))
	h.Record(keystroke(20*time.Millisecond, 2, 3, Insertion(2, "c")))

	if h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", h.UndoCount())
	}
	if h.Sealed() {
		t.Error("seal should be consumed by the next entry")
	}
}

func TestUndoSeals(t *testing.T) {
	h := New()
	h.Record(keystroke(0, 0, 1, Insertion(0, "a")))
	h.Record(keystroke(10*time.Millisecond, 1, 2, Insertion(1, "b")))
	h.Undo()
	h.Redo()
	h.Record(keystroke(20*time.Millisecond, 2, 3, Insertion(2, "c")))

	if h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", h.UndoCount())
	}
}

func TestMaxCoalesce(t *testing.T) {
	h := New(WithMaxCoalesce(3))
	for i := range 5 {
		off := ByteOffset(i)
		h.Record(keystroke(time.Duration(i)*time.Millisecond, off, off+1, Insertion(off, "x")))
	}

	infos := h.UndoInfo()
	if len(infos) != 2 {
		t.Fatalf("len(UndoInfo()) = %d, want 2", len(infos))
	}
	if infos[1].Edits != 3 || infos[0].Edits != 2 {
		t.Errorf("edits = %d,%d, want 3,2", infos[1].Edits, infos[0].Edits)
	}
}

func TestWordBoundaries(t *testing.T) {
	h := New(WithWordBoundaries(true))
	for i, ch := range "ab cd" {
		off := ByteOffset(i)
		h.Record(keystroke(time.Duration(i)*time.Millisecond, off, off+1, Insertion(off, string(ch))))
	}

	if h.UndoCount() != 2 {
		t.Fatalf("UndoCount() = %d, want 2", h.UndoCount())
	}
	e, _ := h.Undo()
	if e.Ops[0].Inserted != "cd" {
		t.Errorf("newest = %q, want cd", e.Ops[0].Inserted)
	}
	e, _ = h.Undo()
	if e.Ops[0].Inserted != "ab " {
		t.Errorf("oldest = %q, want %q", e.Ops[0].Inserted, "ab ")
	}
}

// Group Tests

func TestGroup(t *testing.T) {
	h := New()
	h.BeginGroup("Replace All")
	h.Record(keystroke(0, 0, 1, Insertion(0, "a")))
	h.BeginGroup("inner")
	h.Record(keystroke(0, 1, 2, Insertion(5, "b")))
	if h.EndGroup() {
		t.Error("inner EndGroup should not push")
	}
	if h.CanUndo() {
		t.Error("CanUndo() should be false inside a group")
	}
	if !h.EndGroup() {
		t.Fatal("outer EndGroup should push")
	}

	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}
	e, _ := h.Undo()
	if e.Label != "Replace All" || len(e.Ops) != 2 || e.Edits() != 2 {
		t.Errorf("entry = %q with %d ops and %d edits", e.Label, len(e.Ops), e.Edits())
	}
	if e.Before.Cursors[0].Offset() != 0 || e.After.Cursors[0].Offset() != 2 {
		t.Errorf("cursor states = %v -> %v", e.Before, e.After)
	}
}

func TestGroupNotCoalesced(t *testing.T) {
	h := New()
	h.BeginGroup("g")
	h.Record(keystroke(0, 0, 1, Insertion(0, "a")))
	h.EndGroup()
	h.Record(keystroke(time.Millisecond, 1, 2, Insertion(1, "b")))

	if h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", h.UndoCount())
	}
}

func TestEmptyGroup(t *testing.T) {
	h := New()
	h.BeginGroup("empty")
	if h.EndGroup() {
		t.Error("empty group should not push")
	}
	if h.UndoCount() != 0 {
		t.Errorf("UndoCount() = %d, want 0", h.UndoCount())
	}
}

func TestCancelGroup(t *testing.T) {
	h := New()
	h.BeginGroup("g")
	h.BeginGroup("nested")
	h.Record(keystroke(0, 0, 1, Insertion(0, "a")))

	e := h.CancelGroup()
	if e == nil || len(e.Ops) != 1 {
		t.Fatalf("CancelGroup() = %v, want collected entry", e)
	}
	if h.InGroup() || h.UndoCount() != 0 {
		t.Error("cancelled group should leave no state")
	}
}

func TestGroupScope(t *testing.T) {
	h := New()
	func() {
		defer h.GroupScope("scoped").End()
		h.Record(keystroke(0, 0, 1, Insertion(0, "a")))
		h.Record(keystroke(0, 1, 2, Insertion(1, "b")))
	}()

	if h.InGroup() {
		t.Error("scope should close the group")
	}
	if h.UndoCount() != 1 {
		t.Errorf("UndoCount() = %d, want 1", h.UndoCount())
	}
}

// Property Tests

func TestUndoAllRestoresOriginal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		original := rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "original")
		h := New(WithMaxEntries(1000))

		doc := original
		now := epoch
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := range steps {
			var op Operation
			if len(doc) > 0 && rapid.Bool().Draw(t, "delete") {
				start := rapid.IntRange(0, len(doc)-1).Draw(t, "start")
				end := rapid.IntRange(start+1, min(len(doc), start+3)).Draw(t, "end")
				op = Deletion(ByteOffset(start), doc[start:end])
			} else {
				off := rapid.IntRange(0, len(doc)).Draw(t, "offset")
				op = Insertion(ByteOffset(off), rapid.StringMatching(`[a-z ]{1,3}`).Draw(t, "text"))
			}
			doc = apply(doc, op)
			now = now.Add(time.Duration(rapid.IntRange(0, 2000).Draw(t, "gap")) * time.Millisecond)
			h.Record(Entry{Ops: []Operation{op}, Time: now, Coalesce: i%3 != 0})
		}
		final := doc

		for {
			e, ok := h.Undo()
			if !ok {
				break
			}
			for _, op := range e.Inverse() {
				doc = apply(doc, op)
			}
		}
		if doc != original {
			t.Fatalf("after undo all = %q, want %q", doc, original)
		}

		for {
			e, ok := h.Redo()
			if !ok {
				break
			}
			for _, op := range e.Ops {
				doc = apply(doc, op)
			}
		}
		if doc != final {
			t.Fatalf("after redo all = %q, want %q", doc, final)
		}
	})
}
