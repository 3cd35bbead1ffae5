package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rivo/uniseg"

	"github.com/vivax3794/arcane/internal/engine/piece"
	"github.com/vivax3794/arcane/internal/engine/rope"
	"github.com/vivax3794/arcane/internal/engine/text"
)

var kinds = []Kind{KindPieceTable, KindRope}

func mustBuffer(t *testing.T, content string, opts ...Option) *Buffer {
	t.Helper()
	b, err := NewFromString(content, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

func TestNewBuffer(t *testing.T) {
	b := New()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}
	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
	if b.Kind() != KindPieceTable {
		t.Errorf("Kind() = %v, want %v", b.Kind(), KindPieceTable)
	}
	if b.TabWidth() != DefaultTabWidth {
		t.Errorf("TabWidth() = %d, want %d", b.TabWidth(), DefaultTabWidth)
	}
}

func TestBackendSelection(t *testing.T) {
	pt := mustBuffer(t, "abc", WithKind(KindPieceTable))
	if _, ok := pt.Store().(*piece.Table); !ok {
		t.Errorf("piece table kind uses %T", pt.Store())
	}
	rp := mustBuffer(t, "abc", WithKind(KindRope))
	if _, ok := rp.Store().(*rope.Rope); !ok {
		t.Errorf("rope kind uses %T", rp.Store())
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindPieceTable, false},
		{"piecetable", KindPieceTable, false},
		{"Piece-Table", KindPieceTable, false},
		{"rope", KindRope, false},
		{"gap", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBufferEdits(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			b := mustBuffer(t, "Hello World", WithKind(k))

			if err := b.Insert(5, ","); err != nil {
				t.Fatalf("insert failed: %v", err)
			}
			if b.Text() != "Hello, World" {
				t.Errorf("expected 'Hello, World', got %q", b.Text())
			}

			removed, err := b.Replace(text.NewRange(7, 12), "Go")
			if err != nil {
				t.Fatalf("replace failed: %v", err)
			}
			if removed != "World" {
				t.Errorf("removed = %q, want %q", removed, "World")
			}
			if b.Text() != "Hello, Go" {
				t.Errorf("expected 'Hello, Go', got %q", b.Text())
			}

			removed, err = b.Delete(text.NewRange(0, 7))
			if err != nil {
				t.Fatalf("delete failed: %v", err)
			}
			if removed != "Hello, " || b.Text() != "Go" {
				t.Errorf("after delete: removed %q, text %q", removed, b.Text())
			}
		})
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	b := mustBuffer(t, "Hello")

	err := b.Insert(100, "x")
	if !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if b.Text() != "Hello" {
		t.Errorf("content changed: %q", b.Text())
	}
}

// failingStore fails the Insert calls whose entry in fail is true.
type failingStore struct {
	text.Store
	fail  []bool
	calls int
}

var errStoreFull = errors.New("store full")

func (s *failingStore) Insert(offset ByteOffset, str string) error {
	n := s.calls
	s.calls++
	if n < len(s.fail) && s.fail[n] {
		return errStoreFull
	}
	return s.Store.Insert(offset, str)
}

func TestBufferReplaceRestore(t *testing.T) {
	tests := []struct {
		name        string
		fail        []bool
		wantText    string
		wantRestore bool
	}{
		{"restored", []bool{true, false}, "hello world", false},
		{"restore fails", []bool{true, true}, "hello ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustBuffer(t, "hello world")
			b.setStore(&failingStore{Store: b.store, fail: tt.fail})

			_, err := b.Replace(text.NewRange(6, 11), "there")
			if !errors.Is(err, errStoreFull) {
				t.Fatalf("Replace error = %v, want errStoreFull", err)
			}
			if got := b.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if got := strings.Contains(err.Error(), "restore"); got != tt.wantRestore {
				t.Errorf("error %q mentions restore = %v, want %v", err, got, tt.wantRestore)
			}
		})
	}
}

func TestBufferCapacity(t *testing.T) {
	b := mustBuffer(t, "12345", WithMaxSize(8))

	if err := b.Insert(5, "678"); err != nil {
		t.Fatalf("insert at limit failed: %v", err)
	}
	if err := b.Insert(0, "9"); !errors.Is(err, text.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	if _, err := b.Replace(text.NewRange(0, 1), "ab"); !errors.Is(err, text.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	if _, err := b.Replace(text.NewRange(0, 2), "ab"); err != nil {
		t.Errorf("same-size replace failed: %v", err)
	}
	if err := b.Reset("123456789"); !errors.Is(err, text.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded on reset, got %v", err)
	}
	if _, err := NewFromString("123456789", WithMaxSize(8)); !errors.Is(err, text.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded on create, got %v", err)
	}
}

func TestBufferLineOperations(t *testing.T) {
	b := mustBuffer(t, "line1\nline2\r\n\nlast")

	tests := []struct {
		line int
		want string
	}{
		{0, "line1"},
		{1, "line2\r"},
		{2, ""},
		{3, "last"},
	}
	for _, tt := range tests {
		got, err := b.LineText(tt.line)
		if err != nil {
			t.Fatalf("LineText(%d): unexpected error: %v", tt.line, err)
		}
		if got != tt.want {
			t.Errorf("LineText(%d) = %q, want %q", tt.line, got, tt.want)
		}
	}

	if _, err := b.LineText(4); !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("LineText(4): expected ErrOutOfRange, got %v", err)
	}

	r, _ := b.LineRange(1)
	if r != text.NewRange(6, 12) {
		t.Errorf("LineRange(1) = %s, want [6:12)", r)
	}
	if n, _ := b.LineLen(3); n != 4 {
		t.Errorf("LineLen(3) = %d, want 4", n)
	}
}

func TestBufferPoints(t *testing.T) {
	b := mustBuffer(t, "ab\ncdé\nf")

	tests := []struct {
		offset ByteOffset
		point  text.Point
	}{
		{0, text.Point{Line: 0, Column: 0}},
		{2, text.Point{Line: 0, Column: 2}},
		{3, text.Point{Line: 1, Column: 0}},
		{5, text.Point{Line: 1, Column: 2}},
		{7, text.Point{Line: 1, Column: 4}},
		{9, text.Point{Line: 2, Column: 1}},
	}
	for _, tt := range tests {
		got, err := b.OffsetToPoint(tt.offset)
		if err != nil {
			t.Fatalf("OffsetToPoint(%d): unexpected error: %v", tt.offset, err)
		}
		if got != tt.point {
			t.Errorf("OffsetToPoint(%d) = %v, want %v", tt.offset, got, tt.point)
		}
		back, err := b.PointToOffset(tt.point)
		if err != nil {
			t.Fatalf("PointToOffset(%v): unexpected error: %v", tt.point, err)
		}
		if back != tt.offset {
			t.Errorf("PointToOffset(%v) = %d, want %d", tt.point, back, tt.offset)
		}
	}

	for _, p := range []text.Point{{Line: 0, Column: 3}, {Line: 1, Column: 3}, {Line: 3, Column: 0}, {Line: 0, Column: -1}} {
		if _, err := b.PointToOffset(p); !errors.Is(err, text.ErrOutOfRange) {
			t.Errorf("PointToOffset(%v): expected ErrOutOfRange, got %v", p, err)
		}
	}
	if _, err := b.OffsetToPoint(6); !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("OffsetToPoint inside scalar: expected ErrOutOfRange, got %v", err)
	}
}

func TestBufferUTF16Conversion(t *testing.T) {
	// 😀 is 4 bytes in UTF-8 and 2 units in UTF-16.
	b := mustBuffer(t, "a😀b\nc")

	p, err := b.OffsetToPointUTF16(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (PointUTF16{Line: 0, Column: 3}) {
		t.Errorf("OffsetToPointUTF16(5) = %v, want (0:3)", p)
	}

	off, err := b.PointUTF16ToOffset(PointUTF16{Line: 0, Column: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off != 5 {
		t.Errorf("PointUTF16ToOffset((0:3)) = %d, want 5", off)
	}

	// Column inside the surrogate pair resolves to the scalar start.
	off, _ = b.PointUTF16ToOffset(PointUTF16{Line: 0, Column: 2})
	if off != 1 {
		t.Errorf("PointUTF16ToOffset((0:2)) = %d, want 1", off)
	}

	if _, err := b.PointUTF16ToOffset(PointUTF16{Line: 0, Column: 5}); !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestRuneAt(t *testing.T) {
	b := mustBuffer(t, "aé")
	r, size, err := b.RuneAt(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 'é' || size != 2 {
		t.Errorf("RuneAt(1) = (%q, %d), want ('é', 2)", r, size)
	}
	if _, _, err := b.RuneAt(3); !errors.Is(err, text.ErrOutOfRange) {
		t.Errorf("RuneAt(end): expected ErrOutOfRange, got %v", err)
	}
}

func TestGraphemeNavigation(t *testing.T) {
	// "e" + combining acute, a family emoji ZWJ sequence, then CRLF.
	content := "ae\u0301\U0001F468\u200D\U0001F469\u200D\U0001F467x\r\ny"
	b := mustBuffer(t, content)

	var forward []ByteOffset
	for off := ByteOffset(0); off < b.Len(); {
		next, err := b.NextGrapheme(off)
		if err != nil {
			t.Fatalf("NextGrapheme(%d): unexpected error: %v", off, err)
		}
		forward = append(forward, next)
		off = next
	}

	family := len("\U0001F468\u200D\U0001F469\u200D\U0001F467")
	want := []ByteOffset{
		1,
		1 + 3,
		1 + 3 + ByteOffset(family),
		1 + 3 + ByteOffset(family) + 1,
		1 + 3 + ByteOffset(family) + 3,
		b.Len(),
	}
	if len(forward) != len(want) {
		t.Fatalf("boundaries = %v, want %v", forward, want)
	}
	for i := range want {
		if forward[i] != want[i] {
			t.Fatalf("boundaries = %v, want %v", forward, want)
		}
	}

	// Walking back visits the same boundaries in reverse.
	off := b.Len()
	for i := len(want) - 2; i >= 0; i-- {
		prev, err := b.PrevGrapheme(off)
		if err != nil {
			t.Fatalf("PrevGrapheme(%d): unexpected error: %v", off, err)
		}
		if prev != want[i] {
			t.Errorf("PrevGrapheme(%d) = %d, want %d", off, prev, want[i])
		}
		off = prev
	}
	if prev, _ := b.PrevGrapheme(1); prev != 0 {
		t.Errorf("PrevGrapheme(1) = %d, want 0", prev)
	}
}

func TestGraphemeNavigationLongLine(t *testing.T) {
	family := "\U0001F468\u200d\U0001F469\u200d\U0001F467"
	flags := strings.Repeat("\U0001F1FA\U0001F1F8", 40)
	line := strings.Repeat("abc ", 50) + flags + "x" + "e" + strings.Repeat("\u0301", 100) +
		strings.Repeat("世界", 60) + family + strings.Repeat("z", 300) + flags

	// Boundaries of the whole line, segmented in one pass.
	bounds := []ByteOffset{0}
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		_, to := g.Positions()
		bounds = append(bounds, ByteOffset(to))
	}

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			b := mustBuffer(t, "head\n"+line+"\ntail", WithKind(kind))
			base := ByteOffset(len("head\n"))
			for i := 0; i+1 < len(bounds); i++ {
				from, to := base+bounds[i], base+bounds[i+1]
				if next, err := b.NextGrapheme(from); err != nil || next != to {
					t.Fatalf("NextGrapheme(%d) = %d, %v, want %d", from, next, err, to)
				}
				if prev, err := b.PrevGrapheme(to); err != nil || prev != from {
					t.Fatalf("PrevGrapheme(%d) = %d, %v, want %d", to, prev, err, from)
				}
			}
		})
	}
}

func TestVisualColumn(t *testing.T) {
	b := mustBuffer(t, "\tab\n日本x\nx\ty", WithTabWidth(4))

	tests := []struct {
		offset ByteOffset
		want   int
	}{
		{0, 0},
		{1, 4},
		{3, 6},
		{4, 0},
		{7, 2},
		{10, 4},
		{12, 0},
		{13, 1},
		{14, 4},
	}
	for _, tt := range tests {
		got, err := b.VisualColumn(tt.offset)
		if err != nil {
			t.Fatalf("VisualColumn(%d): unexpected error: %v", tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("VisualColumn(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}

	// Column 3 falls inside the second wide character, which starts at 7.
	off, err := b.OffsetAtVisualColumn(1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if off != 7 {
		t.Errorf("OffsetAtVisualColumn(1, 3) = %d, want 7", off)
	}
	if off, _ := b.OffsetAtVisualColumn(1, 99); off != 11 {
		t.Errorf("OffsetAtVisualColumn(1, 99) = %d, want 11", off)
	}
}

func TestBufferSnapshot(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			b := mustBuffer(t, "Hello", WithKind(k))
			snap := b.Snapshot(7)

			_ = b.Insert(5, " World")

			if snap.Text() != "Hello" {
				t.Errorf("snapshot should be immutable, got %q", snap.Text())
			}
			if snap.Generation() != 7 {
				t.Errorf("Generation() = %d, want 7", snap.Generation())
			}
			if b.Text() != "Hello World" {
				t.Errorf("buffer should be modified, got %q", b.Text())
			}
		})
	}
}

func TestSnapshotConcurrentRead(t *testing.T) {
	b := mustBuffer(t, "line one\nline two\nline three")
	snap := b.Snapshot(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if line, _ := snap.LineText(1); line != "line two" {
					t.Errorf("LineText(1) = %q", line)
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		_ = b.Insert(0, "x")
	}
	wg.Wait()
}
