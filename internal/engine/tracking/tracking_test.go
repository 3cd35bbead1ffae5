package tracking

import (
	"strings"
	"sync"
	"testing"

	"github.com/vivax3794/arcane/internal/engine/history"
	"github.com/vivax3794/arcane/internal/engine/piece"
)

func TestLogSince(t *testing.T) {
	l := NewLog(10)
	l.Record(1, history.Insertion(0, "a"))
	l.Record(2, history.Insertion(1, "b"), history.Insertion(0, "c"))
	l.Record(3, history.Deletion(0, "c"))

	tests := []struct {
		gen  uint64
		want int
	}{
		{0, 4},
		{1, 3},
		{2, 1},
		{3, 0},
		{9, 0},
	}
	for _, tt := range tests {
		got, ok := l.Since(tt.gen)
		if !ok {
			t.Errorf("Since(%d) reported stale", tt.gen)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("len(Since(%d)) = %d, want %d", tt.gen, len(got), tt.want)
		}
	}

	got, _ := l.Since(1)
	if got[0].Generation != 2 || got[0].Op.Inserted != "b" {
		t.Errorf("Since(1)[0] = %+v, want gen 2 insert of b", got[0])
	}
}

func TestLogEviction(t *testing.T) {
	l := NewLog(4)
	for gen := uint64(1); gen <= 20; gen++ {
		l.Record(gen, history.Insertion(0, "x"))
	}

	if l.Len() < 4 || l.Len() > 8 {
		t.Errorf("Len() = %d, want between 4 and 8", l.Len())
	}
	if _, ok := l.Since(0); ok {
		t.Error("Since(0) should be stale after eviction")
	}
	got, ok := l.Since(16)
	if !ok || len(got) != 4 {
		t.Errorf("Since(16) = %d changes, ok=%v, want 4, true", len(got), ok)
	}
	if got, ok := l.Since(l.Base()); !ok || got[0].Generation != l.Base()+1 {
		t.Errorf("Since(Base()) should start right after the base")
	}
}

func TestLogReset(t *testing.T) {
	l := NewLog(10)
	l.Record(1, history.Insertion(0, "a"))
	l.Reset(5)

	if _, ok := l.Since(1); ok {
		t.Error("Since(1) should be stale after Reset(5)")
	}
	if got, ok := l.Since(5); !ok || len(got) != 0 {
		t.Errorf("Since(5) = %v, %v, want empty, true", got, ok)
	}
}

func TestLogConcurrentReaders(t *testing.T) {
	l := NewLog(16)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				changes, ok := l.Since(0)
				if !ok {
					continue
				}
				for i := 1; i < len(changes); i++ {
					if changes[i].Generation < changes[i-1].Generation {
						t.Error("changes out of order")
						return
					}
				}
			}
		}()
	}
	for gen := uint64(1); gen <= 1000; gen++ {
		l.Record(gen, history.Insertion(0, "x"))
	}
	wg.Wait()
}

func TestDiffLines(t *testing.T) {
	a := []string{"one", "two", "three", "four"}
	b := []string{"one", "2", "three", "four", "five"}

	got := DiffLines(a, b, DiffOptions{ContextLines: 0})
	if len(got) != 2 {
		t.Fatalf("len(hunks) = %d, want 2: %+v", len(got), got)
	}
	want := []string{"-two", "+2"}
	if strings.Join(got[0].Lines, "|") != strings.Join(want, "|") {
		t.Errorf("hunk 0 = %q, want %q", got[0].Lines, want)
	}
	if got[0].OldStart != 1 || got[0].OldCount != 1 || got[0].NewStart != 1 || got[0].NewCount != 1 {
		t.Errorf("hunk 0 header = %+v", got[0])
	}
	if got[1].Lines[0] != "+five" || got[1].OldStart != 4 || got[1].NewStart != 4 {
		t.Errorf("hunk 1 = %+v", got[1])
	}
}

func TestDiffContextMerges(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e"}
	b := []string{"A", "b", "c", "d", "E"}

	if got := DiffLines(a, b, DiffOptions{ContextLines: 1}); len(got) != 2 {
		t.Errorf("context 1: len(hunks) = %d, want 2", len(got))
	}
	got := DiffLines(a, b, DiffOptions{ContextLines: 2})
	if len(got) != 1 {
		t.Fatalf("context 2: len(hunks) = %d, want 1", len(got))
	}
	if got[0].OldCount != 5 || got[0].NewCount != 5 {
		t.Errorf("counts = %d,%d, want 5,5", got[0].OldCount, got[0].NewCount)
	}
}

func TestDiffIdentical(t *testing.T) {
	a := []string{"same", "lines"}
	if got := DiffLines(a, a, DefaultDiffOptions()); len(got) != 0 {
		t.Errorf("hunks = %+v, want none", got)
	}
	if s := Unified(nil, "a", "b"); s != "" {
		t.Errorf("Unified(nil) = %q, want empty", s)
	}
}

func TestDiffMaxLinesFallback(t *testing.T) {
	a := []string{"x", "1", "2", "3", "y"}
	b := []string{"x", "3", "2", "1", "y"}

	got := DiffLines(a, b, DiffOptions{MaxLines: 2})
	if len(got) != 1 {
		t.Fatalf("len(hunks) = %d, want 1", len(got))
	}
	want := "-1|-2|-3|+3|+2|+1"
	if s := strings.Join(got[0].Lines, "|"); s != want {
		t.Errorf("lines = %q, want %q", s, want)
	}
}

func TestDiffReaders(t *testing.T) {
	before := piece.New("package main\n\nfunc main() {}\n")
	after := piece.New("package main\n\nimport \"fmt\"\n\nfunc main() {}\n")

	got := Unified(Diff(before, after, DefaultDiffOptions()), "a/main.go", "b/main.go")
	want := "--- a/main.go\n+++ b/main.go\n" +
		"@@ -1,4 +1,6 @@\n" +
		" package main\n" +
		" \n" +
		"+import \"fmt\"\n" +
		"+\n" +
		" func main() {}\n" +
		" \n"
	if got != want {
		t.Errorf("Unified() =\n%s\nwant\n%s", got, want)
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"a", []string{"a"}},
		{"a\n", []string{"a", ""}},
		{"a\r\nb", []string{"a\r", "b"}},
	}
	for _, tt := range tests {
		got := Lines(piece.New(tt.in))
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("Lines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
