package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/engine/buffer"
	"github.com/vivax3794/arcane/internal/engine/text"
)

func snapshot(t *testing.T, content string, gen uint64) *buffer.Snapshot {
	t.Helper()
	b, err := buffer.NewFromString(content)
	require.NoError(t, err)
	return b.Snapshot(gen)
}

func ranges(res Result) []text.Range {
	var out []text.Range
	for _, m := range res.Matches {
		out = append(out, m.Range)
	}
	return out
}

// steppingSource hands out its snapshots in order and always reports the
// newest generation.
type steppingSource struct {
	snaps []*buffer.Snapshot
	next  int
}

func (s *steppingSource) Snapshot() *buffer.Snapshot {
	snap := s.snaps[min(s.next, len(s.snaps)-1)]
	s.next++
	return snap
}

func (s *steppingSource) Generation() uint64 {
	return s.snaps[len(s.snaps)-1].Generation()
}

func TestFindModes(t *testing.T) {
	content := "func main() {\n\tHello := \"hello\"\n}\nfunc helloWorld() {}\n"

	tests := []struct {
		name  string
		query string
		opts  Options
		want  []text.Range
	}{
		{"literal insensitive", "hello", Options{}, []text.Range{{Start: 15, End: 20}, {Start: 25, End: 30}, {Start: 39, End: 44}}},
		{"literal sensitive", "Hello", Options{CaseSensitive: true}, []text.Range{{Start: 15, End: 20}}},
		{"whole word", "hello", Options{WholeWord: true}, []text.Range{{Start: 15, End: 20}, {Start: 25, End: 30}}},
		{"regex", `func \w+`, Options{Mode: ModeRegex, CaseSensitive: true}, []text.Range{{Start: 0, End: 9}, {Start: 34, End: 49}}},
		{"glob", "func *", Options{Mode: ModeGlob}, []text.Range{{Start: 0, End: 13}, {Start: 34, End: 54}}},
		{"glob sensitive", "FUNC *", Options{Mode: ModeGlob, CaseSensitive: true}, nil},
		{"no match", "absent", Options{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Find(context.Background(), snapshot(t, content, 7), tt.query, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, uint64(7), res.Generation)
			assert.Equal(t, tt.want, ranges(res))
		})
	}
}

func TestFindUnicodeFolding(t *testing.T) {
	content := "Die Straße ist lang\nSTRASSE\n"
	snap := snapshot(t, content, 1)

	res, err := Find(context.Background(), snap, "strasse", Options{})
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)

	first, err := snap.Slice(res.Matches[0].Range)
	require.NoError(t, err)
	assert.Equal(t, "Straße", first)
	assert.Equal(t, 4, res.Matches[0].Column)
	assert.Equal(t, 1, res.Matches[1].Line)

	// A match inside the folding of a single rune is not reported.
	res, err = Find(context.Background(), snapshot(t, "ß", 1), "s", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}

func TestFindContextAndLimits(t *testing.T) {
	content := "a\nb\nneedle\nc\nd\nneedle\n"
	snap := snapshot(t, content, 1)

	res, err := Find(context.Background(), snap, "needle", Options{ContextLines: 2})
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, []string{"a", "b"}, res.Matches[0].ContextBefore)
	assert.Equal(t, []string{"c", "d"}, res.Matches[0].ContextAfter)
	assert.Equal(t, []string{""}, res.Matches[1].ContextAfter)
	assert.False(t, res.Truncated)

	res, err = Find(context.Background(), snap, "needle", Options{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.True(t, res.Truncated)
	assert.Nil(t, res.Matches[0].ContextBefore)
}

func TestFindInvalidQuery(t *testing.T) {
	snap := snapshot(t, "abc", 0)
	tests := []struct {
		name  string
		query string
		opts  Options
	}{
		{"empty", "", Options{}},
		{"invalid utf8", "\xff", Options{}},
		{"bad regex", "(", Options{Mode: ModeRegex}},
		{"unknown mode", "a", Options{Mode: Mode(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Find(context.Background(), snap, tt.query, tt.opts)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}

func TestFindCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Find(ctx, snapshot(t, "abc", 0), "a", Options{})
	assert.ErrorIs(t, err, ErrSearchCanceled)
}

func TestSearcherRestartsOnNewGeneration(t *testing.T) {
	src := &steppingSource{snaps: []*buffer.Snapshot{
		snapshot(t, "old text", 1),
		snapshot(t, "new text, new", 2),
	}}

	res, err := New(src).Search(context.Background(), "new", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Generation)
	assert.Equal(t, 1, res.Restarts)
	assert.Len(t, res.Matches, 2)
	assert.False(t, res.Stale(src))
}

func TestSearcherMaxRestarts(t *testing.T) {
	src := &steppingSource{snaps: []*buffer.Snapshot{
		snapshot(t, "one", 1),
		snapshot(t, "one", 1),
		snapshot(t, "one", 1),
		snapshot(t, "one", 5),
	}}

	res, err := New(src, WithMaxRestarts(2)).Search(context.Background(), "one", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Restarts)
	assert.Equal(t, uint64(1), res.Generation)
	assert.True(t, res.Stale(src))
}

func TestSearcherOverEngine(t *testing.T) {
	e, err := engine.New(engine.WithContent("alpha beta\ngamma alpha\n"))
	require.NoError(t, err)
	s := New(e, WithCheckInterval(1))

	res, err := s.Search(context.Background(), "ALPHA", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, text.Range{Start: 17, End: 22}, res.Matches[1].Range)

	require.NoError(t, e.Insert(0, "alpha "))
	assert.True(t, res.Stale(e))

	res, err = s.Search(context.Background(), "alpha", DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
	assert.Equal(t, e.Generation(), res.Generation)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeLiteral, ModeRegex, ModeGlob} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("fuzzy")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
