package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/vivax3794/arcane/internal/engine/buffer"
	"github.com/vivax3794/arcane/internal/engine/text"
	"github.com/vivax3794/arcane/internal/logging"
)

// DefaultCheckInterval is how many lines are scanned between checks for
// cancellation and document changes.
const DefaultCheckInterval = 256

// errStale aborts a scan whose snapshot fell behind the source.
var errStale = errors.New("snapshot is stale")

// Searcher runs searches against a Source.
type Searcher struct {
	src           Source
	log           *logging.Logger
	checkInterval int
	maxRestarts   int
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger for restart and cancellation events.
func WithLogger(l *logging.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCheckInterval sets how many lines are scanned between staleness
// checks.
func WithCheckInterval(lines int) Option {
	return func(s *Searcher) {
		if lines > 0 {
			s.checkInterval = lines
		}
	}
}

// WithMaxRestarts bounds how often a search restarts after the document
// changed. Once exhausted, the search completes on the snapshot it has.
// Zero means unlimited.
func WithMaxRestarts(n int) Option {
	return func(s *Searcher) {
		s.maxRestarts = max(n, 0)
	}
}

// New creates a Searcher reading from src.
func New(src Source, opts ...Option) *Searcher {
	s := &Searcher{
		src:           src,
		log:           logging.Discard(),
		checkInterval: DefaultCheckInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("search")
	return s
}

// Search finds query in the latest snapshot. If the document changes while
// scanning, the search restarts on a newer snapshot.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) (Result, error) {
	m, err := compile(query, opts)
	if err != nil {
		return Result{}, err
	}

	restarts := 0
	for {
		snap := s.src.Snapshot()
		exhausted := s.maxRestarts > 0 && restarts >= s.maxRestarts
		stale := func() bool {
			return !exhausted && s.src.Generation() != snap.Generation()
		}

		res, err := scan(ctx, snap, m, opts, s.checkInterval, stale)
		switch {
		case errors.Is(err, errStale):
			restarts++
			s.log.Debug("restarting search for %q at gen %d", query, s.src.Generation())
			continue
		case err != nil:
			s.log.Debug("search for %q stopped: %v", query, err)
			return Result{}, err
		}
		res.Restarts = restarts
		return res, nil
	}
}

// Find searches one snapshot.
func Find(ctx context.Context, snap *buffer.Snapshot, query string, opts Options) (Result, error) {
	m, err := compile(query, opts)
	if err != nil {
		return Result{}, err
	}
	return scan(ctx, snap, m, opts, DefaultCheckInterval, func() bool { return false })
}

func scan(ctx context.Context, snap *buffer.Snapshot, m matcher, opts Options, every int, stale func() bool) (Result, error) {
	res := Result{Generation: snap.Generation()}
	lines := snap.LineCount()

	for line := range lines {
		if line%every == 0 {
			select {
			case <-ctx.Done():
				return Result{}, fmt.Errorf("%w: %v", ErrSearchCanceled, ctx.Err())
			default:
			}
			if stale() {
				return Result{}, errStale
			}
		}

		r, err := snap.LineRange(line)
		if err != nil {
			return Result{}, err
		}
		lineText, err := snap.Slice(r)
		if err != nil {
			return Result{}, err
		}

		for _, sp := range m.find(lineText) {
			if opts.MaxResults > 0 && len(res.Matches) >= opts.MaxResults {
				res.Truncated = true
				return res, nil
			}
			start := r.Start + int64(sp.start)
			res.Matches = append(res.Matches, Match{
				Range:         text.NewRange(start, start+int64(sp.end-sp.start)),
				Line:          line,
				Column:        sp.start,
				Text:          lineText,
				ContextBefore: contextLines(snap, line-opts.ContextLines, line),
				ContextAfter:  contextLines(snap, line+1, min(line+1+opts.ContextLines, lines)),
			})
		}
	}
	return res, nil
}

// contextLines returns the text of lines [from, to), clipped to the
// document.
func contextLines(snap *buffer.Snapshot, from, to int) []string {
	from = max(from, 0)
	if from >= to {
		return nil
	}
	out := make([]string, 0, to-from)
	for line := from; line < to; line++ {
		s, err := snap.LineText(line)
		if err != nil {
			break
		}
		out = append(out, s)
	}
	return out
}
