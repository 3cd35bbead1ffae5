package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vivax3794/arcane/internal/engine/buffer"
	"github.com/vivax3794/arcane/internal/engine/text"
)

// Common errors.
var (
	ErrInvalidQuery   = errors.New("invalid search query")
	ErrSearchCanceled = errors.New("search canceled")
)

// Source supplies snapshots to search. *engine.Engine implements it.
type Source interface {
	// Snapshot returns the latest published snapshot.
	Snapshot() *buffer.Snapshot

	// Generation returns the current generation, which may be newer than
	// the snapshot returned by an earlier call.
	Generation() uint64
}

// Mode specifies how a query is interpreted.
type Mode int

const (
	// ModeLiteral matches the query text as is.
	ModeLiteral Mode = iota

	// ModeRegex compiles the query as a regular expression.
	ModeRegex

	// ModeGlob matches whole lines against a wildcard pattern.
	ModeGlob
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLiteral:
		return "literal"
	case ModeRegex:
		return "regex"
	case ModeGlob:
		return "glob"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "literal":
		return ModeLiteral, nil
	case "regex", "regexp":
		return ModeRegex, nil
	case "glob":
		return ModeGlob, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidQuery, s)
	}
}

// Options configures a search.
type Options struct {
	// Query matching
	Mode          Mode
	CaseSensitive bool
	WholeWord     bool

	// MaxResults limits the number of matches (0 = unlimited)
	MaxResults int

	// ContextLines is the number of lines kept around each match
	ContextLines int
}

// DefaultOptions returns sensible defaults for searching a document.
func DefaultOptions() Options {
	return Options{
		Mode:         ModeLiteral,
		MaxResults:   1000,
		ContextLines: 2,
	}
}

// Match is one occurrence of the query.
type Match struct {
	// Range is the matched text in document bytes.
	Range text.Range

	// Line is the zero-based line of the match start.
	Line int

	// Column is the byte column of the match start within Line.
	Column int

	// Text is the full line containing the match.
	Text string

	// ContextBefore contains lines before the match
	ContextBefore []string

	// ContextAfter contains lines after the match
	ContextAfter []string
}

// Result is the outcome of searching one generation.
type Result struct {
	// Generation is the snapshot generation the matches refer to.
	Generation uint64

	// Matches in document order.
	Matches []Match

	// Truncated is set when MaxResults cut the search short.
	Truncated bool

	// Restarts counts how often the document changed under the search.
	Restarts int
}

// Stale reports whether r no longer describes the source's document.
func (r Result) Stale(src Source) bool {
	return src.Generation() != r.Generation
}
