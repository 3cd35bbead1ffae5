package search

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/match"
	"golang.org/x/text/cases"
)

// span is a byte range within a line.
type span struct {
	start, end int
}

// matcher finds query occurrences in a single line.
type matcher interface {
	find(line string) []span
}

// compile builds the matcher for query.
func compile(query string, opts Options) (matcher, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}
	if !utf8.ValidString(query) {
		return nil, fmt.Errorf("%w: query is not valid UTF-8", ErrInvalidQuery)
	}

	switch opts.Mode {
	case ModeGlob:
		return newGlobMatcher(query, opts.CaseSensitive), nil
	case ModeRegex:
		re, err := CompileQuery(query, opts)
		if err != nil {
			return nil, err
		}
		return regexpMatcher{re}, nil
	case ModeLiteral:
		if opts.WholeWord {
			re, err := CompileQuery(query, opts)
			if err != nil {
				return nil, err
			}
			return regexpMatcher{re}, nil
		}
		if opts.CaseSensitive {
			return literalMatcher(query), nil
		}
		return newFoldMatcher(query), nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %v", ErrInvalidQuery, opts.Mode)
	}
}

// CompileQuery compiles a query into a regular expression, quoting it
// unless the mode is ModeRegex.
func CompileQuery(query string, opts Options) (*regexp.Regexp, error) {
	pattern := query
	if opts.Mode != ModeRegex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if opts.WholeWord {
		pattern = `\b(?:` + pattern + `)\b`
	}
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return re, nil
}

type literalMatcher string

func (m literalMatcher) find(line string) []span {
	var out []span
	for from := 0; from <= len(line); {
		i := strings.Index(line[from:], string(m))
		if i < 0 {
			break
		}
		start := from + i
		out = append(out, span{start, start + len(m)})
		from = start + len(m)
	}
	return out
}

type regexpMatcher struct {
	re *regexp.Regexp
}

func (m regexpMatcher) find(line string) []span {
	var out []span
	for _, loc := range m.re.FindAllStringIndex(line, -1) {
		// Empty matches carry no text to highlight.
		if loc[0] == loc[1] {
			continue
		}
		out = append(out, span{loc[0], loc[1]})
	}
	return out
}

// foldMatcher matches case-insensitively by comparing case-folded text.
type foldMatcher struct {
	needle string
}

func newFoldMatcher(query string) foldMatcher {
	return foldMatcher{needle: cases.Fold().String(query)}
}

func (m foldMatcher) find(line string) []span {
	folded := foldLine(line)
	var out []span
	for from := 0; from < len(folded.text); {
		i := strings.Index(folded.text[from:], m.needle)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(m.needle)
		// A match that begins or ends inside the folding of one rune
		// (like "s" within the "ss" of "ß") does not cover whole runes.
		if !folded.boundary[start] || !folded.boundary[end] {
			from = start + 1
			continue
		}
		out = append(out, span{folded.origin[start], folded.origin[end]})
		from = end
	}
	return out
}

// foldedLine is a case-folded line with a byte map back to the original.
type foldedLine struct {
	text string
	// origin[i] is the original offset of the rune that folded byte i came
	// from. It has one extra entry for the end of the line.
	origin []int
	// boundary[i] is true where a rune's folding starts.
	boundary []bool
}

func foldLine(line string) foldedLine {
	caser := cases.Fold()
	var b strings.Builder
	b.Grow(len(line))
	origin := make([]int, 0, len(line)+1)
	boundary := make([]bool, 0, len(line)+1)

	for i, r := range line {
		f := caser.String(string(r))
		b.WriteString(f)
		for k := range len(f) {
			origin = append(origin, i)
			boundary = append(boundary, k == 0)
		}
	}
	origin = append(origin, len(line))
	boundary = append(boundary, true)
	return foldedLine{text: b.String(), origin: origin, boundary: boundary}
}

// globMatcher matches whole lines against a wildcard pattern.
type globMatcher struct {
	pattern       string
	caseSensitive bool
}

func newGlobMatcher(pattern string, caseSensitive bool) globMatcher {
	if !caseSensitive {
		pattern = cases.Fold().String(pattern)
	}
	return globMatcher{pattern: pattern, caseSensitive: caseSensitive}
}

func (m globMatcher) find(line string) []span {
	subject := line
	if !m.caseSensitive {
		subject = cases.Fold().String(line)
	}
	if !match.Match(subject, m.pattern) {
		return nil
	}
	return []span{{0, len(line)}}
}
