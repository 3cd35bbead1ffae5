package tracking

import (
	"fmt"
	"strings"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// DiffOptions configures diff computation.
type DiffOptions struct {
	// ContextLines is the number of unchanged lines kept around each change.
	ContextLines int

	// MaxLines bounds the changed region handed to the Myers search. Larger
	// regions are reported as one deletion followed by one insertion.
	// Zero disables the bound.
	MaxLines int
}

// DefaultDiffOptions returns default diff options.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{
		ContextLines: 3,
		MaxLines:     10000,
	}
}

// LineOp is the kind of a line in an edit script.
type LineOp uint8

const (
	// LineEqual marks a line present in both versions.
	LineEqual LineOp = iota
	// LineInsert marks a line only in the new version.
	LineInsert
	// LineDelete marks a line only in the old version.
	LineDelete
)

// String returns the op name.
func (op LineOp) String() string {
	switch op {
	case LineEqual:
		return "equal"
	case LineInsert:
		return "insert"
	case LineDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type edit struct {
	op       LineOp
	old, new int
}

// Hunk is a run of changes with surrounding context. Lines carry a one-byte
// prefix: ' ' for context, '-' for deleted and '+' for inserted lines.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []string
}

// Lines splits a document into lines without their newline bytes.
func Lines(r text.Reader) []string {
	n := r.LineCount()
	lines := make([]string, 0, n)
	for i := range n {
		start, _ := r.OffsetOfLine(i)
		end := r.Len()
		if i+1 < n {
			next, _ := r.OffsetOfLine(i + 1)
			end = next - 1
		}
		s, _ := r.Slice(text.Range{Start: start, End: end})
		lines = append(lines, s)
	}
	return lines
}

// Diff computes the line hunks that turn a into b.
func Diff(a, b text.Reader, opts DiffOptions) []Hunk {
	return DiffLines(Lines(a), Lines(b), opts)
}

// DiffLines computes the hunks that turn the lines of a into the lines of b.
func DiffLines(a, b []string, opts DiffOptions) []Hunk {
	return hunks(a, b, script(a, b, opts.MaxLines), max(opts.ContextLines, 0))
}

// script returns the full edit script, equal lines included.
func script(a, b []string, maxLines int) []edit {
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	var edits []edit
	for i := range prefix {
		edits = append(edits, edit{op: LineEqual, old: i, new: i})
	}

	midA := a[prefix : len(a)-suffix]
	midB := b[prefix : len(b)-suffix]
	var mid []edit
	if maxLines > 0 && (len(midA) > maxLines || len(midB) > maxLines) {
		mid = replaceAll(len(midA), len(midB))
	} else {
		mid = myers(midA, midB)
	}
	for _, e := range mid {
		e.old += prefix
		e.new += prefix
		edits = append(edits, e)
	}

	for i := range suffix {
		edits = append(edits, edit{
			op:  LineEqual,
			old: len(a) - suffix + i,
			new: len(b) - suffix + i,
		})
	}
	return edits
}

func replaceAll(n, m int) []edit {
	edits := make([]edit, 0, n+m)
	for i := range n {
		edits = append(edits, edit{op: LineDelete, old: i})
	}
	for j := range m {
		edits = append(edits, edit{op: LineInsert, old: n, new: j})
	}
	return edits
}

// myers finds a shortest edit script between a and b.
func myers(a, b []string) []edit {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return replaceAll(n, m)
	}

	maxD := n + m
	off := maxD
	v := make([]int, 2*maxD+2)
	var trace [][]int

search:
	for d := 0; d <= maxD; d++ {
		trace = append(trace, append([]int(nil), v...))
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[off+k-1] < v[off+k+1]) {
				x = v[off+k+1]
			} else {
				x = v[off+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[off+k] = x
			if x >= n && y >= m {
				break search
			}
		}
	}

	var edits []edit
	x, y := n, m
	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && v[off+k-1] < v[off+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[off+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			edits = append(edits, edit{op: LineEqual, old: x, new: y})
		}
		if d > 0 {
			if x == prevX {
				edits = append(edits, edit{op: LineInsert, old: x, new: prevY})
			} else {
				edits = append(edits, edit{op: LineDelete, old: prevX, new: y})
			}
		}
		x, y = prevX, prevY
	}

	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
	return edits
}

// hunks groups an edit script into hunks. Changes separated by at most
// 2*context equal lines share a hunk.
func hunks(a, b []string, edits []edit, context int) []Hunk {
	var out []Hunk
	i := 0
	for i < len(edits) {
		for i < len(edits) && edits[i].op == LineEqual {
			i++
		}
		if i == len(edits) {
			break
		}

		start := max(i-context, 0)
		end := i
		for end < len(edits) {
			if edits[end].op != LineEqual {
				end++
				continue
			}
			run := end
			for run < len(edits) && edits[run].op == LineEqual {
				run++
			}
			if run == len(edits) || run-end > 2*context {
				break
			}
			end = run
		}
		stop := min(end+context, len(edits))

		h := Hunk{OldStart: edits[start].old, NewStart: edits[start].new}
		for _, e := range edits[start:stop] {
			switch e.op {
			case LineEqual:
				h.Lines = append(h.Lines, " "+a[e.old])
				h.OldCount++
				h.NewCount++
			case LineDelete:
				h.Lines = append(h.Lines, "-"+a[e.old])
				h.OldCount++
			case LineInsert:
				h.Lines = append(h.Lines, "+"+b[e.new])
				h.NewCount++
			}
		}
		out = append(out, h)
		i = stop
	}
	return out
}

// Unified renders hunks in unified diff format. It returns "" when there are
// no hunks.
func Unified(hunks []Hunk, oldName, newName string) string {
	if len(hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldName, newName)
	for _, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", hunkRange(h.OldStart, h.OldCount), hunkRange(h.NewStart, h.NewCount))
		for _, line := range h.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// hunkRange formats a 0-based start as a unified diff range. An empty range
// names the line before it.
func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start)
	}
	return fmt.Sprintf("%d,%d", start+1, count)
}
