package sumtree

import (
	"fmt"
	"iter"
	"strings"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// Tree is an immutable sequence of items. The zero value is an empty tree.
type Tree[T Item[T]] struct {
	root *node[T]
}

// Build creates a balanced tree from items in order.
// Zero-length items are dropped.
func Build[T Item[T]](items ...T) Tree[T] {
	var level []*node[T]
	leaf := make([]T, 0, MaxItemsPerLeaf)
	for _, it := range items {
		if it.Len() == 0 {
			continue
		}
		leaf = append(leaf, it)
		if len(leaf) == MaxItemsPerLeaf {
			level = append(level, newLeaf(leaf))
			leaf = make([]T, 0, MaxItemsPerLeaf)
		}
	}
	if len(leaf) > 0 {
		level = append(level, newLeaf(leaf))
	}

	for len(level) > 1 {
		var parents []*node[T]
		for i := 0; i < len(level); i += MaxChildren {
			end := min(i+MaxChildren, len(level))
			parents = append(parents, newInternal(append([]*node[T](nil), level[i:end]...)))
		}
		level = parents
	}

	if len(level) == 0 {
		return Tree[T]{}
	}
	return Tree[T]{root: level[0]}
}

// Join returns the concatenation of a and b.
func Join[T Item[T]](a, b Tree[T]) Tree[T] {
	return Tree[T]{root: join(a.root, b.root)}
}

// Summary returns the aggregated metrics of the whole tree.
func (t Tree[T]) Summary() Summary {
	if t.root == nil {
		return Summary{}
	}
	return t.root.summary
}

// Len returns the total byte length.
func (t Tree[T]) Len() text.ByteOffset {
	return t.Summary().Bytes
}

// LineCount returns the number of lines (newlines + 1).
func (t Tree[T]) LineCount() int {
	return t.Summary().Lines + 1
}

// IsEmpty returns true if the tree holds no text.
func (t Tree[T]) IsEmpty() bool {
	return t.root == nil
}

// Height returns the number of levels, 0 for an empty tree.
func (t Tree[T]) Height() int {
	if t.root == nil {
		return 0
	}
	return t.root.height + 1
}

// Split divides the tree at offset, which is clamped to [0, Len()].
func (t Tree[T]) Split(offset text.ByteOffset) (Tree[T], Tree[T]) {
	l, r := split(t.root, offset)
	return Tree[T]{root: l}, Tree[T]{root: r}
}

// Splice replaces bytes in r with items. The range is not validated.
func (t Tree[T]) Splice(r text.Range, items ...T) Tree[T] {
	left, rest := split(t.root, r.Start)
	_, right := split(rest, r.End-r.Start)
	mid := Build(items...)
	return Tree[T]{root: join(join(left, mid.root), right)}
}

// Locate returns the item containing offset and the offset at which that
// item starts. The end-of-tree offset maps to the last item. ok is false for
// an empty tree or an offset outside [0, Len()].
func (t Tree[T]) Locate(offset text.ByteOffset) (item T, start text.ByteOffset, ok bool) {
	n := t.root
	if n == nil || offset < 0 || offset > n.summary.Bytes {
		return item, 0, false
	}
	within := offset
	for n.height > 0 {
		var i int
		i, within = n.childByOffset(within)
		n = n.children[i]
	}
	i, within := n.itemByOffset(within)
	return n.items[i], offset - within, true
}

// All iterates over the items in order.
func (t Tree[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if t.root != nil {
			t.root.each(yield)
		}
	}
}

// String returns the full text.
func (t Tree[T]) String() string {
	if t.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(int(t.Len()))
	t.root.appendRange(&sb, 0, t.Len())
	return sb.String()
}

// Slice returns the text in r.
func (t Tree[T]) Slice(r text.Range) (string, error) {
	if err := text.CheckRange(t, r); err != nil {
		return "", err
	}
	if r.IsEmpty() {
		return "", nil
	}
	var sb strings.Builder
	sb.Grow(int(r.Len()))
	t.root.appendRange(&sb, r.Start, r.End)
	return sb.String(), nil
}

// ByteAt returns the byte at offset.
func (t Tree[T]) ByteAt(offset text.ByteOffset) (byte, error) {
	if offset < 0 || offset >= t.Len() {
		return 0, fmt.Errorf("byte offset %d not in [0, %d): %w", offset, t.Len(), text.ErrOutOfRange)
	}
	it, start, _ := t.Locate(offset)
	return it.ByteAt(int(offset - start)), nil
}

// LineOfOffset returns the zero-based line containing offset.
func (t Tree[T]) LineOfOffset(offset text.ByteOffset) (int, error) {
	if err := text.CheckOffset(t, offset); err != nil {
		return 0, err
	}
	n := t.root
	if n == nil {
		return 0, nil
	}

	line := 0
	within := offset
	for n.height > 0 {
		i, w := n.childByOffset(within)
		for _, c := range n.children[:i] {
			line += c.summary.Lines
		}
		n, within = n.children[i], w
	}
	i, w := n.itemByOffset(within)
	for _, it := range n.items[:i] {
		line += it.Newlines()
	}
	return line + n.items[i].CountNewlines(int(w)), nil
}

// OffsetOfLine returns the offset of the first byte of line.
func (t Tree[T]) OffsetOfLine(line int) (text.ByteOffset, error) {
	if line < 0 || line >= t.LineCount() {
		return 0, fmt.Errorf("line %d not in [0, %d): %w", line, t.LineCount(), text.ErrOutOfRange)
	}
	if line == 0 {
		return 0, nil
	}

	// The line starts right after the line-th newline.
	nth := line
	base := text.ByteOffset(0)
	n := t.root
	for n.height > 0 {
		for _, c := range n.children {
			if nth <= c.summary.Lines {
				n = c
				break
			}
			nth -= c.summary.Lines
			base += c.summary.Bytes
		}
	}
	for _, it := range n.items {
		if nth <= it.Newlines() {
			return base + text.ByteOffset(it.NthNewline(nth)) + 1, nil
		}
		nth -= it.Newlines()
		base += text.ByteOffset(it.Len())
	}
	return 0, fmt.Errorf("line %d: summary mismatch: %w", line, text.ErrOutOfRange)
}
