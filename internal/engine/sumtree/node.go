package sumtree

import (
	"strings"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// Tree shape constants.
const (
	// MaxChildren is the maximum children per internal node before splitting.
	MaxChildren = 8

	// MaxItemsPerLeaf is the maximum items in a leaf node.
	MaxItemsPerLeaf = 8
)

// node is a B+ tree node. Leaves (height 0) hold items, internal nodes hold
// children of height-1. Nodes are never modified once built.
type node[T Item[T]] struct {
	height   int
	summary  Summary
	children []*node[T]
	items    []T
}

func newLeaf[T Item[T]](items []T) *node[T] {
	if len(items) == 0 {
		return nil
	}
	n := &node[T]{items: items}
	for _, it := range items {
		n.summary = n.summary.Add(summarize(it))
	}
	return n
}

func newInternal[T Item[T]](children []*node[T]) *node[T] {
	if len(children) == 0 {
		return nil
	}
	n := &node[T]{height: children[0].height + 1, children: children}
	for _, c := range children {
		n.summary = n.summary.Add(c.summary)
	}
	return n
}

// group wraps a run of siblings back into a single node.
func group[T Item[T]](children []*node[T]) *node[T] {
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return newInternal(append([]*node[T](nil), children...))
}

// grow builds a node from same-height children, adding a level when there
// are more than MaxChildren.
func grow[T Item[T]](children []*node[T]) *node[T] {
	if len(children) <= MaxChildren {
		return newInternal(children)
	}
	mid := len(children) / 2
	left := append([]*node[T](nil), children[:mid]...)
	right := append([]*node[T](nil), children[mid:]...)
	return newInternal([]*node[T]{newInternal(left), newInternal(right)})
}

// join concatenates two trees. The result is at most one level taller than
// the taller input.
func join[T Item[T]](a, b *node[T]) *node[T] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	switch {
	case a.height == b.height:
		return merge(a, b)

	case a.height > b.height:
		last := a.children[len(a.children)-1]
		r := join(last, b)
		children := make([]*node[T], 0, len(a.children)+1)
		children = append(children, a.children[:len(a.children)-1]...)
		if r.height == last.height {
			children = append(children, r)
		} else {
			children = append(children, r.children...)
		}
		return grow(children)

	default:
		first := b.children[0]
		r := join(a, first)
		children := make([]*node[T], 0, len(b.children)+1)
		if r.height == first.height {
			children = append(children, r)
		} else {
			children = append(children, r.children...)
		}
		children = append(children, b.children[1:]...)
		return grow(children)
	}
}

// merge concatenates two nodes of the same height.
func merge[T Item[T]](a, b *node[T]) *node[T] {
	if a.height == 0 {
		if len(a.items)+len(b.items) <= MaxItemsPerLeaf {
			items := make([]T, 0, len(a.items)+len(b.items))
			items = append(items, a.items...)
			items = append(items, b.items...)
			return newLeaf(items)
		}
		return newInternal([]*node[T]{a, b})
	}

	children := make([]*node[T], 0, len(a.children)+len(b.children))
	children = append(children, a.children...)
	children = append(children, b.children...)
	return grow(children)
}

// split divides n at offset into [0, offset) and [offset, end).
// Either side may be nil.
func split[T Item[T]](n *node[T], offset text.ByteOffset) (*node[T], *node[T]) {
	if n == nil {
		return nil, nil
	}
	if offset <= 0 {
		return nil, n
	}
	if offset >= n.summary.Bytes {
		return n, nil
	}

	if n.height == 0 {
		var left, right []T
		pos := text.ByteOffset(0)
		for _, it := range n.items {
			l := text.ByteOffset(it.Len())
			switch {
			case pos+l <= offset:
				left = append(left, it)
			case pos >= offset:
				right = append(right, it)
			default:
				a, b := it.Split(int(offset - pos))
				left = append(left, a)
				right = append(right, b)
			}
			pos += l
		}
		return newLeaf(left), newLeaf(right)
	}

	i, within := n.childByOffset(offset)
	cl, cr := split(n.children[i], within)
	left := join(group(n.children[:i]), cl)
	right := join(cr, group(n.children[i+1:]))
	return left, right
}

// childByOffset finds the child containing offset and the offset within it.
// An offset at the very end maps to the end of the last child.
func (n *node[T]) childByOffset(offset text.ByteOffset) (int, text.ByteOffset) {
	for i, c := range n.children {
		if offset < c.summary.Bytes {
			return i, offset
		}
		offset -= c.summary.Bytes
	}
	last := len(n.children) - 1
	return last, offset + n.children[last].summary.Bytes
}

// itemByOffset is childByOffset for leaves.
func (n *node[T]) itemByOffset(offset text.ByteOffset) (int, text.ByteOffset) {
	for i, it := range n.items {
		l := text.ByteOffset(it.Len())
		if offset < l {
			return i, offset
		}
		offset -= l
	}
	last := len(n.items) - 1
	return last, offset + text.ByteOffset(n.items[last].Len())
}

// appendRange appends bytes [start, end) of the subtree to sb.
func (n *node[T]) appendRange(sb *strings.Builder, start, end text.ByteOffset) {
	if start >= end {
		return
	}

	pos := text.ByteOffset(0)
	if n.height == 0 {
		for _, it := range n.items {
			l := text.ByteOffset(it.Len())
			itEnd := pos + l
			if itEnd <= start {
				pos = itEnd
				continue
			}
			if pos >= end {
				break
			}
			it.AppendTo(sb, int(max(start-pos, 0)), int(min(end, itEnd)-pos))
			pos = itEnd
		}
		return
	}

	for _, c := range n.children {
		l := c.summary.Bytes
		cEnd := pos + l
		if cEnd <= start {
			pos = cEnd
			continue
		}
		if pos >= end {
			break
		}
		c.appendRange(sb, max(start-pos, 0), min(end, cEnd)-pos)
		pos = cEnd
	}
}

// each visits items in order until fn returns false.
func (n *node[T]) each(fn func(T) bool) bool {
	if n.height == 0 {
		for _, it := range n.items {
			if !fn(it) {
				return false
			}
		}
		return true
	}
	for _, c := range n.children {
		if !c.each(fn) {
			return false
		}
	}
	return true
}
