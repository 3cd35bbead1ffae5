package sumtree

import (
	"strings"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// Summary holds aggregated metrics for a subtree.
type Summary struct {
	// Bytes is the UTF-8 byte count.
	Bytes text.ByteOffset

	// Lines is the number of newline characters.
	Lines int

	// Items is the number of leaf items.
	Items int
}

// Add combines two summaries.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Bytes: s.Bytes + other.Bytes,
		Lines: s.Lines + other.Lines,
		Items: s.Items + other.Items,
	}
}

// Item is a run of text stored in a leaf.
//
// Items are values and must not change after creation. Split is only called
// with 0 < at < Len().
type Item[T any] interface {
	// Len returns the byte length.
	Len() int

	// Newlines returns the number of '\n' bytes.
	Newlines() int

	// Split divides the item into [0, at) and [at, Len()).
	Split(at int) (T, T)

	// AppendTo writes bytes [from, to) to sb.
	AppendTo(sb *strings.Builder, from, to int)

	// ByteAt returns the byte at index i.
	ByteAt(i int) byte

	// CountNewlines returns the number of '\n' bytes in [0, to).
	CountNewlines(to int) int

	// NthNewline returns the index of the nth '\n' (1-based), or -1.
	NthNewline(n int) int
}

func summarize[T Item[T]](it T) Summary {
	return Summary{Bytes: text.ByteOffset(it.Len()), Lines: it.Newlines(), Items: 1}
}
