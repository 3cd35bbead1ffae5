package history

import (
	"slices"
	"time"

	"github.com/vivax3794/arcane/internal/engine/cursor"
)

// Entry is one undo step.
type Entry struct {
	// Ops are the operations in the order they were applied.
	Ops []Operation

	// Before is the cursor state before the first operation.
	Before cursor.State
	// After is the cursor state after the last operation.
	After cursor.State

	// Label describes the step, e.g. "type" or "Replace All".
	Label string
	// Time is when the newest edit in the entry was made.
	Time time.Time

	// Coalesce marks keystroke-sized edits that may merge with their
	// neighbours.
	Coalesce bool

	edits int
	tail  []Operation
}

// Kind returns the common kind of all operations, or KindReplace when they
// are mixed.
func (e *Entry) Kind() Kind {
	if len(e.Ops) == 0 {
		return KindReplace
	}
	k := e.Ops[0].Kind()
	for _, op := range e.Ops[1:] {
		if op.Kind() != k {
			return KindReplace
		}
	}
	return k
}

// Edits returns how many recorded edits were merged into the entry.
func (e *Entry) Edits() int {
	return max(e.edits, 1)
}

// Delta returns the net change in document length.
func (e *Entry) Delta() ByteOffset {
	var d ByteOffset
	for _, op := range e.Ops {
		d += op.Delta()
	}
	return d
}

// Inverse returns the operations that undo the entry, in application order.
func (e *Entry) Inverse() []Operation {
	inv := make([]Operation, len(e.Ops))
	for i, op := range e.Ops {
		inv[len(e.Ops)-1-i] = op.Inverse()
	}
	return inv
}

// Info is a read-only summary of an entry.
type Info struct {
	Label string
	Kind  Kind
	Ops   int
	Edits int
	Time  time.Time
}

func (e *Entry) info() Info {
	return Info{Label: e.Label, Kind: e.Kind(), Ops: len(e.Ops), Edits: e.Edits(), Time: e.Time}
}

// marks returns, for each operation of the latest edit, the position its edit
// point ended up at once the whole edit was applied.
func (e *Entry) marks() []ByteOffset {
	m := make([]ByteOffset, len(e.tail))
	for i, op := range e.tail {
		p := op.Offset
		if op.Kind() == KindInsert {
			p += ByteOffset(len(op.Inserted))
		}
		for _, later := range e.tail[i+1:] {
			p = later.MapOffset(p)
		}
		m[i] = p
	}
	return m
}

func statesEqual(a, b cursor.State) bool {
	return a.Primary == b.Primary && slices.Equal(a.Cursors, b.Cursors)
}
