package tracking

import (
	"cmp"
	"slices"
	"sync/atomic"

	"github.com/vivax3794/arcane/internal/engine/history"
)

// DefaultMaxChanges is the default number of changes a Log retains.
const DefaultMaxChanges = 4096

// Change is one committed operation.
type Change struct {
	// Generation is the engine generation the operation produced.
	Generation uint64
	Op         history.Operation
}

// view is an immutable published state of the log.
type view struct {
	// base is the newest generation whose changes may be missing.
	base    uint64
	changes []Change
}

// Log is a bounded record of recent changes.
type Log struct {
	max  int
	base uint64
	buf  []Change
	pub  atomic.Pointer[view]
}

// NewLog creates a log that retains at least max changes.
func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxChanges
	}
	l := &Log{max: max}
	l.publish()
	return l
}

// Record appends the operations committed by one generation.
// It must only be called by the engine's mutator.
func (l *Log) Record(gen uint64, ops ...history.Operation) {
	if len(ops) == 0 {
		return
	}
	if len(l.buf)+len(ops) > 2*l.max {
		keep := max(l.max-len(ops), 0)
		drop := len(l.buf) - keep
		if drop > 0 {
			l.base = l.buf[drop-1].Generation
		}
		// Readers may still hold the old array, so compact into a new one.
		next := make([]Change, keep, 2*l.max+len(ops))
		copy(next, l.buf[drop:])
		l.buf = next
	}
	for _, op := range ops {
		l.buf = append(l.buf, Change{Generation: gen, Op: op})
	}
	l.publish()
}

// Reset drops all changes. Readers older than gen must rescan.
func (l *Log) Reset(gen uint64) {
	l.base = gen
	l.buf = nil
	l.publish()
}

func (l *Log) publish() {
	l.pub.Store(&view{base: l.base, changes: l.buf})
}

// Since returns the changes committed after generation gen, oldest first.
// It returns false when some of those changes are no longer retained.
// Safe for concurrent use with Record.
func (l *Log) Since(gen uint64) ([]Change, bool) {
	v := l.pub.Load()
	if gen < v.base {
		return nil, false
	}
	i, _ := slices.BinarySearchFunc(v.changes, gen+1, func(c Change, g uint64) int {
		return cmp.Compare(c.Generation, g)
	})
	if i == len(v.changes) {
		return nil, true
	}
	return slices.Clone(v.changes[i:]), true
}

// Base returns the oldest generation Since can answer from.
func (l *Log) Base() uint64 {
	return l.pub.Load().base
}

// Len returns the number of retained changes.
func (l *Log) Len() int {
	return len(l.pub.Load().changes)
}
