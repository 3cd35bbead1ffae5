package history

import "time"

const (
	// DefaultMaxEntries bounds the undo stack.
	DefaultMaxEntries = 1000
	// DefaultCoalesceWindow is the longest pause that still merges keystrokes.
	DefaultCoalesceWindow = time.Second
	// DefaultMaxCoalesce is the most edits a single entry absorbs.
	DefaultMaxCoalesce = 50
)

// Option configures a History.
type Option func(*History)

// WithMaxEntries sets the maximum number of undo entries.
// Values below 1 are ignored.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// WithCoalesceWindow sets the longest pause between edits that still merges
// them. A zero window disables coalescing.
func WithCoalesceWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.window = d
		}
	}
}

// WithMaxCoalesce sets how many edits one entry may absorb.
// Values below 1 disable coalescing.
func WithMaxCoalesce(n int) Option {
	return func(h *History) {
		h.maxCoalesce = max(n, 0)
	}
}

// WithWordBoundaries makes the first character of a new word start a new
// entry.
func WithWordBoundaries(enabled bool) Option {
	return func(h *History) {
		h.wordBoundaries = enabled
	}
}
