package engine

import (
	"time"

	"github.com/vivax3794/arcane/internal/engine/buffer"
	"github.com/vivax3794/arcane/internal/engine/cursor"
	"github.com/vivax3794/arcane/internal/engine/history"
	"github.com/vivax3794/arcane/internal/engine/tracking"
	"github.com/vivax3794/arcane/internal/logging"
)

// Default configuration values.
const (
	DefaultTabWidth        = buffer.DefaultTabWidth
	DefaultMaxUndoEntries  = history.DefaultMaxEntries
	DefaultCoalesceWindow  = history.DefaultCoalesceWindow
	DefaultMaxCoalesce     = history.DefaultMaxCoalesce
	DefaultMaxDocumentSize = buffer.DefaultMaxSize
	DefaultMaxCursors      = cursor.DefaultMaxCursors
	DefaultMaxChanges      = tracking.DefaultMaxChanges
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithBackend selects the text store backend.
func WithBackend(kind buffer.Kind) Option {
	return func(e *Engine) {
		e.kind = kind
	}
}

// WithTabWidth sets the tab width used for visual columns.
func WithTabWidth(width int) Option {
	return func(e *Engine) {
		if width > 0 {
			e.tabWidth = width
		}
	}
}

// WithMaxDocumentSize bounds the document length in bytes.
func WithMaxDocumentSize(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSize = n
		}
	}
}

// WithMaxCursors bounds the number of cursors.
func WithMaxCursors(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCursors = n
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxUndoEntries = n
		}
	}
}

// WithCoalesceWindow sets the longest pause between keystrokes that still
// merges them into one undo step. Zero disables coalescing.
func WithCoalesceWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.coalesceWindow = d
		}
	}
}

// WithMaxCoalesce sets how many keystrokes one undo step may absorb.
func WithMaxCoalesce(n int) Option {
	return func(e *Engine) {
		e.maxCoalesce = n
	}
}

// WithWordBoundaries starts a new undo step at the first character of each
// typed word.
func WithWordBoundaries(enabled bool) Option {
	return func(e *Engine) {
		e.wordBoundaries = enabled
	}
}

// WithMaxChanges sets how many committed operations ChangesSince can replay.
func WithMaxChanges(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxChanges = n
		}
	}
}

// WithLogger sets the logger. The engine logs at debug level only.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the time source used for coalescing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithReadOnly creates a read-only engine. Text mutations return
// ErrReadOnly; cursor commands still work.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
