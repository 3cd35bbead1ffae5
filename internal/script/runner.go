package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/logging"
)

// DefaultTimeout bounds a script run when no deadline is configured.
const DefaultTimeout = 5 * time.Second

// Runner executes scripts against one engine. Runs are serialized: the Lua
// state and the engine are both single-goroutine.
type Runner struct {
	mu sync.Mutex

	e       *engine.Engine
	log     *logging.Logger
	output  io.Writer
	timeout time.Duration
	grouped bool
	closed  bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutput sets where print writes. The default discards output.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		if w != nil {
			r.output = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithTimeout sets the execution timeout for each run. Zero disables it.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithUndoStep controls whether a run is recorded as a single undo step.
// When disabled, buf.undo and buf.redo work inside scripts but a failing
// script keeps the edits it made before the failure.
func WithUndoStep(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.grouped = enabled
	}
}

// NewRunner creates a Runner for e.
func NewRunner(e *engine.Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		e:       e,
		log:     logging.Discard(),
		output:  io.Discard,
		timeout: DefaultTimeout,
		grouped: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("script")
	return r
}

// Run executes code. name labels the chunk in error messages and the undo
// step.
func (r *Runner) Run(ctx context.Context, name, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	L := newState(r.output)
	defer L.Close()
	L.SetContext(ctx)

	mod := &bufModule{e: r.e, ctx: ctx}
	mod.register(L)

	start := time.Now()
	gen := r.e.Generation()
	run := func() error {
		if err := load(L, name, code); err != nil {
			return r.wrap(ctx, name, err)
		}
		return nil
	}

	var err error
	if r.grouped && !r.e.IsReadOnly() {
		err = r.e.Group("script "+name, run)
	} else {
		err = run()
	}
	if err != nil {
		r.log.Warn("%s failed: %v", name, err)
		return err
	}

	r.log.WithField("elapsed", time.Since(start)).
		Debug("%s ran: generation %d -> %d", name, gen, r.e.Generation())
	return nil
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return r.Run(ctx, filepath.Base(path), string(data))
}

// Close stops the runner. Later runs return ErrRunnerClosed.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// wrap converts a Lua failure into an *Error, recovering the engine error
// raised by a buf call or the context error of a timeout.
func (r *Runner) wrap(ctx context.Context, name string, err error) error {
	se := &Error{Script: name, Message: err.Error()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		se.Message = "execution stopped"
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			se.Err = fmt.Errorf("%w: %w", ErrExecutionTimeout, ctxErr)
		} else {
			se.Err = ctxErr
		}
		return se
	}

	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		if ud, ok := apiErr.Object.(*lua.LUserData); ok {
			if cause, ok := ud.Value.(error); ok {
				se.Message = cause.Error()
				se.Err = cause
				return se
			}
		}
		if apiErr.Object != nil {
			se.Message = apiErr.Object.String()
		}
	}
	return se
}
