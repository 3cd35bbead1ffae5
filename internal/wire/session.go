package wire

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/logging"
	"github.com/vivax3794/arcane/internal/search"
)

// MaxLineSize is the longest request line Serve accepts.
const MaxLineSize = 64 << 20

// Session answers requests against one engine.
type Session struct {
	e      *engine.Engine
	log    *logging.Logger
	pretty bool
	search search.Options

	observe func(op string, elapsed time.Duration, err error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPretty indents responses.
func WithPretty(enabled bool) Option {
	return func(s *Session) {
		s.pretty = enabled
	}
}

// WithSearchOptions sets the defaults for find requests.
func WithSearchOptions(opts search.Options) Option {
	return func(s *Session) {
		s.search = opts
	}
}

// WithObserver registers fn to be called after every request with its op,
// duration and error.
func WithObserver(fn func(op string, elapsed time.Duration, err error)) Option {
	return func(s *Session) {
		s.observe = fn
	}
}

// NewSession creates a Session for e.
func NewSession(e *engine.Engine, opts ...Option) *Session {
	s := &Session{
		e:      e,
		log:    logging.Discard(),
		search: search.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("wire")
	return s
}

// Handle decodes one request line, executes it and returns the response
// line without a trailing newline.
func (s *Session) Handle(ctx context.Context, line []byte) []byte {
	resp, _ := s.Exec(ctx, line)
	return resp
}

// Exec is Handle that also returns the error a failed request was answered
// with.
func (s *Session) Exec(ctx context.Context, line []byte) ([]byte, error) {
	start := time.Now()
	req, resp, err := s.handle(ctx, line)
	if s.observe != nil {
		s.observe(req.Op, time.Since(start), err)
	}
	if err != nil {
		s.log.Debug("%s failed: %v", req.Op, err)
		return s.finish(errorResponse(req.ID, err)), err
	}
	return s.finish(resp), nil
}

func (s *Session) handle(ctx context.Context, line []byte) (Request, []byte, error) {
	req, err := Decode(line)
	if err != nil {
		return req, nil, err
	}
	var resp []byte
	if req.Command != nil {
		resp, err = s.apply(req)
	} else {
		resp, err = s.query(ctx, req)
	}
	return req, resp, err
}

// Serve handles every line of r, writing one response line per request to
// w. Blank lines are skipped. It returns when r is exhausted, ctx is done,
// or writing fails.
func (s *Session) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), MaxLineSize)

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	n := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		n++
		if _, err := bw.Write(s.Handle(ctx, line)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	s.log.Debug("served %d requests", n)
	return nil
}

func (s *Session) finish(resp []byte) []byte {
	if s.pretty {
		return pretty.Pretty(resp)
	}
	return resp
}

func (s *Session) apply(req Request) ([]byte, error) {
	// Undo, Redo and AddCursor report a result, so they bypass Apply.
	resp := func() []byte { return okResponse(req.ID, s.e.Generation()) }
	switch c := req.Command.(type) {
	case engine.Undo:
		ok, err := s.e.Undo()
		if err != nil {
			return nil, err
		}
		return sjson.SetBytes(resp(), "done", ok)
	case engine.Redo:
		ok, err := s.e.Redo()
		if err != nil {
			return nil, err
		}
		return sjson.SetBytes(resp(), "done", ok)
	case engine.AddCursor:
		id, err := s.e.AddCursor(c.Offset)
		if err != nil {
			return nil, err
		}
		return sjson.SetBytes(resp(), "cursor", uint64(id))
	default:
		if err := s.e.Apply(c); err != nil {
			return nil, err
		}
		return resp(), nil
	}
}

func (s *Session) query(ctx context.Context, req Request) ([]byte, error) {
	q := req.Query
	resp := okResponse(req.ID, s.e.Generation())

	switch q.Kind {
	case "state":
		return EncodeState(resp, s.e)
	case "text":
		return sjson.SetBytes(resp, "text", s.e.Text())
	case "line":
		line, err := s.e.LineText(q.Line)
		if err != nil {
			return nil, err
		}
		return sjson.SetBytes(resp, "text", line)
	case "changes":
		changes, ok := s.e.ChangesSince(q.Since)
		if !ok {
			return nil, fmt.Errorf("generation %d is no longer retained: %w", q.Since, engine.ErrOutOfRange)
		}
		return EncodeChanges(resp, changes)
	case "find":
		opts := s.search
		if q.Mode != "" {
			mode, err := search.ParseMode(q.Mode)
			if err != nil {
				return nil, err
			}
			opts.Mode = mode
		}
		opts.CaseSensitive = q.CaseSensitive
		opts.WholeWord = q.WholeWord
		if q.Max > 0 {
			opts.MaxResults = q.Max
		}
		opts.ContextLines = 0
		res, err := search.Find(ctx, s.e.Snapshot(), q.Pattern, opts)
		if err != nil {
			return nil, err
		}
		return EncodeMatches(resp, res)
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidRequest, q.Kind)
	}
}

// ErrorKind classifies err for a response.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, search.ErrInvalidQuery):
		return "invalid_query"
	case errors.Is(err, engine.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, engine.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, engine.ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, search.ErrSearchCanceled):
		return "canceled"
	default:
		return "internal"
	}
}
