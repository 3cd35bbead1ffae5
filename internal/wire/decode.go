package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"

	"github.com/vivax3794/arcane/internal/engine"
)

// ErrInvalidRequest is returned for a line that is not a well-formed request.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one decoded input line. Exactly one of Command and Query is set.
type Request struct {
	// ID is echoed in the response. It is empty when the line had none.
	ID string

	// Op is the operation name.
	Op string

	// Command is set for operations that go through Engine.Apply.
	Command engine.Command

	// Query is set for read-only operations.
	Query *Query
}

// Query is a read-only request.
type Query struct {
	Kind string

	// Line is the zero-based line for "line".
	Line int

	// Since is the generation for "changes".
	Since uint64

	// Search parameters for "find".
	Pattern       string
	Mode          string
	CaseSensitive bool
	WholeWord     bool
	Max           int
}

// commandDecoders maps an op name to the decoder of its fields.
var commandDecoders = map[string]func(obj gjson.Result) (engine.Command, error){
	"insert": func(obj gjson.Result) (engine.Command, error) {
		off, err := offsetField(obj, "offset")
		if err != nil {
			return nil, err
		}
		s, err := stringField(obj, "text")
		return engine.Insert{Offset: off, Text: s}, err
	},
	"delete": func(obj gjson.Result) (engine.Command, error) {
		r, err := rangeFields(obj)
		return engine.Delete{Range: r}, err
	},
	"replace": func(obj gjson.Result) (engine.Command, error) {
		r, err := rangeFields(obj)
		if err != nil {
			return nil, err
		}
		s, err := stringField(obj, "text")
		return engine.Replace{Range: r, Text: s}, err
	},
	"type": func(obj gjson.Result) (engine.Command, error) {
		s, err := stringField(obj, "text")
		return engine.Type{Text: s}, err
	},
	"backspace":      constant(engine.DeleteBackward{}),
	"delete-forward": constant(engine.DeleteForward{}),
	"add-cursor": func(obj gjson.Result) (engine.Command, error) {
		off, err := offsetField(obj, "offset")
		return engine.AddCursor{Offset: off}, err
	},
	"remove-cursor": func(obj gjson.Result) (engine.Command, error) {
		id, err := cursorField(obj)
		return engine.RemoveCursor{ID: id}, err
	},
	"move-cursor": func(obj gjson.Result) (engine.Command, error) {
		id, err := cursorField(obj)
		if err != nil {
			return nil, err
		}
		off, err := offsetField(obj, "offset")
		if err != nil {
			return nil, err
		}
		extend, err := boolField(obj, "extend")
		return engine.MoveCursor{ID: id, Offset: off, Extend: extend}, err
	},
	"select": func(obj gjson.Result) (engine.Command, error) {
		id, err := cursorField(obj)
		if err != nil {
			return nil, err
		}
		anchor, err := offsetField(obj, "anchor")
		if err != nil {
			return nil, err
		}
		head, err := offsetField(obj, "head")
		return engine.SetSelection{ID: id, Anchor: anchor, Offset: head}, err
	},
	"move": func(obj gjson.Result) (engine.Command, error) {
		name, err := stringField(obj, "motion")
		if err != nil {
			return nil, err
		}
		m, err := engine.ParseMotion(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		extend, err := boolField(obj, "extend")
		return engine.MoveCursors{Motion: m, Extend: extend}, err
	},
	"merge-cursors": constant(engine.MergeCursors{}),
	"undo":          constant(engine.Undo{}),
	"redo":          constant(engine.Redo{}),
	"seal":          constant(engine.SealHistory{}),
	"load": func(obj gjson.Result) (engine.Command, error) {
		s, err := stringField(obj, "text")
		return engine.Load{Text: s}, err
	},
}

func constant(cmd engine.Command) func(gjson.Result) (engine.Command, error) {
	return func(gjson.Result) (engine.Command, error) { return cmd, nil }
}

// Decode parses one request line.
//
//	{"id": "7", "op": "insert", "offset": 3, "text": "abc"}
//	{"op": "find", "pattern": "foo", "mode": "regex"}
func Decode(line []byte) (Request, error) {
	if !gjson.ValidBytes(line) {
		return Request{}, fmt.Errorf("%w: malformed JSON", ErrInvalidRequest)
	}
	obj := gjson.ParseBytes(line)
	if !obj.IsObject() {
		return Request{}, fmt.Errorf("%w: expected an object", ErrInvalidRequest)
	}

	req := Request{ID: obj.Get("id").String()}
	op, err := stringField(obj, "op")
	if err != nil {
		return req, err
	}
	req.Op = op

	if dec, ok := commandDecoders[op]; ok {
		cmd, err := dec(obj)
		if err != nil {
			return req, fmt.Errorf("%s: %w", op, err)
		}
		req.Command = cmd
		return req, nil
	}

	q, err := decodeQuery(op, obj)
	if err != nil {
		return req, err
	}
	req.Query = q
	return req, nil
}

func decodeQuery(op string, obj gjson.Result) (*Query, error) {
	q := &Query{Kind: op}
	var err error
	switch op {
	case "state", "text":
	case "line":
		var line int64
		line, err = intField(obj, "line", true)
		q.Line = int(line)
	case "changes":
		var since int64
		since, err = intField(obj, "since", true)
		if err == nil && since < 0 {
			err = fmt.Errorf("%w: since must not be negative", ErrInvalidRequest)
		}
		q.Since = uint64(since)
	case "find":
		if q.Pattern, err = stringField(obj, "pattern"); err != nil {
			break
		}
		if v := obj.Get("mode"); v.Exists() {
			q.Mode = v.String()
		}
		q.CaseSensitive = true
		if v := obj.Get("case_sensitive"); v.Exists() {
			q.CaseSensitive = v.Bool()
		}
		q.WholeWord = obj.Get("whole_word").Bool()
		var limit int64
		limit, err = intField(obj, "max", false)
		q.Max = int(limit)
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidRequest, op)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return q, nil
}

// ============================================================================
// Field helpers
// ============================================================================

func stringField(obj gjson.Result, name string) (string, error) {
	v := obj.Get(name)
	if !v.Exists() {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidRequest, name)
	}
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidRequest, name)
	}
	return v.String(), nil
}

func intField(obj gjson.Result, name string, required bool) (int64, error) {
	v := obj.Get(name)
	if !v.Exists() {
		if required {
			return 0, fmt.Errorf("%w: missing %q", ErrInvalidRequest, name)
		}
		return 0, nil
	}
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, fmt.Errorf("%w: %q must be an integer", ErrInvalidRequest, name)
	}
	return v.Int(), nil
}

func boolField(obj gjson.Result, name string) (bool, error) {
	v := obj.Get(name)
	switch {
	case !v.Exists():
		return false, nil
	case v.IsBool():
		return v.Bool(), nil
	default:
		return false, fmt.Errorf("%w: %q must be a boolean", ErrInvalidRequest, name)
	}
}

func offsetField(obj gjson.Result, name string) (engine.ByteOffset, error) {
	n, err := intField(obj, name, true)
	return engine.ByteOffset(n), err
}

func rangeFields(obj gjson.Result) (engine.Range, error) {
	start, err := offsetField(obj, "start")
	if err != nil {
		return engine.Range{}, err
	}
	end, err := offsetField(obj, "end")
	return engine.Range{Start: start, End: end}, err
}

func cursorField(obj gjson.Result) (engine.CursorID, error) {
	n, err := intField(obj, "cursor", true)
	if err == nil && n < 0 {
		err = fmt.Errorf("%w: cursor must not be negative", ErrInvalidRequest)
	}
	return engine.CursorID(n), err
}
