package wire

import (
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/search"
)

// field is one key of a response object.
type field struct {
	path  string
	value any
}

// set writes fields into resp in order, stopping at the first failure.
func set(resp []byte, fields ...field) ([]byte, error) {
	var err error
	for _, f := range fields {
		if resp, err = sjson.SetBytes(resp, f.path, f.value); err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.path, err)
		}
	}
	return resp, nil
}

func okResponse(id string, gen uint64) []byte {
	resp := []byte(`{}`)
	if id != "" {
		// Constant paths never fail.
		resp, _ = sjson.SetBytes(resp, "id", id)
	}
	resp, _ = sjson.SetBytes(resp, "ok", true)
	resp, _ = sjson.SetBytes(resp, "generation", gen)
	return resp
}

func errorResponse(id string, err error) []byte {
	resp := []byte(`{}`)
	if id != "" {
		resp, _ = sjson.SetBytes(resp, "id", id)
	}
	resp, _ = sjson.SetBytes(resp, "ok", false)
	resp, _ = sjson.SetBytes(resp, "error.kind", ErrorKind(err))
	resp, _ = sjson.SetBytes(resp, "error.message", err.Error())
	return resp
}

// EncodeState adds the document, cursors and history depth of e to resp.
func EncodeState(resp []byte, e *engine.Engine) ([]byte, error) {
	resp, err := set(resp,
		field{"backend", e.Backend().String()},
		field{"text", e.Text()},
		field{"length", int64(e.Len())},
		field{"lines", e.LineCount()},
		field{"primary", uint64(e.Primary().ID)},
		field{"undo", e.UndoCount()},
		field{"redo", e.RedoCount()},
	)
	if err != nil {
		return nil, err
	}
	if resp, err = sjson.SetRawBytes(resp, "cursors", []byte(`[]`)); err != nil {
		return nil, err
	}
	for i, c := range e.Cursors() {
		prefix := fmt.Sprintf("cursors.%d.", i)
		resp, err = set(resp,
			field{prefix + "id", uint64(c.ID)},
			field{prefix + "anchor", int64(c.Anchor)},
			field{prefix + "head", int64(c.Head)},
		)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// EncodeChanges adds changes to resp, oldest first.
func EncodeChanges(resp []byte, changes []engine.Change) ([]byte, error) {
	resp, err := sjson.SetRawBytes(resp, "changes", []byte(`[]`))
	if err != nil {
		return nil, err
	}
	for i, c := range changes {
		prefix := fmt.Sprintf("changes.%d.", i)
		resp, err = set(resp,
			field{prefix + "generation", c.Generation},
			field{prefix + "offset", int64(c.Op.Offset)},
			field{prefix + "removed", c.Op.Removed},
			field{prefix + "inserted", c.Op.Inserted},
		)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// EncodeMatches adds search matches to resp. Lines are zero-based.
func EncodeMatches(resp []byte, res search.Result) ([]byte, error) {
	resp, err := set(resp, field{"truncated", res.Truncated})
	if err != nil {
		return nil, err
	}
	if resp, err = sjson.SetRawBytes(resp, "matches", []byte(`[]`)); err != nil {
		return nil, err
	}
	for i, m := range res.Matches {
		prefix := fmt.Sprintf("matches.%d.", i)
		resp, err = set(resp,
			field{prefix + "start", int64(m.Range.Start)},
			field{prefix + "end", int64(m.Range.End)},
			field{prefix + "line", m.Line},
			field{prefix + "column", m.Column},
		)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}
