package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/search"
)

const errorTypeName = "arcane.error"

// bufModule implements the buf API over one engine.
type bufModule struct {
	e   *engine.Engine
	ctx context.Context
}

// register installs the buf table and the error metatable into L.
func (m *bufModule) register(L *lua.LState) {
	mt := L.NewTypeMetatable(errorTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		if err, ok := ud.Value.(error); ok {
			L.Push(lua.LString(err.Error()))
		} else {
			L.Push(lua.LString(errorTypeName))
		}
		return 1
	}))

	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		// Queries
		"text":       m.text,
		"len":        m.bufLen,
		"line_count": m.lineCount,
		"line":       m.line,
		"line_range": m.lineRange,
		"slice":      m.slice,
		"point":      m.point,
		"offset":     m.offset,
		"generation": m.generation,
		"find":       m.find,

		// Edits
		"insert":         m.insert,
		"delete":         m.delete,
		"replace":        m.replace,
		"type":           m.typeText,
		"backspace":      m.backspace,
		"delete_forward": m.deleteForward,
		"undo":           m.undo,
		"redo":           m.redo,
		"seal":           m.seal,

		// Cursors
		"cursors":       m.cursors,
		"primary":       m.primary,
		"add_cursor":    m.addCursor,
		"remove_cursor": m.removeCursor,
		"move_cursor":   m.moveCursor,
		"select":        m.selectRange,
		"move":          m.move,
		"merge_cursors": m.mergeCursors,
	})
	L.SetGlobal("buf", mod)
}

// raise aborts the running script with err. The error travels as userdata
// so Run can unwrap it.
func raise(L *lua.LState, fn string, err error) int {
	ud := L.NewUserData()
	ud.Value = fmt.Errorf("buf.%s: %w", fn, err)
	L.SetMetatable(ud, L.GetTypeMetatable(errorTypeName))
	L.Error(ud, 1)
	return 0
}

func (m *bufModule) apply(L *lua.LState, fn string, cmd engine.Command) {
	if err := m.e.Apply(cmd); err != nil {
		raise(L, fn, err)
	}
}

func checkOffset(L *lua.LState, n int) engine.ByteOffset {
	return engine.ByteOffset(L.CheckInt64(n))
}

func checkRange(L *lua.LState, n int) engine.Range {
	return engine.Range{Start: checkOffset(L, n), End: checkOffset(L, n+1)}
}

// checkLine converts a one-based line argument to the engine's zero-based
// line.
func checkLine(L *lua.LState, n int) int {
	return L.CheckInt(n) - 1
}

// ============================================================================
// Queries
// ============================================================================

// text() -> string
func (m *bufModule) text(L *lua.LState) int {
	L.Push(lua.LString(m.e.Text()))
	return 1
}

// len() -> number
func (m *bufModule) bufLen(L *lua.LState) int {
	L.Push(lua.LNumber(m.e.Len()))
	return 1
}

// line_count() -> number
func (m *bufModule) lineCount(L *lua.LState) int {
	L.Push(lua.LNumber(m.e.LineCount()))
	return 1
}

// line(n) -> string without its newline
func (m *bufModule) line(L *lua.LState) int {
	s, err := m.e.LineText(checkLine(L, 1))
	if err != nil {
		return raise(L, "line", err)
	}
	L.Push(lua.LString(s))
	return 1
}

// line_range(n) -> start, end
func (m *bufModule) lineRange(L *lua.LState) int {
	r, err := m.e.LineRange(checkLine(L, 1))
	if err != nil {
		return raise(L, "line_range", err)
	}
	L.Push(lua.LNumber(r.Start))
	L.Push(lua.LNumber(r.End))
	return 2
}

// slice(start, end) -> string
func (m *bufModule) slice(L *lua.LState) int {
	s, err := m.e.Slice(checkRange(L, 1))
	if err != nil {
		return raise(L, "slice", err)
	}
	L.Push(lua.LString(s))
	return 1
}

// point(offset) -> line, column
func (m *bufModule) point(L *lua.LState) int {
	p, err := m.e.OffsetToPoint(checkOffset(L, 1))
	if err != nil {
		return raise(L, "point", err)
	}
	L.Push(lua.LNumber(p.Line + 1))
	L.Push(lua.LNumber(p.Column))
	return 2
}

// offset(line, column) -> offset
func (m *bufModule) offset(L *lua.LState) int {
	off, err := m.e.PointToOffset(engine.Point{Line: checkLine(L, 1), Column: L.CheckInt(2)})
	if err != nil {
		return raise(L, "offset", err)
	}
	L.Push(lua.LNumber(off))
	return 1
}

// generation() -> number
func (m *bufModule) generation(L *lua.LState) int {
	L.Push(lua.LNumber(m.e.Generation()))
	return 1
}

// find(query [, opts]) -> { {start, stop, line, column}, ... }
//
// opts may set mode ("literal", "regex", "glob"), case_sensitive,
// whole_word and max.
func (m *bufModule) find(L *lua.LState) int {
	query := L.CheckString(1)
	opts := search.DefaultOptions()
	opts.ContextLines = 0
	opts.CaseSensitive = true
	if t := L.OptTable(2, nil); t != nil {
		if v := t.RawGetString("mode"); v != lua.LNil {
			mode, err := search.ParseMode(v.String())
			if err != nil {
				return raise(L, "find", err)
			}
			opts.Mode = mode
		}
		if v := t.RawGetString("case_sensitive"); v != lua.LNil {
			opts.CaseSensitive = lua.LVAsBool(v)
		}
		opts.WholeWord = lua.LVAsBool(t.RawGetString("whole_word"))
		if v, ok := t.RawGetString("max").(lua.LNumber); ok {
			opts.MaxResults = int(v)
		}
	}

	res, err := search.Find(m.ctx, m.e.Snapshot(), query, opts)
	if err != nil {
		return raise(L, "find", err)
	}
	out := L.CreateTable(len(res.Matches), 0)
	for _, match := range res.Matches {
		t := L.CreateTable(0, 4)
		t.RawSetString("start", lua.LNumber(match.Range.Start))
		t.RawSetString("stop", lua.LNumber(match.Range.End))
		t.RawSetString("line", lua.LNumber(match.Line+1))
		t.RawSetString("column", lua.LNumber(match.Column))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

// ============================================================================
// Edits
// ============================================================================

// insert(offset, text)
func (m *bufModule) insert(L *lua.LState) int {
	m.apply(L, "insert", engine.Insert{Offset: checkOffset(L, 1), Text: L.CheckString(2)})
	return 0
}

// delete(start, end)
func (m *bufModule) delete(L *lua.LState) int {
	m.apply(L, "delete", engine.Delete{Range: checkRange(L, 1)})
	return 0
}

// replace(start, end, text)
func (m *bufModule) replace(L *lua.LState) int {
	m.apply(L, "replace", engine.Replace{Range: checkRange(L, 1), Text: L.CheckString(3)})
	return 0
}

// type(text) inserts at every cursor, replacing selections.
func (m *bufModule) typeText(L *lua.LState) int {
	m.apply(L, "type", engine.Type{Text: L.CheckString(1)})
	return 0
}

// backspace()
func (m *bufModule) backspace(L *lua.LState) int {
	m.apply(L, "backspace", engine.DeleteBackward{})
	return 0
}

// delete_forward()
func (m *bufModule) deleteForward(L *lua.LState) int {
	m.apply(L, "delete_forward", engine.DeleteForward{})
	return 0
}

// undo() -> bool
func (m *bufModule) undo(L *lua.LState) int {
	ok, err := m.e.Undo()
	if err != nil {
		return raise(L, "undo", err)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// redo() -> bool
func (m *bufModule) redo(L *lua.LState) int {
	ok, err := m.e.Redo()
	if err != nil {
		return raise(L, "redo", err)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// seal()
func (m *bufModule) seal(L *lua.LState) int {
	m.apply(L, "seal", engine.SealHistory{})
	return 0
}

// ============================================================================
// Cursors
// ============================================================================

func cursorTable(L *lua.LState, c engine.Cursor) *lua.LTable {
	t := L.CreateTable(0, 3)
	t.RawSetString("id", lua.LNumber(c.ID))
	t.RawSetString("anchor", lua.LNumber(c.Anchor))
	t.RawSetString("head", lua.LNumber(c.Head))
	return t
}

// cursors() -> { {id, anchor, head}, ... } in creation order
func (m *bufModule) cursors(L *lua.LState) int {
	all := m.e.Cursors()
	out := L.CreateTable(len(all), 0)
	for _, c := range all {
		out.Append(cursorTable(L, c))
	}
	L.Push(out)
	return 1
}

// primary() -> {id, anchor, head}
func (m *bufModule) primary(L *lua.LState) int {
	L.Push(cursorTable(L, m.e.Primary()))
	return 1
}

// add_cursor(offset) -> id
func (m *bufModule) addCursor(L *lua.LState) int {
	id, err := m.e.AddCursor(checkOffset(L, 1))
	if err != nil {
		return raise(L, "add_cursor", err)
	}
	L.Push(lua.LNumber(id))
	return 1
}

func checkCursorID(L *lua.LState, n int) engine.CursorID {
	return engine.CursorID(L.CheckInt(n))
}

// remove_cursor(id)
func (m *bufModule) removeCursor(L *lua.LState) int {
	m.apply(L, "remove_cursor", engine.RemoveCursor{ID: checkCursorID(L, 1)})
	return 0
}

// move_cursor(id, offset [, extend])
func (m *bufModule) moveCursor(L *lua.LState) int {
	m.apply(L, "move_cursor", engine.MoveCursor{
		ID:     checkCursorID(L, 1),
		Offset: checkOffset(L, 2),
		Extend: L.OptBool(3, false),
	})
	return 0
}

// select(id, anchor, head)
func (m *bufModule) selectRange(L *lua.LState) int {
	m.apply(L, "select", engine.SetSelection{
		ID:     checkCursorID(L, 1),
		Anchor: checkOffset(L, 2),
		Offset: checkOffset(L, 3),
	})
	return 0
}

// move(motion [, extend]) moves every cursor.
func (m *bufModule) move(L *lua.LState) int {
	motion, err := engine.ParseMotion(L.CheckString(1))
	if err != nil {
		return raise(L, "move", err)
	}
	m.apply(L, "move", engine.MoveCursors{Motion: motion, Extend: L.OptBool(2, false)})
	return 0
}

// merge_cursors()
func (m *bufModule) mergeCursors(L *lua.LState) int {
	m.apply(L, "merge_cursors", engine.MergeCursors{})
	return 0
}
