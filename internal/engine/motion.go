package engine

import "fmt"

// target returns where a cursor's head lands after motion m.
func (e *Engine) target(sel Selection, m Motion, extend bool) (ByteOffset, error) {
	head := sel.Head
	switch m {
	case MotionLeft:
		if !extend && !sel.IsEmpty() {
			return sel.Start(), nil
		}
		return e.buf.PrevGrapheme(head)

	case MotionRight:
		if !extend && !sel.IsEmpty() {
			return sel.End(), nil
		}
		return e.buf.NextGrapheme(head)

	case MotionUp, MotionDown:
		line, err := e.buf.LineOfOffset(head)
		if err != nil {
			return 0, err
		}
		col, err := e.buf.VisualColumn(head)
		if err != nil {
			return 0, err
		}
		next := line - 1
		if m == MotionDown {
			next = line + 1
		}
		// Moving past the first or last line goes to the document edge.
		if next < 0 {
			return 0, nil
		}
		if next >= e.buf.LineCount() {
			return e.buf.Len(), nil
		}
		return e.buf.OffsetAtVisualColumn(next, col)

	case MotionLineStart, MotionLineEnd:
		line, err := e.buf.LineOfOffset(head)
		if err != nil {
			return 0, err
		}
		r, err := e.buf.LineRange(line)
		if err != nil {
			return 0, err
		}
		if m == MotionLineStart {
			return r.Start, nil
		}
		return r.End, nil

	case MotionDocumentStart:
		return 0, nil

	case MotionDocumentEnd:
		return e.buf.Len(), nil

	default:
		return 0, fmt.Errorf("unknown motion %v: %w", m, ErrInvalidOperation)
	}
}
