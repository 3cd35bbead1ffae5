package engine

import (
	"fmt"

	"github.com/vivax3794/arcane/internal/engine/cursor"
	"github.com/vivax3794/arcane/internal/engine/text"
)

// Command is a request applied through Engine.Apply. The set of commands is
// closed; see the types in this file.
type Command interface {
	// Name identifies the command in logs and undo labels.
	Name() string

	command()
}

// Insert inserts Text at Offset.
type Insert struct {
	Offset ByteOffset
	Text   string
}

// Delete removes Range.
type Delete struct {
	Range Range
}

// Replace swaps the text in Range for Text.
type Replace struct {
	Range Range
	Text  string
}

// Type inserts Text at every cursor, replacing selections.
type Type struct {
	Text string
}

// DeleteBackward deletes each selection, or the grapheme cluster before
// each caret.
type DeleteBackward struct{}

// DeleteForward deletes each selection, or the grapheme cluster after
// each caret.
type DeleteForward struct{}

// AddCursor adds a caret at Offset.
type AddCursor struct {
	Offset ByteOffset
}

// RemoveCursor removes the cursor with the given ID. The last cursor cannot
// be removed.
type RemoveCursor struct {
	ID CursorID
}

// MoveCursor moves one cursor to Offset. With Extend the anchor stays put and
// the selection grows or shrinks.
type MoveCursor struct {
	ID     CursorID
	Offset ByteOffset
	Extend bool
}

// SetSelection sets one cursor's anchor and head.
type SetSelection struct {
	ID     CursorID
	Anchor ByteOffset
	Offset ByteOffset
}

// MoveCursors moves every cursor by Motion.
type MoveCursors struct {
	Motion Motion
	Extend bool
}

// MergeCursors merges cursors that overlap or coincide.
type MergeCursors struct{}

// Undo reverts the newest history entry. It is a no-op when there is none.
type Undo struct{}

// Redo reapplies the newest undone entry. It is a no-op when there is none.
type Redo struct{}

// Load replaces the whole document, resetting history and cursors.
type Load struct {
	Text string
}

// SealHistory makes the next edit start a new undo step.
type SealHistory struct{}

func (Insert) Name() string         { return "insert" }
func (Delete) Name() string         { return "delete" }
func (Replace) Name() string        { return "replace" }
func (Type) Name() string           { return "type" }
func (DeleteBackward) Name() string { return "delete-backward" }
func (DeleteForward) Name() string  { return "delete-forward" }
func (AddCursor) Name() string      { return "add-cursor" }
func (RemoveCursor) Name() string   { return "remove-cursor" }
func (MoveCursor) Name() string     { return "move-cursor" }
func (SetSelection) Name() string   { return "set-selection" }
func (MoveCursors) Name() string    { return "move-cursors" }
func (MergeCursors) Name() string   { return "merge-cursors" }
func (Undo) Name() string           { return "undo" }
func (Redo) Name() string           { return "redo" }
func (Load) Name() string           { return "load" }
func (SealHistory) Name() string    { return "seal-history" }

func (Insert) command()         {}
func (Delete) command()         {}
func (Replace) command()        {}
func (Type) command()           {}
func (DeleteBackward) command() {}
func (DeleteForward) command()  {}
func (AddCursor) command()      {}
func (RemoveCursor) command()   {}
func (MoveCursor) command()     {}
func (SetSelection) command()   {}
func (MoveCursors) command()    {}
func (MergeCursors) command()   {}
func (Undo) command()           {}
func (Redo) command()           {}
func (Load) command()           {}
func (SealHistory) command()    {}

// mutates reports whether cmd may change the document text.
func mutates(cmd Command) bool {
	switch cmd.(type) {
	case Insert, Delete, Replace, Type, DeleteBackward, DeleteForward, Undo, Redo, Load:
		return true
	default:
		return false
	}
}

// coalescable reports whether edits made by cmd may merge with neighbouring
// keystrokes in history.
func coalescable(cmd Command) bool {
	switch cmd.(type) {
	case Insert, Type, DeleteBackward, DeleteForward:
		return true
	default:
		return false
	}
}

// Motion is a cursor movement for MoveCursors.
type Motion uint8

const (
	// MotionLeft moves one grapheme cluster back.
	MotionLeft Motion = iota
	// MotionRight moves one grapheme cluster forward.
	MotionRight
	// MotionUp moves to the same visual column on the previous line.
	MotionUp
	// MotionDown moves to the same visual column on the next line.
	MotionDown
	// MotionLineStart moves to the start of the line.
	MotionLineStart
	// MotionLineEnd moves to the end of the line, before its newline.
	MotionLineEnd
	// MotionDocumentStart moves to offset 0.
	MotionDocumentStart
	// MotionDocumentEnd moves to the end of the document.
	MotionDocumentEnd
)

var motionNames = [...]string{
	MotionLeft:          "left",
	MotionRight:         "right",
	MotionUp:            "up",
	MotionDown:          "down",
	MotionLineStart:     "line-start",
	MotionLineEnd:       "line-end",
	MotionDocumentStart: "document-start",
	MotionDocumentEnd:   "document-end",
}

// String returns the motion name.
func (m Motion) String() string {
	if int(m) < len(motionNames) {
		return motionNames[m]
	}
	return fmt.Sprintf("Motion(%d)", m)
}

// ParseMotion parses a motion name as returned by String.
func ParseMotion(s string) (Motion, error) {
	for i, name := range motionNames {
		if name == s {
			return Motion(i), nil
		}
	}
	return 0, fmt.Errorf("unknown motion %q: %w", s, text.ErrInvalidOperation)
}

// CursorID identifies a cursor for the lifetime of the engine.
type CursorID = cursor.ID
