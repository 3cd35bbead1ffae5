package history

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/vivax3794/arcane/internal/engine/cursor"
	"github.com/vivax3794/arcane/internal/engine/text"
)

// ByteOffset is an alias for text.ByteOffset for convenience.
type ByteOffset = text.ByteOffset

// Kind classifies an operation or entry.
type Kind uint8

const (
	// KindInsert adds text without removing any.
	KindInsert Kind = iota
	// KindDelete removes text without inserting any.
	KindDelete
	// KindReplace removes and inserts, or mixes kinds within one entry.
	KindReplace
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	case KindReplace:
		return "replace"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Operation is a single splice of the document.
type Operation struct {
	Offset   ByteOffset
	Removed  string
	Inserted string
}

// Insertion creates an operation that inserts s at offset.
func Insertion(offset ByteOffset, s string) Operation {
	return Operation{Offset: offset, Inserted: s}
}

// Deletion creates an operation that removed the given text at offset.
func Deletion(offset ByteOffset, removed string) Operation {
	return Operation{Offset: offset, Removed: removed}
}

// Kind reports whether the operation inserts, deletes, or replaces.
func (op Operation) Kind() Kind {
	switch {
	case op.Removed == "":
		return KindInsert
	case op.Inserted == "":
		return KindDelete
	default:
		return KindReplace
	}
}

// IsNoop reports whether the operation changes nothing.
func (op Operation) IsNoop() bool {
	return op.Removed == "" && op.Inserted == ""
}

// Range returns the range the operation removes, in document coordinates
// before it is applied.
func (op Operation) Range() text.Range {
	return text.Range{Start: op.Offset, End: op.Offset + ByteOffset(len(op.Removed))}
}

// InsertedRange returns the range occupied by the inserted text after the
// operation is applied.
func (op Operation) InsertedRange() text.Range {
	return text.Range{Start: op.Offset, End: op.Offset + ByteOffset(len(op.Inserted))}
}

// Delta returns the change in document length.
func (op Operation) Delta() ByteOffset {
	return ByteOffset(len(op.Inserted) - len(op.Removed))
}

// Inverse returns the operation that undoes op.
func (op Operation) Inverse() Operation {
	return Operation{Offset: op.Offset, Removed: op.Inserted, Inserted: op.Removed}
}

// MapOffset maps an offset through the operation using the cursor rebase rule.
func (op Operation) MapOffset(offset ByteOffset) ByteOffset {
	return cursor.RebaseOffset(offset, op.Range(), ByteOffset(len(op.Inserted)))
}

// String returns a compact description for logs.
func (op Operation) String() string {
	return fmt.Sprintf("%s@%d(-%d,+%d)", op.Kind(), op.Offset, len(op.Removed), len(op.Inserted))
}

// continues reports whether next picks up where prev left off. mark is the
// position prev's edit point has in the coordinates next was applied in.
func continues(prev, next Operation, mark ByteOffset) bool {
	switch prev.Kind() {
	case KindInsert:
		return next.Kind() == KindInsert && next.Offset == mark
	case KindDelete:
		if next.Kind() != KindDelete {
			return false
		}
		// Backspace eats toward the start, forward delete stays in place.
		return next.Range().End == mark || next.Offset == mark
	default:
		return false
	}
}

// startsWord reports whether inserting s after prev begins a new word.
func startsWord(prev, s string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(last) && !unicode.IsSpace(first)
}
