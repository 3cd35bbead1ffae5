package text

import (
	"fmt"
	"unicode/utf8"
)

// Reader is read-only access to a document.
//
// Implementations returned as snapshots are immutable and safe to read from
// any goroutine. Every method that takes a position validates it and returns
// an error wrapping ErrOutOfRange instead of clamping.
type Reader interface {
	// Len returns the document length in bytes.
	Len() ByteOffset

	// LineCount returns the number of lines (newlines + 1).
	LineCount() int

	// Slice returns the text in r.
	Slice(r Range) (string, error)

	// ByteAt returns the byte at offset.
	ByteAt(offset ByteOffset) (byte, error)

	// OffsetOfLine returns the offset of the first byte of line.
	OffsetOfLine(line int) (ByteOffset, error)

	// LineOfOffset returns the line containing offset.
	// The end-of-document offset belongs to the last line.
	LineOfOffset(offset ByteOffset) (int, error)

	// String returns the full document. Use sparingly on large documents.
	String() string
}

// Store is a mutable document backend.
type Store interface {
	Reader

	// Insert splices s into the document at offset.
	Insert(offset ByteOffset, s string) error

	// Delete removes r from the document and returns the removed text.
	Delete(r Range) (string, error)

	// Snapshot returns an immutable view of the current content that
	// later mutations do not affect.
	Snapshot() Reader
}

// Probe is the subset of Reader needed to validate positions.
type Probe interface {
	Len() ByteOffset
	ByteAt(offset ByteOffset) (byte, error)
}

// CheckOffset reports whether offset is a valid position in p: within
// [0, Len()] and on a scalar value boundary.
func CheckOffset(p Probe, offset ByteOffset) error {
	n := p.Len()
	if offset < 0 || offset > n {
		return fmt.Errorf("offset %d not in [0, %d]: %w", offset, n, ErrOutOfRange)
	}
	if offset == n {
		return nil
	}
	b, err := p.ByteAt(offset)
	if err != nil {
		return err
	}
	if !utf8.RuneStart(b) {
		return fmt.Errorf("offset %d splits a scalar value: %w", offset, ErrOutOfRange)
	}
	return nil
}

// CheckRange reports whether r is a valid range in p.
func CheckRange(p Probe, r Range) error {
	if !r.IsValid() {
		return fmt.Errorf("range %s: %w", r, ErrOutOfRange)
	}
	if err := CheckOffset(p, r.Start); err != nil {
		return err
	}
	if r.End == r.Start {
		return nil
	}
	return CheckOffset(p, r.End)
}

// CheckText reports whether s may be stored in a document.
func CheckText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("text is not valid UTF-8: %w", ErrInvalidOperation)
	}
	return nil
}
