package engine

import (
	"fmt"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// Error kinds returned by the engine. Match them with errors.Is.
var (
	// ErrOutOfRange indicates an offset, range, line or column outside the
	// document, or one that splits a scalar value.
	ErrOutOfRange = text.ErrOutOfRange

	// ErrInvalidOperation indicates a command that makes no sense in the
	// current state.
	ErrInvalidOperation = text.ErrInvalidOperation

	// ErrCapacityExceeded indicates a configured bound would be exceeded.
	ErrCapacityExceeded = text.ErrCapacityExceeded

	// ErrReadOnly indicates a text mutation on a read-only engine.
	ErrReadOnly = fmt.Errorf("engine is read-only: %w", text.ErrInvalidOperation)
)
