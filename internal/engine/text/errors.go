package text

import "errors"

// Error kinds reported by the editing core. Callers match them with
// errors.Is; the returned errors usually wrap one of these with context.
var (
	// ErrOutOfRange indicates an offset, range, line, or cursor position
	// outside the document or splitting a scalar value.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidOperation indicates a request that is well-formed but not
	// allowed in the current state, such as removing the last cursor.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrCapacityExceeded indicates a configured limit would be exceeded.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)
