package script

import (
	"errors"
	"fmt"
)

// Errors for script execution.
var (
	// ErrRunnerClosed is returned when running a script on a closed runner.
	ErrRunnerClosed = errors.New("script runner is closed")

	// ErrExecutionTimeout is returned when a script runs past its deadline.
	ErrExecutionTimeout = errors.New("script execution timeout")
)

// Error is a failed script run. Err holds the engine error when a buf call
// was rejected, so errors.Is works against the engine's error kinds.
type Error struct {
	Script  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Script == "" {
		return "script: " + e.Message
	}
	return fmt.Sprintf("script %s: %s", e.Script, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
