package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the interactive session should end normally.
	ErrQuit = errors.New("quit requested")

	// ErrAlreadyRunning indicates Run was called while running.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrReadOnly indicates a save of a read-only document.
	ErrReadOnly = errors.New("document is read-only")

	// ErrNoFilePath indicates a save of a document that has no path.
	ErrNoFilePath = errors.New("document has no file path")
)

// InitError is a failure while bootstrapping a component.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// FileError is a failed file operation.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return e.Op + " " + e.Path
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}
