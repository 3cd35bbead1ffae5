package macro

import "errors"

var (
	// ErrInvalidRegister indicates a register name outside a-z, A-Z and 0-9.
	ErrInvalidRegister = errors.New("invalid register")

	// ErrEmptyRegister indicates playback of a register with no requests.
	ErrEmptyRegister = errors.New("empty register")

	// ErrRecording indicates a recording was started while one is active.
	ErrRecording = errors.New("already recording")

	// ErrNotRecording indicates StopRecording without an active recording.
	ErrNotRecording = errors.New("not recording")

	// ErrPlaying indicates a playback was started while one is active.
	ErrPlaying = errors.New("already playing a macro")

	// ErrNoLastMacro indicates PlayLast before any macro was played.
	ErrNoLastMacro = errors.New("no macro has been played")
)
