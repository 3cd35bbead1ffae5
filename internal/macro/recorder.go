package macro

import (
	"fmt"
	"slices"
	"sync"
)

// Recorder captures requests into registers.
type Recorder struct {
	mu         sync.Mutex
	recording  bool
	register   rune
	appending  bool
	lines      []string
	registers  map[rune][]string
	lastPlayed rune
}

// NewRecorder creates a Recorder with empty registers.
func NewRecorder() *Recorder {
	return &Recorder{
		registers: make(map[rune][]string),
	}
}

// StartRecording begins recording to register. An uppercase register
// appends to the lowercase one when the recording stops.
func (r *Recorder) StartRecording(register rune) error {
	name := NormalizeRegister(register)
	if name == 0 {
		return fmt.Errorf("%w: %c", ErrInvalidRegister, register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("%w to register %c", ErrRecording, r.register)
	}
	r.recording = true
	r.register = name
	r.appending = IsAppendRegister(register)
	r.lines = nil
	return nil
}

// StopRecording ends the recording, stores it and returns the register it
// was saved to. An empty recording leaves the register unchanged.
func (r *Recorder) StopRecording() (rune, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return 0, ErrNotRecording
	}
	r.recording = false
	if len(r.lines) > 0 {
		if r.appending {
			r.registers[r.register] = append(r.registers[r.register], r.lines...)
		} else {
			r.registers[r.register] = r.lines
		}
	}
	r.lines = nil
	return r.register, nil
}

// IsRecording reports whether a recording is active.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentRegister returns the register being recorded, or 0.
func (r *Recorder) CurrentRegister() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return r.register
	}
	return 0
}

// Record adds line to the active recording. It does nothing when not
// recording.
func (r *Recorder) Record(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.lines = append(r.lines, line)
	}
}

// Get returns a copy of the requests in register.
func (r *Recorder) Get(register rune) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.registers[NormalizeRegister(register)])
}

// Set replaces the contents of register. Setting no lines clears it.
func (r *Recorder) Set(register rune, lines []string) error {
	name := NormalizeRegister(register)
	if name == 0 {
		return fmt.Errorf("%w: %c", ErrInvalidRegister, register)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(lines) == 0 {
		delete(r.registers, name)
		return nil
	}
	r.registers[name] = slices.Clone(lines)
	return nil
}

// Clear empties register.
func (r *Recorder) Clear(register rune) error {
	return r.Set(register, nil)
}

// ClearAll empties every register.
func (r *Recorder) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registers = make(map[rune][]string)
	r.lastPlayed = 0
}

// Registers describes every non-empty register in name order.
func (r *Recorder) Registers() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]Info, 0, len(r.registers))
	for name, lines := range r.registers {
		infos = append(infos, Info{Name: name, Requests: len(lines)})
	}
	slices.SortFunc(infos, func(a, b Info) int { return int(a.Name) - int(b.Name) })
	return infos
}

func (r *Recorder) setLastPlayed(register rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastPlayed = register
}

// LastPlayed returns the last register played, or 0.
func (r *Recorder) LastPlayed() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPlayed
}
