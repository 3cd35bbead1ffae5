package buffer

// Snapshot is a read-only view of a buffer at one generation. It never
// changes and is safe for concurrent access.
type Snapshot struct {
	View
	generation uint64
}

// Generation returns the engine generation the snapshot was taken at.
func (s *Snapshot) Generation() uint64 {
	return s.generation
}

// Text returns the full snapshot content.
func (s *Snapshot) Text() string {
	return s.String()
}
