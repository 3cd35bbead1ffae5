package buffer

// Default configuration values.
const (
	DefaultTabWidth = 4

	// DefaultMaxSize is the default document size limit (1 GiB).
	DefaultMaxSize int64 = 1 << 30
)

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithKind selects the document backend.
func WithKind(k Kind) Option {
	return func(b *Buffer) {
		b.kind = k
	}
}

// WithTabWidth sets the buffer's tab width.
func WithTabWidth(width int) Option {
	return func(b *Buffer) {
		if width > 0 {
			b.tabWidth = width
		}
	}
}

// WithMaxSize sets the largest document the buffer accepts, in bytes.
func WithMaxSize(n int64) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.maxSize = n
		}
	}
}
