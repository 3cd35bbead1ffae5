package buffer

import (
	"fmt"

	"github.com/vivax3794/arcane/internal/engine/text"
)

// Buffer is the document owned by one engine. It validates every edit
// before touching the backend, so a failed call leaves the content as it
// was. Buffer is not safe for concurrent use; hand snapshots to readers.
type Buffer struct {
	View

	store   text.Store
	kind    Kind
	maxSize int64
}

// New creates an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		kind:    KindPieceTable,
		maxSize: DefaultMaxSize,
	}
	b.tabWidth = DefaultTabWidth
	for _, opt := range opts {
		opt(b)
	}
	b.setStore(newStore(b.kind, ""))
	return b
}

// NewFromString creates a buffer holding content.
func NewFromString(content string, opts ...Option) (*Buffer, error) {
	b := New(opts...)
	if err := b.Reset(content); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buffer) setStore(s text.Store) {
	b.store = s
	b.Reader = s
}

// Kind returns the backend in use.
func (b *Buffer) Kind() Kind {
	return b.kind
}

// MaxSize returns the largest document the buffer accepts.
func (b *Buffer) MaxSize() int64 {
	return b.maxSize
}

// Store returns the underlying backend for inspection.
func (b *Buffer) Store() text.Store {
	return b.store
}

// Text returns the full content.
func (b *Buffer) Text() string {
	return b.String()
}

// CheckEdit reports whether replacing r with s would succeed, without
// changing anything.
func (b *Buffer) CheckEdit(r text.Range, s string) error {
	if err := text.CheckText(s); err != nil {
		return err
	}
	if err := text.CheckRange(b, r); err != nil {
		return err
	}
	if size := b.Len() - r.Len() + int64(len(s)); size > b.maxSize {
		return fmt.Errorf("document of %d bytes exceeds limit of %d: %w", size, b.maxSize, text.ErrCapacityExceeded)
	}
	return nil
}

// Insert splices s into the document at offset.
func (b *Buffer) Insert(offset ByteOffset, s string) error {
	if err := b.CheckEdit(text.Empty(offset), s); err != nil {
		return err
	}
	return b.store.Insert(offset, s)
}

// Delete removes r and returns the removed text.
func (b *Buffer) Delete(r text.Range) (string, error) {
	if err := b.CheckEdit(r, ""); err != nil {
		return "", err
	}
	return b.store.Delete(r)
}

// Replace swaps the text in r for s and returns the removed text.
func (b *Buffer) Replace(r text.Range, s string) (string, error) {
	if err := b.CheckEdit(r, s); err != nil {
		return "", err
	}
	removed, err := b.store.Delete(r)
	if err != nil {
		return "", err
	}
	if err := b.store.Insert(r.Start, s); err != nil {
		// Put the removed text back so the buffer is intact.
		if rerr := b.store.Insert(r.Start, removed); rerr != nil {
			return "", fmt.Errorf("restore %v after failed insert (%w): %w", r, err, rerr)
		}
		return "", err
	}
	return removed, nil
}

// Reset discards the content and loads content into a fresh backend.
func (b *Buffer) Reset(content string) error {
	if err := text.CheckText(content); err != nil {
		return err
	}
	if int64(len(content)) > b.maxSize {
		return fmt.Errorf("document of %d bytes exceeds limit of %d: %w", len(content), b.maxSize, text.ErrCapacityExceeded)
	}
	b.setStore(newStore(b.kind, content))
	return nil
}

// Snapshot returns an immutable view of the current content tagged with
// generation.
func (b *Buffer) Snapshot(generation uint64) *Snapshot {
	return &Snapshot{
		View:       View{Reader: b.store.Snapshot(), tabWidth: b.tabWidth},
		generation: generation,
	}
}
