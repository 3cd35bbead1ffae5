package rope

import (
	"github.com/vivax3794/arcane/internal/engine/sumtree"
	"github.com/vivax3794/arcane/internal/engine/text"
)

// Rope is a chunked rope document. It is not safe for concurrent mutation;
// use Snapshot to hand content to other goroutines.
type Rope struct {
	sumtree.Tree[Chunk]
}

var _ text.Store = (*Rope)(nil)

// New creates an empty rope.
func New() *Rope {
	return &Rope{}
}

// FromString creates a rope from a string.
// Content is not validated; callers check it with text.CheckText.
func FromString(s string) *Rope {
	return &Rope{Tree: sumtree.Build(splitIntoChunks(s)...)}
}

// Insert splices s into the document at offset.
func (r *Rope) Insert(offset text.ByteOffset, s string) error {
	if err := text.CheckText(s); err != nil {
		return err
	}
	if err := text.CheckOffset(r.Tree, offset); err != nil {
		return err
	}
	if s == "" {
		return nil
	}

	c, start, ok := r.Locate(offset)
	if !ok {
		r.Tree = sumtree.Build(splitIntoChunks(s)...)
		return nil
	}

	// Rewrite the chunk holding offset so small edits never leave slivers.
	at := int(offset - start)
	merged := c.data[:at] + s + c.data[at:]
	r.Tree = r.Splice(text.NewRange(start, start+text.ByteOffset(c.Len())), splitIntoChunks(merged)...)
	return nil
}

// Delete removes rg and returns the removed text.
func (r *Rope) Delete(rg text.Range) (string, error) {
	removed, err := r.Slice(rg)
	if err != nil {
		return "", err
	}
	if rg.IsEmpty() {
		return "", nil
	}

	first, firstStart, _ := r.Locate(rg.Start)
	// At a seam Locate returns the following chunk, which is merged in.
	last, lastStart, _ := r.Locate(rg.End)
	lastEnd := lastStart + text.ByteOffset(last.Len())

	merged := first.data[:rg.Start-firstStart] + last.data[rg.End-lastStart:]
	r.Tree = r.Splice(text.NewRange(firstStart, lastEnd), splitIntoChunks(merged)...)
	return removed, nil
}

// Snapshot returns an immutable view of the current content.
func (r *Rope) Snapshot() text.Reader {
	return r.Tree
}

// Chunks returns the number of chunks.
func (r *Rope) Chunks() int {
	return r.Summary().Items
}
