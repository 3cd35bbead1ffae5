package app

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/engine/tracking"
)

// Document is one open file with its engine.
type Document struct {
	// Path is the file path (empty for scratch buffers).
	Path string

	// Name is the display name (file name or "Untitled").
	Name string

	// Engine holds the text, cursors and history.
	Engine *engine.Engine

	// ReadOnly documents reject edits and saves.
	ReadOnly bool

	original *engine.Snapshot
	savedGen uint64
	perm     fs.FileMode
}

// OpenDocument loads path into a new engine. A missing file opens as an
// empty document that Save will create.
func OpenDocument(path string, readOnly bool, opts ...engine.Option) (*Document, error) {
	if readOnly {
		opts = append(opts, engine.WithReadOnly())
	}

	perm := fs.FileMode(0o644)
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		e, err := engine.New(opts...)
		if err != nil {
			return nil, &FileError{Op: "open", Path: path, Err: err}
		}
		return newDocument(path, e, readOnly, perm), nil
	case err != nil:
		return nil, &FileError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		if info.IsDir() {
			return nil, &FileError{Op: "open", Path: path, Err: errors.New("is a directory")}
		}
		perm = info.Mode().Perm()
	}

	e, err := engine.NewFromReader(f, opts...)
	if err != nil {
		return nil, &FileError{Op: "open", Path: path, Err: err}
	}
	return newDocument(path, e, readOnly, perm), nil
}

// NewScratchDocument creates an unsaved document holding content.
func NewScratchDocument(content string, opts ...engine.Option) (*Document, error) {
	e, err := engine.New(append(opts, engine.WithContent(content))...)
	if err != nil {
		return nil, err
	}
	return newDocument("", e, false, 0o644), nil
}

func newDocument(path string, e *engine.Engine, readOnly bool, perm fs.FileMode) *Document {
	name := "Untitled"
	if path != "" {
		name = filepath.Base(path)
	}
	return &Document{
		Path:     path,
		Name:     name,
		Engine:   e,
		ReadOnly: readOnly,
		original: e.Snapshot(),
		savedGen: e.Generation(),
		perm:     perm,
	}
}

// IsScratch returns true if the document has no file path.
func (d *Document) IsScratch() bool {
	return d.Path == ""
}

// IsModified reports whether the text changed since it was opened or last
// saved.
func (d *Document) IsModified() bool {
	return d.Engine.Generation() != d.savedGen
}

// Content returns the current text.
func (d *Document) Content() string {
	return d.Engine.Text()
}

// Diff returns a unified diff from the text as opened to the current text.
// It is empty when nothing changed.
func (d *Document) Diff() string {
	hunks := tracking.Diff(d.original, d.Engine.Snapshot(), tracking.DefaultDiffOptions())
	name := d.Name
	return tracking.Unified(hunks, "a/"+name, "b/"+name)
}

// WriteTo writes the current text to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.Content())
	return int64(n), err
}

// Save writes the document to its path.
func (d *Document) Save() error {
	if d.IsScratch() {
		return &FileError{Op: "save", Err: ErrNoFilePath}
	}
	if d.ReadOnly {
		return &FileError{Op: "save", Path: d.Path, Err: ErrReadOnly}
	}
	return d.SaveAs(d.Path)
}

// Export writes the current text to path without changing the document's
// path or modified state.
func (d *Document) Export(path string) error {
	if err := os.WriteFile(path, []byte(d.Content()), d.perm); err != nil {
		return &FileError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// SaveAs writes the document to path and makes it the document's path.
func (d *Document) SaveAs(path string) error {
	gen := d.Engine.Generation()
	if err := os.WriteFile(path, []byte(d.Content()), d.perm); err != nil {
		return &FileError{Op: "save", Path: path, Err: err}
	}
	d.Path = path
	d.Name = filepath.Base(path)
	d.savedGen = gen
	return nil
}
