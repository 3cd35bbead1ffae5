// Package loader reads configuration sources into nested maps.
//
// TOML and YAML files are parsed by extension, and environment variables
// with a prefix are turned into dotted setting paths. The resulting maps
// are merged with DeepMerge and applied by package config, which owns the
// meaning of each key.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader is the interface for configuration loaders.
type Loader interface {
	// Load reads configuration from the source and returns a map.
	// Returns nil, nil if the source doesn't exist (not an error).
	Load() (map[string]any, error)
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// Format is a configuration file syntax.
type Format uint8

const (
	// FormatTOML is TOML, the default for arcane configuration.
	FormatTOML Format = iota
	// FormatYAML is YAML.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name such as "toml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// FileLoader loads configuration from a TOML or YAML file.
type FileLoader struct {
	fs     FileSystem
	path   string
	format Format
}

// NewFileLoader creates a loader for path, choosing the format by
// extension.
func NewFileLoader(path string) (*FileLoader, error) {
	return NewFileLoaderWithFS(DefaultFS(), path)
}

// NewFileLoaderWithFS creates a file loader with a custom file system.
func NewFileLoaderWithFS(fsys FileSystem, path string) (*FileLoader, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	return &FileLoader{fs: fsys, path: path, format: format}, nil
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string {
	return l.path
}

// Format returns the syntax the loader parses.
func (l *FileLoader) Format() Format {
	return l.format
}

// Load reads and parses the file. A missing file yields nil, nil.
func (l *FileLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}
	return Parse(l.path, l.format, data)
}

// LoadReader parses configuration from r.
func LoadReader(r io.Reader, format Format) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse("<reader>", format, data)
}

// Parse parses data in the given format. source names the input in errors.
func Parse(source string, format Format, data []byte) (map[string]any, error) {
	switch format {
	case FormatTOML:
		return parseTOML(source, data)
	case FormatYAML:
		return parseYAML(source, data)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}
