package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vivax3794/arcane/internal/config/loader"
	"github.com/vivax3794/arcane/internal/engine"
	"github.com/vivax3794/arcane/internal/engine/buffer"
	"github.com/vivax3794/arcane/internal/logging"
	"github.com/vivax3794/arcane/internal/search"
)

// Format is a configuration file syntax.
type Format = loader.Format

// Supported formats.
const (
	FormatTOML = loader.FormatTOML
	FormatYAML = loader.FormatYAML
)

// Config holds every arcane setting.
type Config struct {
	Engine  EngineConfig
	History HistoryConfig
	Limits  LimitsConfig
	Logging LoggingConfig
	Search  SearchConfig
}

// EngineConfig contains document settings.
type EngineConfig struct {
	Backend  string
	TabWidth int
}

// HistoryConfig contains undo settings.
type HistoryConfig struct {
	MaxEntries     int
	CoalesceWindow time.Duration
	MaxCoalesce    int
	BreakOnWord    bool
}

// LimitsConfig contains resource bounds.
type LimitsConfig struct {
	MaxDocumentBytes int64
	MaxCursors       int
	MaxChanges       int
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level string
}

// SearchConfig contains defaults for document search.
type SearchConfig struct {
	Mode          string
	CaseSensitive bool
	ContextLines  int
	MaxResults    int
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Backend:  buffer.KindPieceTable.String(),
			TabWidth: engine.DefaultTabWidth,
		},
		History: HistoryConfig{
			MaxEntries:     engine.DefaultMaxUndoEntries,
			CoalesceWindow: engine.DefaultCoalesceWindow,
			MaxCoalesce:    engine.DefaultMaxCoalesce,
		},
		Limits: LimitsConfig{
			MaxDocumentBytes: engine.DefaultMaxDocumentSize,
			MaxCursors:       engine.DefaultMaxCursors,
			MaxChanges:       engine.DefaultMaxChanges,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Search: SearchConfig{
			Mode:         search.ModeLiteral.String(),
			ContextLines: search.DefaultOptions().ContextLines,
			MaxResults:   search.DefaultOptions().MaxResults,
		},
	}
}

// settings is the registry of every known setting.
var settings = []*Setting{
	{
		Path: "engine.backend", Type: TypeChoice,
		Choices:     []string{"piecetable", "rope"},
		Description: "Text store backend",
		normalize: func(s string) (string, error) {
			k, err := buffer.ParseKind(s)
			return k.String(), err
		},
		field: func(c *Config) any { return &c.Engine.Backend },
	},
	{
		Path: "engine.tab_width", Type: TypeInt, Min: 1, Max: 16,
		Description: "Display width of a tab stop",
		field:       func(c *Config) any { return &c.Engine.TabWidth },
	},
	{
		Path: "history.max_entries", Type: TypeInt, Min: 1, Max: 100_000,
		Description: "Undo steps kept before the oldest are dropped",
		field:       func(c *Config) any { return &c.History.MaxEntries },
	},
	{
		Path: "history.coalesce_window", Type: TypeDuration, Min: 0, Max: int64(time.Minute),
		Description: "Longest pause between keystrokes merged into one undo step (0 disables)",
		field:       func(c *Config) any { return &c.History.CoalesceWindow },
	},
	{
		Path: "history.max_coalesce", Type: TypeInt, Min: 0, Max: 10_000,
		Description: "Most keystrokes merged into one undo step",
		field:       func(c *Config) any { return &c.History.MaxCoalesce },
	},
	{
		Path: "history.break_on_word", Type: TypeBool,
		Description: "Start a new undo step at each word",
		field:       func(c *Config) any { return &c.History.BreakOnWord },
	},
	{
		Path: "limits.max_document_bytes", Type: TypeInt, Min: 1, Max: 1 << 34,
		Description: "Largest document size in bytes",
		field:       func(c *Config) any { return &c.Limits.MaxDocumentBytes },
	},
	{
		Path: "limits.max_cursors", Type: TypeInt, Min: 1, Max: 100_000,
		Description: "Most cursors at once",
		field:       func(c *Config) any { return &c.Limits.MaxCursors },
	},
	{
		Path: "limits.max_changes", Type: TypeInt, Min: 1, Max: 1 << 20,
		Description: "Committed operations kept for change queries",
		field:       func(c *Config) any { return &c.Limits.MaxChanges },
	},
	{
		Path: "logging.level", Type: TypeChoice,
		Choices:     []string{"debug", "info", "warn", "error"},
		Description: "Minimum log level",
		normalize: func(s string) (string, error) {
			l, ok := logging.LookupLevel(s)
			if !ok {
				return "", ErrValidationFailed
			}
			return strings.ToLower(l.String()), nil
		},
		field: func(c *Config) any { return &c.Logging.Level },
	},
	{
		Path: "search.mode", Type: TypeChoice,
		Choices:     []string{"literal", "regex", "glob"},
		Description: "How search queries are interpreted",
		normalize: func(s string) (string, error) {
			m, err := search.ParseMode(s)
			return m.String(), err
		},
		field: func(c *Config) any { return &c.Search.Mode },
	},
	{
		Path: "search.case_sensitive", Type: TypeBool,
		Description: "Match case when searching",
		field:       func(c *Config) any { return &c.Search.CaseSensitive },
	},
	{
		Path: "search.context_lines", Type: TypeInt, Min: 0, Max: 20,
		Description: "Lines of context kept around each match",
		field:       func(c *Config) any { return &c.Search.ContextLines },
	},
	{
		Path: "search.max_results", Type: TypeInt, Min: 0, Max: 1_000_000,
		Description: "Most matches per search (0 = unlimited)",
		field:       func(c *Config) any { return &c.Search.MaxResults },
	},
}

// Settings returns the definitions of all settings, grouped by section.
func Settings() []*Setting {
	return settings
}

// Lookup returns the setting at path.
func Lookup(path string) (*Setting, bool) {
	for _, s := range settings {
		if s.Path == path {
			return s, true
		}
	}
	return nil, false
}

// Load reads a TOML or YAML file over the defaults. The format is chosen by
// extension. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	l, err := loader.NewFileLoader(path)
	if err != nil {
		return nil, err
	}
	values, err := l.Load()
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := c.Apply(values); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads configuration in format from r over the defaults.
func Decode(r io.Reader, format Format) (*Config, error) {
	values, err := loader.LoadReader(r, format)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := c.Apply(values); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply sets every value in a nested map. Unknown paths and invalid values
// are all reported; on error c is left unchanged.
func (c *Config) Apply(values map[string]any) error {
	flat := loader.Flatten(values)
	next := *c
	var errs []error
	for _, path := range loader.SortedPaths(flat) {
		if err := next.Set(path, flat[path]); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	*c = next
	return nil
}

// ApplyEnv overrides settings from environment variables such as
// ARCANE_HISTORY_MAX_ENTRIES.
func (c *Config) ApplyEnv(prefix string) error {
	return c.applyLoader(loader.NewEnvLoader(prefix))
}

func (c *Config) applyLoader(l loader.Loader) error {
	values, err := l.Load()
	if err != nil {
		return err
	}
	if err := c.Apply(values); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Set converts and stores the value of one setting.
func (c *Config) Set(path string, value any) error {
	s, ok := Lookup(path)
	if !ok {
		return &ValidationError{Path: path, Message: "unknown setting", Value: value, Code: ErrCodeUnknownSetting}
	}
	return s.Set(c, value)
}

// Get returns the value of one setting.
func (c *Config) Get(path string) (any, error) {
	s, ok := Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrSettingNotFound)
	}
	return s.Get(c), nil
}

// Validate checks every setting against its bounds.
func (c *Config) Validate() error {
	var errs []error
	for _, s := range settings {
		if err := s.Validate(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Map returns the configuration as a nested map of encodable values.
func (c *Config) Map() map[string]any {
	out := make(map[string]any)
	for _, s := range settings {
		v := s.Get(c)
		if d, ok := v.(time.Duration); ok {
			v = d.String()
		}
		loader.SetPath(out, s.Path, v)
	}
	return out
}

// Encode writes the configuration to w in format.
func (c *Config) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatTOML:
		return toml.NewEncoder(w).Encode(c.Map())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c.Map()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

// EngineOptions converts the configuration into engine options.
func (c *Config) EngineOptions() ([]engine.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	kind, err := buffer.ParseKind(c.Engine.Backend)
	if err != nil {
		return nil, err
	}
	return []engine.Option{
		engine.WithBackend(kind),
		engine.WithTabWidth(c.Engine.TabWidth),
		engine.WithMaxUndoEntries(c.History.MaxEntries),
		engine.WithCoalesceWindow(c.History.CoalesceWindow),
		engine.WithMaxCoalesce(c.History.MaxCoalesce),
		engine.WithWordBoundaries(c.History.BreakOnWord),
		engine.WithMaxDocumentSize(c.Limits.MaxDocumentBytes),
		engine.WithMaxCursors(c.Limits.MaxCursors),
		engine.WithMaxChanges(c.Limits.MaxChanges),
	}, nil
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

// SearchOptions returns the configured search defaults.
func (c *Config) SearchOptions() search.Options {
	mode, err := search.ParseMode(c.Search.Mode)
	if err != nil {
		mode = search.ModeLiteral
	}
	return search.Options{
		Mode:          mode,
		CaseSensitive: c.Search.CaseSensitive,
		ContextLines:  c.Search.ContextLines,
		MaxResults:    c.Search.MaxResults,
	}
}
