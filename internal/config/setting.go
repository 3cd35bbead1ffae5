package config

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SettingType is a setting's data type.
type SettingType uint8

const (
	// TypeInt is a bounded integer.
	TypeInt SettingType = iota
	// TypeBool is a toggle.
	TypeBool
	// TypeDuration is a bounded duration. Plain numbers are milliseconds.
	TypeDuration
	// TypeChoice is one of a fixed list of names.
	TypeChoice
)

// String returns the type name.
func (t SettingType) String() string {
	switch t {
	case TypeInt:
		return "integer"
	case TypeBool:
		return "boolean"
	case TypeDuration:
		return "duration"
	case TypeChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// Setting defines a configuration setting with its metadata.
type Setting struct {
	// Path is the dot-separated path (e.g., "engine.tab_width").
	Path string

	// Type is the setting's data type.
	Type SettingType

	// Min and Max bound integer settings, and duration settings in
	// nanoseconds.
	Min, Max int64

	// Choices lists the allowed names of a choice setting.
	Choices []string

	// Description is human-readable documentation.
	Description string

	// normalize maps aliases of a choice to its canonical name.
	normalize func(string) (string, error)

	// field returns a pointer to the setting's value in a Config.
	field func(*Config) any
}

// Get returns the setting's value in c.
func (s *Setting) Get(c *Config) any {
	switch p := s.field(c).(type) {
	case *int:
		return int64(*p)
	case *int64:
		return *p
	case *bool:
		return *p
	case *time.Duration:
		return *p
	case *string:
		return *p
	default:
		panic(fmt.Sprintf("config: setting %s has unsupported field %T", s.Path, p))
	}
}

// Set converts value, validates it and stores it in c.
func (s *Setting) Set(c *Config, value any) error {
	v, err := s.convert(value)
	if err != nil {
		return err
	}
	if err := s.check(v); err != nil {
		return err
	}
	switch p := s.field(c).(type) {
	case *int:
		*p = int(v.(int64))
	case *int64:
		*p = v.(int64)
	case *bool:
		*p = v.(bool)
	case *time.Duration:
		*p = v.(time.Duration)
	case *string:
		*p = v.(string)
	}
	return nil
}

// Validate checks the setting's current value in c.
func (s *Setting) Validate(c *Config) error {
	return s.check(s.Get(c))
}

func (s *Setting) mismatch(value any) error {
	return &ValidationError{
		Path:    s.Path,
		Message: fmt.Sprintf("expected %s, got %T", s.Type, value),
		Value:   value,
		Code:    ErrCodeTypeMismatch,
	}
}

// convert turns a decoded TOML, YAML or environment value into the
// setting's Go type.
func (s *Setting) convert(value any) (any, error) {
	switch s.Type {
	case TypeInt:
		n, ok := toInt(value)
		if !ok {
			return nil, s.mismatch(value)
		}
		return n, nil

	case TypeBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "on", "1":
				return true, nil
			case "false", "no", "off", "0":
				return false, nil
			}
		}
		return nil, s.mismatch(value)

	case TypeDuration:
		switch v := value.(type) {
		case time.Duration:
			return v, nil
		case string:
			if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
				return d, nil
			}
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return time.Duration(n) * time.Millisecond, nil
			}
		default:
			if n, ok := toInt(value); ok {
				return time.Duration(n) * time.Millisecond, nil
			}
		}
		return nil, s.mismatch(value)

	case TypeChoice:
		v, ok := value.(string)
		if !ok {
			return nil, s.mismatch(value)
		}
		v = strings.ToLower(strings.TrimSpace(v))
		if s.normalize != nil {
			canonical, err := s.normalize(v)
			if err != nil {
				return nil, s.invalidChoice(v)
			}
			v = canonical
		}
		return v, nil
	}
	return nil, s.mismatch(value)
}

func (s *Setting) invalidChoice(v string) error {
	return &ValidationError{
		Path:    s.Path,
		Message: fmt.Sprintf("value must be one of: %s", strings.Join(s.Choices, ", ")),
		Value:   v,
		Code:    ErrCodeInvalidEnum,
	}
}

// check validates a converted value against the setting's bounds.
func (s *Setting) check(v any) error {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case time.Duration:
		n = int64(x)
	case string:
		if s.Type == TypeChoice && !slices.Contains(s.Choices, x) {
			return s.invalidChoice(x)
		}
		return nil
	default:
		return nil
	}
	if n < s.Min || n > s.Max {
		return &ValidationError{
			Path:    s.Path,
			Message: fmt.Sprintf("must be between %s and %s", s.format(s.Min), s.format(s.Max)),
			Value:   v,
			Code:    ErrCodeOutOfRange,
		}
	}
	return nil
}

func (s *Setting) format(n int64) string {
	if s.Type == TypeDuration {
		return time.Duration(n).String()
	}
	return strconv.FormatInt(n, 10)
}

// toInt accepts the integer shapes produced by the TOML and YAML decoders
// and by environment variables.
func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
