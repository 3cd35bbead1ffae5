package config

import (
	"errors"
	"fmt"

	"github.com/vivax3794/arcane/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrSettingNotFound indicates the setting path doesn't exist.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrTypeMismatch indicates the value type doesn't match the expected type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed indicates the value fails validation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnsupportedFormat indicates a file format other than TOML or YAML.
	ErrUnsupportedFormat = loader.ErrUnsupportedFormat
)

// ParseError represents an error while parsing a configuration file.
type ParseError = loader.ParseError

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting path that failed validation.
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
	// Code categorizes the validation error.
	Code ValidationErrorCode
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is matches the sentinel for the error's code.
func (e *ValidationError) Is(target error) bool {
	switch e.Code {
	case ErrCodeUnknownSetting:
		return target == ErrSettingNotFound
	case ErrCodeTypeMismatch:
		return target == ErrTypeMismatch
	default:
		return target == ErrValidationFailed
	}
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode uint8

const (
	// ErrCodeUnknownSetting indicates an unrecognized setting path.
	ErrCodeUnknownSetting ValidationErrorCode = iota
	// ErrCodeTypeMismatch indicates the value type is wrong.
	ErrCodeTypeMismatch
	// ErrCodeOutOfRange indicates a numeric value is out of range.
	ErrCodeOutOfRange
	// ErrCodeInvalidEnum indicates the value is not in the allowed enum.
	ErrCodeInvalidEnum
)

// String returns a human-readable name for the error code.
func (c ValidationErrorCode) String() string {
	switch c {
	case ErrCodeUnknownSetting:
		return "unknown_setting"
	case ErrCodeTypeMismatch:
		return "type_mismatch"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInvalidEnum:
		return "invalid_enum"
	default:
		return "unknown"
	}
}
