package macro

import (
	"fmt"
	"unicode"
)

// IsValidRegister reports whether r names a register (a-z or 0-9).
func IsValidRegister(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// IsAppendRegister reports whether r is an uppercase letter, which appends
// to the matching lowercase register.
func IsAppendRegister(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// NormalizeRegister maps r to its canonical register. Uppercase letters
// become lowercase; invalid names return 0.
func NormalizeRegister(r rune) rune {
	if IsAppendRegister(r) {
		return unicode.ToLower(r)
	}
	if IsValidRegister(r) {
		return r
	}
	return 0
}

// ParseRegister parses a one-character register name.
func ParseRegister(s string) (rune, error) {
	runes := []rune(s)
	if len(runes) != 1 || NormalizeRegister(runes[0]) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRegister, s)
	}
	return runes[0], nil
}

// Info describes the contents of one register.
type Info struct {
	Name     rune
	Requests int
}
