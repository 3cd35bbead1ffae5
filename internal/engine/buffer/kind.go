package buffer

import (
	"fmt"
	"strings"

	"github.com/vivax3794/arcane/internal/engine/piece"
	"github.com/vivax3794/arcane/internal/engine/rope"
	"github.com/vivax3794/arcane/internal/engine/text"
)

// Kind selects the document backend.
type Kind uint8

const (
	// KindPieceTable stores edits as spans over an append-only buffer.
	KindPieceTable Kind = iota

	// KindRope stores text as bounded chunks.
	KindRope
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPieceTable:
		return "piecetable"
	case KindRope:
		return "rope"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind parses a backend name as used in configuration files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "piecetable", "piece_table", "piece-table", "piece":
		return KindPieceTable, nil
	case "rope":
		return KindRope, nil
	default:
		return 0, fmt.Errorf("unknown backend %q: %w", s, text.ErrInvalidOperation)
	}
}

// newStore creates an empty or pre-filled store of the given kind.
func newStore(k Kind, content string) text.Store {
	if k == KindRope {
		return rope.FromString(content)
	}
	return piece.New(content)
}
