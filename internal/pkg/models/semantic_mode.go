package models

import "fmt"

// SemanticMode is one hypothesis about how a set's raw blocks must be read:
// which row holds the server's points and whether the layout is newest-first.
type SemanticMode int

const (
	ModeUnknown SemanticMode = iota
	ModeServerRowChronological
	ModeReceiverRowChronological
	ModeServerRowReversed
	ModeReceiverRowReversed
)

// SemanticModes lists every mode in resolution priority order. The first mode
// whose reconstruction matches the oracle wins.
var SemanticModes = []SemanticMode{
	ModeServerRowChronological,
	ModeReceiverRowChronological,
	ModeServerRowReversed,
	ModeReceiverRowReversed,
}

// ServerRowFirst reports whether row 1 carries the server's own points.
func (m SemanticMode) ServerRowFirst() bool {
	return m == ModeServerRowChronological || m == ModeServerRowReversed
}

// Reversed reports whether blocks and point columns are read back to front.
func (m SemanticMode) Reversed() bool {
	return m == ModeServerRowReversed || m == ModeReceiverRowReversed
}

// Priority is the 1-based position in SemanticModes, 0 for unknown modes.
func (m SemanticMode) Priority() int {
	for i, mode := range SemanticModes {
		if mode == m {
			return i + 1
		}
	}
	return 0
}

func (m SemanticMode) String() string {
	switch m {
	case ModeServerRowChronological:
		return "server_row_chronological"
	case ModeReceiverRowChronological:
		return "receiver_row_chronological"
	case ModeServerRowReversed:
		return "server_row_reversed"
	case ModeReceiverRowReversed:
		return "receiver_row_reversed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode by name.
func (m SemanticMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *SemanticMode) UnmarshalText(b []byte) error {
	mode, err := ParseSemanticMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseSemanticMode is the inverse of String.
func ParseSemanticMode(s string) (SemanticMode, error) {
	for _, m := range SemanticModes {
		if m.String() == s {
			return m, nil
		}
	}
	if s == "unknown" || s == "" {
		return ModeUnknown, nil
	}
	return ModeUnknown, fmt.Errorf("unknown semantic mode %q", s)
}
