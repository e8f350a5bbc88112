package rhyme

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Rhymer/core/errors"
)

// Mode selects which labeling methods run. It is a set of flags; the zero
// value requests nothing and is rejected.
type Mode uint8

const (
	// SchemeOnly fits sonnet templates; non-sonnets get an empty partition.
	SchemeOnly Mode = 1 << iota
	// GroupOnly takes connected components of the rhyme graph.
	GroupOnly
	// Hybrid merges the scheme and group partitions.
	Hybrid = SchemeOnly | GroupOnly
)

// UsesScheme reports whether m includes scheme matching.
func (m Mode) UsesScheme() bool { return m&SchemeOnly != 0 }

// UsesGroups reports whether m includes grouping.
func (m Mode) UsesGroups() bool { return m&GroupOnly != 0 }

// Validate returns a ConfigurationError unless m is one of the three modes.
func (m Mode) Validate() error {
	switch m {
	case SchemeOnly, GroupOnly, Hybrid:
		return nil
	}
	return errors.NewConfiguration("mode", "one of scheme or group labeling must be enabled")
}

func (m Mode) String() string {
	switch m {
	case SchemeOnly:
		return "scheme"
	case GroupOnly:
		return "group"
	case Hybrid:
		return "hybrid"
	default:
		return "none"
	}
}

// ParseMode accepts scheme, group or hybrid, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scheme", "scheme-only", "schemeonly":
		return SchemeOnly, nil
	case "group", "group-only", "grouponly":
		return GroupOnly, nil
	case "hybrid", "both":
		return Hybrid, nil
	}
	return 0, errors.NewConfiguration("mode", "unknown mode "+strconv.Quote(s)+" (want scheme, group or hybrid)")
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

