// Package detect finds skippable segments in the episodes of a season.
//
// Detection is performed by a Chain of Analyzers. Each analyzer resolves as
// many episodes as it can, records the segments it found in a ResultStore and
// hands the remaining episodes to the next analyzer.
package detect

import (
	"fmt"
	"strings"
)

// Mode selects which kind of segment is being searched for.
type Mode string

const (
	ModeIntroduction Mode = "introduction"
	ModeCredits      Mode = "credits"
)

// AllModes lists every detection mode in the order scans run them.
var AllModes = []Mode{ModeIntroduction, ModeCredits}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intro", "introduction":
		return ModeIntroduction, nil
	case "credits", "outro":
		return ModeCredits, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

// ParseModes converts "all" or a single mode name into a list of modes.
func ParseModes(s string) ([]Mode, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return append([]Mode(nil), AllModes...), nil
	}
	m, err := ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []Mode{m}, nil
}

func (m Mode) String() string {
	return string(m)
}
