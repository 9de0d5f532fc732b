package detect

import (
	"fmt"

	"github.com/vmunix/introskip/internal/timerange"
)

// QueuedEpisode is one episode waiting for analysis.
type QueuedEpisode struct {
	EpisodeID     int64
	SeasonID      int64
	SeriesName    string
	SeasonNumber  int
	EpisodeNumber int
	Name          string
	Path          string

	// Duration of the media file in seconds.
	Duration float64

	// IntroFingerprintEnd is how many seconds from the start are fingerprinted
	// when searching for an introduction.
	IntroFingerprintEnd float64

	// CreditsFingerprintStart is where fingerprinting starts when searching
	// for credits.
	CreditsFingerprintStart float64
}

// FingerprintWindow returns the part of the episode sampled for mode.
func (e QueuedEpisode) FingerprintWindow(mode Mode) timerange.Range {
	if mode == ModeCredits {
		return timerange.New(e.CreditsFingerprintStart, e.Duration)
	}
	return timerange.New(0, e.IntroFingerprintEnd)
}

func (e QueuedEpisode) String() string {
	return fmt.Sprintf("%s S%02dE%02d", e.SeriesName, e.SeasonNumber, e.EpisodeNumber)
}

// unresolved returns the episodes without an entry in found, in input order.
func unresolved(episodes []QueuedEpisode, found map[int64]Segment) []QueuedEpisode {
	remaining := make([]QueuedEpisode, 0, len(episodes))
	for _, ep := range episodes {
		if _, ok := found[ep.EpisodeID]; !ok {
			remaining = append(remaining, ep)
		}
	}
	return remaining
}
