package detect

import (
	"context"

	"github.com/vmunix/introskip/internal/timerange"
)

// Analyzer resolves segments for a batch of episodes from one season.
// It records every segment it finds in its ResultStore and returns the
// episodes it could not resolve, in their original order.
type Analyzer interface {
	Analyze(ctx context.Context, episodes []QueuedEpisode, mode Mode) ([]QueuedEpisode, error)
}

// Decoder extracts signals from media files.
type Decoder interface {
	// BlackFrames returns the timestamps, relative to window.Start, of frames
	// inside window that are at least minimumPercent black.
	BlackFrames(ctx context.Context, path string, window timerange.Range, minimumPercent int) ([]float64, error)

	// Fingerprint returns the raw chromaprint points of window.
	Fingerprint(ctx context.Context, path string, window timerange.Range) ([]uint32, error)
}

// Chapter is a named chapter marker.
type Chapter struct {
	Name  string  `json:"name"`
	Start float64 `json:"start"`
}

// ChapterSource lists the chapters embedded in a media file.
type ChapterSource interface {
	Chapters(ctx context.Context, path string) ([]Chapter, error)
}

// ResultStore receives segments found by analyzers.
type ResultStore interface {
	Merge(mode Mode, segments map[int64]Segment) error
	Has(episodeID int64, mode Mode) bool
}

// Chain runs analyzers in order, feeding each the remainder of the previous.
type Chain []Analyzer

// Run analyzes episodes and returns those no analyzer could resolve.
// It stops early when the remainder is empty or ctx is cancelled.
func (c Chain) Run(ctx context.Context, episodes []QueuedEpisode, mode Mode) ([]QueuedEpisode, error) {
	remaining := episodes
	for _, analyzer := range c {
		if len(remaining) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return remaining, err
		}
		next, err := analyzer.Analyze(ctx, remaining, mode)
		if err != nil {
			return remaining, err
		}
		remaining = next
	}
	return remaining, nil
}
