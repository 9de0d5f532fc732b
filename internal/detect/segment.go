package detect

import "github.com/vmunix/introskip/internal/timerange"

// Segment is a skippable time range in one episode.
type Segment struct {
	EpisodeID int64   `json:"episode_id"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// NewSegment creates a segment covering r.
func NewSegment(episodeID int64, r timerange.Range) Segment {
	return Segment{EpisodeID: episodeID, Start: r.Start, End: r.End}
}

// Range returns the segment's time range.
func (s Segment) Range() timerange.Range {
	return timerange.New(s.Start, s.End)
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Valid reports whether the segment has a positive duration.
func (s Segment) Valid() bool {
	return s.End > s.Start
}
