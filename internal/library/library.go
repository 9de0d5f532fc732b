// Package library catalogues the TV libraries, series, seasons and episodes
// that are available for analysis.
package library

import (
	"time"
)

// Library is a named root directory of TV series.
type Library struct {
	ID       int64
	Name     string
	RootPath string
	AddedAt  time.Time
}

// Series is a show inside a library.
type Series struct {
	ID        int64
	LibraryID int64
	Title     string
	AddedAt   time.Time
}

// Season groups the episodes of a series. Number 0 holds specials.
type Season struct {
	ID       int64
	SeriesID int64
	Number   int
}

// Episode is a single episode backed by a media file.
type Episode struct {
	ID        int64
	SeasonID  int64
	Episode   int
	Title     string
	Path      string
	Duration  float64 // seconds
	AddedAt   time.Time
	UpdatedAt time.Time
}

// EpisodeDetail is an episode joined with its season, series and library.
type EpisodeDetail struct {
	Episode
	SeasonNumber int
	SeriesID     int64
	SeriesTitle  string
	LibraryID    int64
	LibraryName  string
}
