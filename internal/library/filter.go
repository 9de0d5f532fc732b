package library

// EpisodeFilter specifies criteria for listing episodes.
type EpisodeFilter struct {
	LibraryID *int64
	SeriesID  *int64
	SeasonID  *int64
	Path      *string
	Limit     int // 0 = no limit
	Offset    int
}
