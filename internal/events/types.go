package events

// Entity types
const (
	EntityEpisode = "episode"
	EntityLibrary = "library"
	EntityScan    = "scan"
)

// Event type constants
const (
	EventEpisodeAdded   = "library.episode_added"
	EventEpisodeRemoved = "library.episode_removed"
	EventLibraryScanned = "library.scanned"
	EventScanRequested  = "scan.requested"
	EventScanStarted    = "scan.started"
	EventScanCompleted  = "scan.completed"
	EventSeasonFailed   = "scan.season_failed"
	EventSegmentsErased = "segments.erased"
)
