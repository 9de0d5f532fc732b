package events

// EpisodeAdded is emitted when the library scanner catalogues a new episode.
type EpisodeAdded struct {
	BaseEvent
	EpisodeID int64  `json:"episode_id"`
	SeasonID  int64  `json:"season_id"`
	Series    string `json:"series"`
	Season    int    `json:"season"`
	Episode   int    `json:"episode"`
	Path      string `json:"path"`
}

// EpisodeRemoved is emitted when an episode's file is gone and it is
// dropped from the catalogue.
type EpisodeRemoved struct {
	BaseEvent
	EpisodeID int64  `json:"episode_id"`
	Path      string `json:"path"`
}

// LibraryScanned is emitted when a library refresh finishes.
type LibraryScanned struct {
	BaseEvent
	Library string `json:"library"`
	Found   int    `json:"found"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Removed int    `json:"removed"`
}
