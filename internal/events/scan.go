package events

// ScanRequested asks the daemon to analyze the library.
type ScanRequested struct {
	BaseEvent
	Modes  []string `json:"modes"`
	Reason string   `json:"reason"`
}

// ScanStarted is emitted when a scan has built its queue.
type ScanStarted struct {
	BaseEvent
	RunID    string   `json:"run_id"`
	Modes    []string `json:"modes"`
	Episodes int64    `json:"episodes"`
	Seasons  int      `json:"seasons"`
}

// ScanCompleted is emitted when a scan finishes, successfully or not.
type ScanCompleted struct {
	BaseEvent
	RunID         string `json:"run_id"`
	Processed     int64  `json:"processed"`
	Queued        int64  `json:"queued"`
	SeasonsFailed int    `json:"seasons_failed"`
	DurationMs    int64  `json:"duration_ms"`
	Cancelled     bool   `json:"cancelled"`
	Error         string `json:"error,omitempty"`
	Diagnostics   string `json:"diagnostics"`
}

// SeasonFailed is emitted when one season could not be analyzed.
type SeasonFailed struct {
	BaseEvent
	RunID  string `json:"run_id"`
	Series string `json:"series"`
	Season int    `json:"season"`
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

// SegmentsErased is emitted when all stored segments of a mode are removed.
type SegmentsErased struct {
	BaseEvent
	Mode string `json:"mode"`
}
