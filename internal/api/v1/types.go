package v1

import (
	"encoding/json"

	"github.com/vmunix/introskip/internal/scan"
)

// timestampsResponse is a segment adjusted for playback.
type timestampsResponse struct {
	EpisodeID        int64   `json:"episode_id"`
	Mode             string  `json:"mode"`
	Valid            bool    `json:"valid"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	ShowSkipPromptAt float64 `json:"show_skip_prompt_at"`
	HideSkipPromptAt float64 `json:"hide_skip_prompt_at"`
}

// segmentResponse is a stored segment with episode metadata.
type segmentResponse struct {
	EpisodeID int64   `json:"episode_id"`
	Series    string  `json:"series"`
	Season    int     `json:"season"`
	Episode   int     `json:"episode"`
	Title     string  `json:"title"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// listSegmentsResponse is the response for GET /segments.
type listSegmentsResponse struct {
	Mode  string            `json:"mode"`
	Items []segmentResponse `json:"items"`
	Total int               `json:"total"`
}

// scanResponse acknowledges a scan request.
type scanResponse struct {
	Modes  []string `json:"modes"`
	Status string   `json:"status"`
}

// statusResponse is the response for GET /status.
type statusResponse struct {
	Status        string          `json:"status"`
	Scan          scan.Status     `json:"scan"`
	Segments      map[string]int  `json:"segments"`
	Series        int             `json:"series"`
	Seasons       int             `json:"seasons"`
	Episodes      int             `json:"episodes"`
	LastCompleted json.RawMessage `json:"last_completed,omitempty"`
}

// uiResponse is the skip button configuration.
type uiResponse struct {
	SkipButtonVisible     bool   `json:"skip_button_visible"`
	SkipButtonIntroText   string `json:"skip_button_intro_text"`
	SkipButtonCreditsText string `json:"skip_button_credits_text"`
}

// libraryResponse is the API representation of a library.
type libraryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Series   int    `json:"series"`
	Episodes int    `json:"episodes"`
}

// EventResponse is the API representation of a logged event.
type EventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Summary    string          `json:"summary,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt string          `json:"occurred_at"`
}

type listEventsResponse struct {
	Items []EventResponse `json:"items"`
	Limit int             `json:"limit"`
}
