package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vmunix/introskip/internal/events"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	if limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit must be non-negative")
		return
	}
	const maxLimit = 1000
	if limit > maxLimit {
		limit = maxLimit
	}

	eventType := r.URL.Query().Get("type")
	if eventType != "" && !s.registry.Has(eventType) {
		writeError(w, http.StatusBadRequest, "INVALID_EVENT_TYPE",
			fmt.Sprintf("unknown event type %q, expected one of: %s", eventType, strings.Join(s.registry.Types(), ", ")))
		return
	}

	var (
		raws []events.RawEvent
		err  error
	)
	if eventType != "" {
		raws, err = s.deps.EventLog.RecentOfType(eventType, limit)
	} else {
		raws, err = s.deps.EventLog.Recent(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	resp := listEventsResponse{
		Items: make([]EventResponse, len(raws)),
		Limit: limit,
	}
	for i, e := range raws {
		resp.Items[i] = s.eventResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// eventResponse decodes a stored event into its concrete type so the
// payload is re-encoded in the current shape. Rows of unknown or
// malformed types keep their stored payload and get no summary.
func (s *Server) eventResponse(e events.RawEvent) EventResponse {
	resp := EventResponse{
		ID:         e.ID,
		EventType:  e.EventType,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Payload:    json.RawMessage(e.Payload),
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
	}

	typed, err := s.registry.Unmarshal(e)
	if err != nil {
		return resp
	}
	if payload, err := json.Marshal(typed); err == nil {
		resp.Payload = payload
	}
	resp.Summary = summarizeEvent(typed)
	return resp
}

func summarizeEvent(e events.Event) string {
	switch ev := e.(type) {
	case *events.EpisodeAdded:
		return fmt.Sprintf("added %s S%02dE%02d", ev.Series, ev.Season, ev.Episode)
	case *events.EpisodeRemoved:
		return "removed " + ev.Path
	case *events.LibraryScanned:
		return fmt.Sprintf("library %s: %d found, %d added, %d removed", ev.Library, ev.Found, ev.Added, ev.Removed)
	case *events.ScanRequested:
		return fmt.Sprintf("scan requested (%s): %s", ev.Reason, strings.Join(ev.Modes, ", "))
	case *events.ScanStarted:
		return fmt.Sprintf("scan %s started: %d episodes in %d seasons", ev.RunID, ev.Episodes, ev.Seasons)
	case *events.ScanCompleted:
		switch {
		case ev.Error != "":
			return fmt.Sprintf("scan %s failed: %s", ev.RunID, ev.Error)
		case ev.Cancelled:
			return fmt.Sprintf("scan %s cancelled after %d of %d", ev.RunID, ev.Processed, ev.Queued)
		}
		return fmt.Sprintf("scan %s completed: %d of %d", ev.RunID, ev.Processed, ev.Queued)
	case *events.SeasonFailed:
		return fmt.Sprintf("%s season %d failed (%s): %s", ev.Series, ev.Season, ev.Mode, ev.Reason)
	case *events.SegmentsErased:
		return "erased " + ev.Mode + " segments"
	}
	return ""
}
