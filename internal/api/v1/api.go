// Package v1 implements the native REST API.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vmunix/introskip/internal/config"
	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/library"
)

// Config holds API server configuration.
type Config struct {
	Playback config.PlaybackConfig
}

// Server is the v1 API server.
type Server struct {
	deps     ServerDeps
	cfg      Config
	registry *events.Registry
}

// New creates a new v1 API server.
func New(deps ServerDeps, cfg Config) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingDependency, err)
	}
	return &Server{deps: deps, cfg: cfg, registry: events.DefaultRegistry()}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Playback
	mux.HandleFunc("GET /api/v1/episodes/{id}/timestamps", s.getTimestamps)
	mux.HandleFunc("GET /api/v1/episodes/{id}/segments", s.getEpisodeSegments)
	mux.HandleFunc("GET /api/v1/ui", s.getUIConfig)

	// Segments
	mux.HandleFunc("GET /api/v1/segments", s.listSegments)
	mux.HandleFunc("POST /api/v1/segments/erase", s.eraseSegments)

	// Library
	mux.HandleFunc("GET /api/v1/libraries", s.listLibraries)

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("POST /api/v1/scan", s.requireBus(s.triggerScan))
	mux.HandleFunc("GET /api/v1/events", s.requireEventLog(s.listEvents))
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryMode parses the mode query parameter, defaulting to introduction.
func queryMode(r *http.Request) (detect.Mode, error) {
	val := r.URL.Query().Get("mode")
	if val == "" {
		return detect.ModeIntroduction, nil
	}
	return detect.ParseMode(val)
}

// adjust applies the playback settings to a stored segment.
func (s *Server) adjust(seg detect.Segment, mode detect.Mode) timestampsResponse {
	p := s.cfg.Playback
	end := seg.End - float64(p.SecondsOfIntroToPlay)
	return timestampsResponse{
		EpisodeID:        seg.EpisodeID,
		Mode:             mode.String(),
		Valid:            end > seg.Start,
		Start:            seg.Start,
		End:              end,
		ShowSkipPromptAt: max(0, seg.Start-float64(p.ShowPromptAdjustment)),
		HideSkipPromptAt: min(seg.Start+float64(p.HidePromptAdjustment), end-1),
	}
}

func (s *Server) getTimestamps(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	mode, err := queryMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MODE", err.Error())
		return
	}

	seg, ok := s.deps.Segments.Get(id, mode)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Segment not found")
		return
	}
	resp := s.adjust(seg, mode)
	if !resp.Valid {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Segment not found")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getEpisodeSegments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	resp := make(map[string]timestampsResponse)
	for _, mode := range detect.AllModes {
		if seg, ok := s.deps.Segments.Get(id, mode); ok {
			resp[mode.String()] = s.adjust(seg, mode)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getUIConfig(w http.ResponseWriter, _ *http.Request) {
	p := s.cfg.Playback
	writeJSON(w, http.StatusOK, uiResponse{
		SkipButtonVisible:     p.SkipButtonVisible,
		SkipButtonIntroText:   p.SkipButtonIntroText,
		SkipButtonCreditsText: p.SkipButtonCreditsText,
	})
}

func (s *Server) listSegments(w http.ResponseWriter, r *http.Request) {
	mode, err := queryMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MODE", err.Error())
		return
	}

	segments := s.deps.Segments.All(mode)
	resp := listSegmentsResponse{
		Mode:  mode.String(),
		Items: make([]segmentResponse, len(segments)),
		Total: len(segments),
	}
	for i, seg := range segments {
		item := segmentResponse{EpisodeID: seg.EpisodeID, Start: seg.Start, End: seg.End}
		ep, err := s.deps.Library.GetEpisode(seg.EpisodeID)
		switch {
		case err == nil:
			item.Series = ep.SeriesTitle
			item.Season = ep.SeasonNumber
			item.Episode = ep.Episode.Episode
			item.Title = ep.Title
		case !errors.Is(err, library.ErrNotFound):
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
			return
		}
		resp.Items[i] = item
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) eraseSegments(w http.ResponseWriter, r *http.Request) {
	mode, err := queryMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MODE", err.Error())
		return
	}

	if err := s.deps.Segments.Erase(mode); err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Remove(mode); err != nil {
			writeError(w, http.StatusInternalServerError, "CACHE_ERROR", err.Error())
			return
		}
	}
	if s.deps.Bus != nil {
		_ = s.deps.Bus.Publish(r.Context(), &events.SegmentsErased{
			BaseEvent: events.NewBaseEvent(events.EventSegmentsErased, events.EntityScan, 0),
			Mode:      mode.String(),
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listLibraries(w http.ResponseWriter, _ *http.Request) {
	libs, err := s.deps.Library.ListLibraries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := make([]libraryResponse, len(libs))
	for i, l := range libs {
		stats, err := s.deps.Library.GetStats(&l.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
			return
		}
		resp[i] = libraryResponse{
			ID:       l.ID,
			Name:     l.Name,
			RootPath: l.RootPath,
			Series:   stats.Series,
			Episodes: stats.Episodes,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Status:   "ok",
		Segments: make(map[string]int),
	}
	for _, mode := range detect.AllModes {
		resp.Segments[mode.String()] = s.deps.Segments.Count(mode)
	}

	stats, err := s.deps.Library.GetStats(nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp.Series = stats.Series
	resp.Seasons = stats.Seasons
	resp.Episodes = stats.Episodes

	if s.deps.Scanner != nil {
		resp.Scan = s.deps.Scanner.Status()
	}
	if s.deps.EventLog != nil {
		last, err := s.deps.EventLog.LatestOfType(events.EventScanCompleted)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
			return
		}
		if last != nil {
			resp.LastCompleted = json.RawMessage(last.Payload)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) triggerScan(w http.ResponseWriter, r *http.Request) {
	modes := detect.AllModes
	if val := r.URL.Query().Get("mode"); val != "" {
		var err error
		modes, err = detect.ParseModes(val)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_MODE", err.Error())
			return
		}
	}

	if s.deps.Scanner != nil && s.deps.Scanner.Running() {
		writeError(w, http.StatusConflict, "SCAN_IN_PROGRESS", "A scan is already running")
		return
	}

	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	if err := s.deps.Bus.Publish(r.Context(), &events.ScanRequested{
		BaseEvent: events.NewBaseEvent(events.EventScanRequested, events.EntityScan, 0),
		Modes:     names,
		Reason:    "api",
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, scanResponse{Modes: names, Status: "queued"})
}
