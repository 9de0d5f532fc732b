package scan

import (
	"strings"
	"time"
)

// Diagnostics are warning flags raised during one scan.
type Diagnostics uint32

const (
	// DiagInvalidFingerprint is set when an episode could not be fingerprinted.
	DiagInvalidFingerprint Diagnostics = 1 << iota
	// DiagIncompatibleDecoder is set when ffmpeg is missing or lacks chromaprint.
	DiagIncompatibleDecoder
	// DiagSeasonFailed is set when a season failed for any other reason.
	DiagSeasonFailed
)

var diagnosticNames = []struct {
	flag Diagnostics
	name string
}{
	{DiagInvalidFingerprint, "InvalidFingerprint"},
	{DiagIncompatibleDecoder, "IncompatibleDecoder"},
	{DiagSeasonFailed, "SeasonFailed"},
}

// Has reports whether flag is set.
func (d Diagnostics) Has(flag Diagnostics) bool {
	return d&flag != 0
}

func (d Diagnostics) String() string {
	if d == 0 {
		return "None"
	}
	var names []string
	for _, n := range diagnosticNames {
		if d.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ", ")
}

// MarshalText renders the flags as in String.
func (d Diagnostics) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// SeasonFailure records a season that could not be analyzed.
type SeasonFailure struct {
	Series string `json:"series"`
	Season int    `json:"season"`
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

// Report summarizes one scan.
type Report struct {
	RunID      string    `json:"run_id"`
	Modes      []string  `json:"modes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Queued          int64 `json:"queued"`
	Processed       int64 `json:"processed"`
	SeasonsAnalyzed int   `json:"seasons_analyzed"`
	SeasonsSkipped  int   `json:"seasons_skipped"`
	SeasonsFailed   int   `json:"seasons_failed"`

	Failures    []SeasonFailure `json:"failures,omitempty"`
	Diagnostics Diagnostics     `json:"diagnostics"`
	Cancelled   bool            `json:"cancelled"`
	Error       string          `json:"error,omitempty"`
}

// Duration returns how long the scan ran.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Progress is a snapshot of a running scan. Processed grows by the episode
// count of a season once per analyzed mode, so with several modes it can
// exceed Queued and Percent can pass 100.
type Progress struct {
	Processed int64 `json:"processed"`
	Queued    int64 `json:"queued"`
	Percent   int   `json:"percent"`
}

func newProgress(processed, queued int64) Progress {
	p := Progress{Processed: processed, Queued: queued}
	if queued > 0 {
		p.Percent = int(processed * 100 / queued)
	}
	return p
}

// ProgressFunc receives progress updates. It may be called concurrently.
type ProgressFunc func(Progress)
