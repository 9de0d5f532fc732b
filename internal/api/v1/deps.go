package v1

import (
	"errors"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/library"
	"github.com/vmunix/introskip/internal/scan"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// SegmentStore reads and erases stored segments.
type SegmentStore interface {
	Get(episodeID int64, mode detect.Mode) (detect.Segment, bool)
	All(mode detect.Mode) []detect.Segment
	Count(mode detect.Mode) int
	Erase(mode detect.Mode) error
}

// ScanStatus reports on the scan orchestrator.
type ScanStatus interface {
	Status() scan.Status
	Running() bool
}

// FingerprintCache drops cached fingerprints.
type FingerprintCache interface {
	Remove(mode detect.Mode) error
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Library  *library.Store
	Segments SegmentStore

	// Optional dependencies (nil if not configured)
	Scanner  ScanStatus
	Cache    FingerprintCache
	Bus      *events.Bus      // Optional: scan requests are published here
	EventLog *events.EventLog // Optional: for event audit log
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Library == nil {
		return errors.New("library store is required")
	}
	if d.Segments == nil {
		return errors.New("segment store is required")
	}
	return nil
}
