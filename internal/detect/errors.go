package detect

import (
	"errors"
	"fmt"
)

var (
	// ErrDecoderUnavailable indicates ffmpeg (with chromaprint) cannot be used.
	// Nothing can be analyzed without it.
	ErrDecoderUnavailable = errors.New("ffmpeg with chromaprint support is not available")

	// ErrNothingQueued indicates the library listing produced no episodes.
	ErrNothingQueued = errors.New("no episodes to analyze")

	// ErrUnsupportedMode indicates an analyzer was asked for a mode it cannot handle.
	ErrUnsupportedMode = errors.New("unsupported analysis mode")
)

// FingerprintError is returned when an episode could not be fingerprinted.
// It fails the season being analyzed but not the whole scan.
type FingerprintError struct {
	EpisodeID int64
	Path      string
	Err       error
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("fingerprint episode %d (%s): %v", e.EpisodeID, e.Path, e.Err)
}

func (e *FingerprintError) Unwrap() error {
	return e.Err
}
