// Package queue builds the per-season work queue for segment analysis and
// re-verifies season batches before they are analyzed.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/library"
)

// Source lists the catalogue.
type Source interface {
	ListLibraries() ([]*library.Library, error)
	ListEpisodes(f library.EpisodeFilter) ([]*library.EpisodeDetail, int, error)
	GetEpisode(id int64) (*library.EpisodeDetail, error)
}

// DecoderChecker reports whether the media decoder can be used.
type DecoderChecker interface {
	Check(ctx context.Context) error
}

// ResultChecker reports whether a segment is already stored.
type ResultChecker interface {
	Has(episodeID int64, mode detect.Mode) bool
}

// Options configures queue construction.
type Options struct {
	// SelectedLibraries restricts the queue to these library names.
	// Empty queues every library.
	SelectedLibraries []string

	// AnalysisPercent of an episode of at least five minutes is fingerprinted
	// for introductions, capped at AnalysisLengthLimit minutes.
	AnalysisPercent     int
	AnalysisLengthLimit int

	MaximumCreditsDuration float64
}

// Season is one batch of episodes analyzed together.
type Season struct {
	ID           int64
	SeriesName   string
	SeasonNumber int
	Episodes     []detect.QueuedEpisode
}

// SeasonQueue holds seasons in library order.
type SeasonQueue struct {
	Seasons []*Season
}

// EpisodeCount returns the number of queued episodes.
func (q *SeasonQueue) EpisodeCount() int {
	n := 0
	for _, s := range q.Seasons {
		n += len(s.Episodes)
	}
	return n
}

// Manager builds and verifies season queues.
type Manager struct {
	source  Source
	decoder DecoderChecker
	results ResultChecker
	opts    Options
	stat    func(string) (os.FileInfo, error)
	log     *slog.Logger
}

// NewManager creates a queue manager.
func NewManager(source Source, decoder DecoderChecker, results ResultChecker, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		source:  source,
		decoder: decoder,
		results: results,
		opts:    opts,
		stat:    os.Stat,
		log:     logger.With("component", "queue"),
	}
}

// Build queues every episode of the selected libraries, grouped by season.
// Returns detect.ErrDecoderUnavailable if the decoder check fails and
// detect.ErrNothingQueued if no episode could be queued.
func (m *Manager) Build(ctx context.Context) (*SeasonQueue, error) {
	if err := m.decoder.Check(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", detect.ErrDecoderUnavailable, err)
	}

	libs, err := m.source.ListLibraries()
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}

	names := make([]string, 0, len(libs))
	for _, lib := range libs {
		names = append(names, lib.Name)
	}
	var hints []string
	if len(m.opts.SelectedLibraries) > 0 {
		m.log.Info("limiting analysis to selected libraries", "libraries", m.opts.SelectedLibraries)
		for _, selected := range m.opts.SelectedLibraries {
			if slices.Contains(names, selected) {
				continue
			}
			if suggestion := suggestLibrary(selected, names); suggestion != "" {
				m.log.Warn("selected library not found", "library", selected, "suggestion", suggestion)
				hints = append(hints, fmt.Sprintf("%q (did you mean %q?)", selected, suggestion))
			} else {
				m.log.Warn("selected library not found", "library", selected)
				hints = append(hints, fmt.Sprintf("%q", selected))
			}
		}
	}

	q := &SeasonQueue{}
	bySeason := make(map[int64]*Season)
	for _, lib := range libs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(m.opts.SelectedLibraries) > 0 && !slices.Contains(m.opts.SelectedLibraries, lib.Name) {
			m.log.Debug("library not selected", "library", lib.Name)
			continue
		}

		episodes, _, err := m.source.ListEpisodes(library.EpisodeFilter{LibraryID: &lib.ID})
		if err != nil {
			m.log.Error("failed to list library", "library", lib.Name, "error", err)
			continue
		}
		m.log.Info("queueing library", "library", lib.Name, "episodes", len(episodes))

		for _, ep := range episodes {
			m.enqueue(q, bySeason, ep)
		}
	}

	if len(q.Seasons) == 0 {
		if len(hints) > 0 {
			return nil, fmt.Errorf("%w: selected libraries not found: %s", detect.ErrNothingQueued, joinHints(hints))
		}
		return nil, detect.ErrNothingQueued
	}
	m.log.Info("queue built", "seasons", len(q.Seasons), "episodes", q.EpisodeCount())
	return q, nil
}

func (m *Manager) enqueue(q *SeasonQueue, bySeason map[int64]*Season, ep *library.EpisodeDetail) {
	if ep.Path == "" {
		m.log.Warn("not queueing episode without a path",
			"series", ep.SeriesTitle, "season", ep.SeasonNumber, "episode_id", ep.ID)
		return
	}

	season, ok := bySeason[ep.SeasonID]
	if !ok {
		season = &Season{ID: ep.SeasonID, SeriesName: ep.SeriesTitle, SeasonNumber: ep.SeasonNumber}
		bySeason[ep.SeasonID] = season
		q.Seasons = append(q.Seasons, season)
	}
	if slices.ContainsFunc(season.Episodes, func(e detect.QueuedEpisode) bool { return e.EpisodeID == ep.ID }) {
		m.log.Debug("episode already queued", "series", ep.SeriesTitle, "episode_id", ep.ID)
		return
	}

	season.Episodes = append(season.Episodes, m.queued(ep))
}

func (m *Manager) queued(ep *library.EpisodeDetail) detect.QueuedEpisode {
	fingerprintEnd := ep.Duration
	if fingerprintEnd >= 5*60 {
		fingerprintEnd *= float64(m.opts.AnalysisPercent) / 100
	}
	fingerprintEnd = min(fingerprintEnd, float64(60*m.opts.AnalysisLengthLimit))

	return detect.QueuedEpisode{
		EpisodeID:               ep.ID,
		SeasonID:                ep.SeasonID,
		SeriesName:              ep.SeriesTitle,
		SeasonNumber:            ep.SeasonNumber,
		EpisodeNumber:           ep.Episode.Episode,
		Name:                    ep.Title,
		Path:                    ep.Path,
		Duration:                ep.Duration,
		IntroFingerprintEnd:     fingerprintEnd,
		CreditsFingerprintStart: max(0, ep.Duration-m.opts.MaximumCreditsDuration),
	}
}

// Verify re-checks a season batch. An episode is kept if its file still
// exists. A requested mode is outstanding once any examined episode lacks a
// result for it; each mode is checked only until that first episode is seen.
func (m *Manager) Verify(ctx context.Context, candidates []detect.QueuedEpisode, modes []detect.Mode) ([]detect.QueuedEpisode, []detect.Mode) {
	var verified []detect.QueuedEpisode
	pending := slices.Clone(modes)
	var outstanding []detect.Mode

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		ep, err := m.source.GetEpisode(candidate.EpisodeID)
		if err != nil {
			if !errors.Is(err, library.ErrNotFound) {
				m.log.Warn("episode lookup failed", "episode_id", candidate.EpisodeID, "error", err)
			}
			m.log.Debug("skipping episode", "episode", candidate.String(), "episode_id", candidate.EpisodeID, "error", err)
			continue
		}

		if _, err := m.stat(ep.Path); err == nil {
			verified = append(verified, candidate)
		} else {
			m.log.Debug("episode file missing", "episode_id", candidate.EpisodeID, "path", ep.Path)
		}

		pending = slices.DeleteFunc(pending, func(mode detect.Mode) bool {
			if m.results.Has(candidate.EpisodeID, mode) {
				return false
			}
			outstanding = append(outstanding, mode)
			return true
		})
	}

	return verified, orderLike(outstanding, modes)
}

// orderLike returns subset ordered as in reference.
func orderLike(subset, reference []detect.Mode) []detect.Mode {
	var ordered []detect.Mode
	for _, mode := range reference {
		if slices.Contains(subset, mode) {
			ordered = append(ordered, mode)
		}
	}
	return ordered
}
