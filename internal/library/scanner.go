package library

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/vmunix/introskip/internal/events"
)

// DurationProber reads the duration of a media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Publisher publishes catalogue events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// ScanResult summarizes one library refresh.
type ScanResult struct {
	Library string
	Found   int
	Added   int
	Updated int
	Removed int
	Skipped int
}

// Scanner fills the catalogue from the files under a library root.
type Scanner struct {
	store  *Store
	prober DurationProber
	bus    Publisher
	log    *slog.Logger
}

// NewScanner creates a scanner. bus may be nil.
func NewScanner(store *Store, prober DurationProber, bus Publisher, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		store:  store,
		prober: prober,
		bus:    bus,
		log:    logger.With("component", "library-scanner"),
	}
}

// Scan walks the library root, upserts every recognized episode and removes
// episodes whose files are gone.
func (s *Scanner) Scan(ctx context.Context, lib *Library) (*ScanResult, error) {
	result := &ScanResult{Library: lib.Name}

	existing, _, err := s.store.ListEpisodes(EpisodeFilter{LibraryID: &lib.ID})
	if err != nil {
		return nil, err
	}
	known := make(map[string]*EpisodeDetail, len(existing))
	for _, ep := range existing {
		known[ep.Path] = ep
	}

	seen := make(map[int64]bool)
	err = filepath.WalkDir(lib.RootPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.log.Warn("skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !IsMediaFile(path) {
			return nil
		}

		parsed, ok := ParseEpisodePath(lib.RootPath, path)
		if !ok {
			s.log.Debug("no episode number in file name", "path", path)
			result.Skipped++
			return nil
		}
		result.Found++

		info, err := d.Info()
		if err != nil {
			s.log.Warn("failed to stat episode", "path", path, "error", err)
			result.Skipped++
			return nil
		}

		id, created, err := s.catalogue(ctx, lib, path, parsed, known[path], info.ModTime())
		if err != nil {
			s.log.Warn("failed to catalogue episode", "path", path, "error", err)
			result.Skipped++
			return nil
		}
		seen[id] = true
		if created {
			result.Added++
		} else {
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", lib.RootPath, err)
	}

	for _, ep := range existing {
		if seen[ep.ID] {
			continue
		}
		if err := s.store.DeleteEpisode(ep.ID); err != nil {
			return nil, err
		}
		result.Removed++
		s.publish(ctx, &events.EpisodeRemoved{
			BaseEvent: events.NewBaseEvent(events.EventEpisodeRemoved, events.EntityEpisode, ep.ID),
			EpisodeID: ep.ID,
			Path:      ep.Path,
		})
	}

	s.log.Info("library scanned",
		"library", lib.Name, "found", result.Found, "added", result.Added,
		"updated", result.Updated, "removed", result.Removed, "skipped", result.Skipped)
	s.publish(ctx, &events.LibraryScanned{
		BaseEvent: events.NewBaseEvent(events.EventLibraryScanned, events.EntityLibrary, lib.ID),
		Library:   lib.Name,
		Found:     result.Found,
		Added:     result.Added,
		Updated:   result.Updated,
		Removed:   result.Removed,
	})
	return result, nil
}

// catalogue upserts one episode. The duration is probed unless a previous
// row has one and the file has not changed since.
func (s *Scanner) catalogue(ctx context.Context, lib *Library, path string, parsed ParsedPath, prev *EpisodeDetail, modTime time.Time) (int64, bool, error) {
	duration := 0.0
	if prev != nil && prev.Duration > 0 && !modTime.After(prev.UpdatedAt) {
		duration = prev.Duration
	} else {
		d, err := s.prober.Duration(ctx, path)
		if err != nil {
			return 0, false, err
		}
		duration = d
	}

	var (
		ep      *Episode
		created bool
	)
	err := s.store.InTx(func(tx *Tx) error {
		series, _, err := tx.FindOrCreateSeries(lib.ID, parsed.Series)
		if err != nil {
			return err
		}
		season, err := tx.FindOrCreateSeason(series.ID, parsed.Season)
		if err != nil {
			return err
		}
		ep = &Episode{
			SeasonID: season.ID,
			Episode:  parsed.Episode,
			Title:    parsed.Title,
			Path:     path,
			Duration: duration,
		}
		created, err = tx.UpsertEpisode(ep)
		return err
	})
	if err != nil {
		return 0, false, err
	}

	if created {
		s.publish(ctx, &events.EpisodeAdded{
			BaseEvent: events.NewBaseEvent(events.EventEpisodeAdded, events.EntityEpisode, ep.ID),
			EpisodeID: ep.ID,
			SeasonID:  ep.SeasonID,
			Series:    parsed.Series,
			Season:    parsed.Season,
			Episode:   parsed.Episode,
			Path:      path,
		})
	}
	return ep.ID, created, nil
}

func (s *Scanner) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event", "type", e.EventType(), "error", err)
	}
}
