// Package app wires the stores, analyzers and scan orchestrator shared by
// the daemon and the command line tool.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vmunix/introskip/internal/config"
	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/ffmpeg"
	"github.com/vmunix/introskip/internal/library"
	"github.com/vmunix/introskip/internal/migrations"
	"github.com/vmunix/introskip/internal/queue"
	"github.com/vmunix/introskip/internal/scan"
	"github.com/vmunix/introskip/internal/segments"
)

// App holds every long-lived component built from a Config.
type App struct {
	Config    *config.Config
	DB        *sql.DB
	Library   *library.Store
	Segments  *segments.Store
	EventLog  *events.EventLog
	Bus       *events.Bus
	FFmpeg    *ffmpeg.Wrapper
	Cache     *detect.FileCache
	Catalogue *library.Scanner
	Scanner   *scan.Orchestrator

	log *slog.Logger
}

// Open creates the data directories, opens and migrates the database,
// registers the configured libraries and restores stored segments.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Analysis.CachePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		DB:       db,
		Library:  library.NewStore(db),
		Segments: segments.NewStore(db, logger),
		EventLog: events.NewEventLog(db),
		FFmpeg:   ffmpeg.New(cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath, logger),
		Cache:    detect.NewFileCache(cfg.Analysis.CachePath),
		log:      logger.With("component", "app"),
	}
	a.Bus = events.NewBus(a.EventLog, logger)
	a.Catalogue = library.NewScanner(a.Library, a.FFmpeg, a.Bus, logger)

	if err := a.init(dbDir, logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(dbDir string, logger *slog.Logger) error {
	cfg := a.Config
	for _, l := range cfg.Libraries {
		if _, err := a.Library.EnsureLibrary(l.Name, l.Root); err != nil {
			return fmt.Errorf("register library %q: %w", l.Name, err)
		}
	}

	if err := a.Segments.Restore(); err != nil {
		return fmt.Errorf("restore segments: %w", err)
	}

	settings := cfg.DetectSettings()
	chapters, err := detect.NewChapterAnalyzer(a.FFmpeg, a.Segments, settings, logger)
	if err != nil {
		return fmt.Errorf("chapter analyzer: %w", err)
	}
	analyzers := scan.Analyzers{
		Chapter:     chapters,
		Chromaprint: detect.NewChromaprintAnalyzer(a.FFmpeg, a.Segments, a.Cache, settings, logger),
		BlackFrame:  detect.NewBlackFrameAnalyzer(a.FFmpeg, a.Segments, settings, logger),
	}

	q := queue.NewManager(a.Library, a.FFmpeg, a.Segments, queue.Options{
		SelectedLibraries:      cfg.Analysis.SelectedLibraryNames(),
		AnalysisPercent:        cfg.Analysis.AnalysisPercent,
		AnalysisLengthLimit:    cfg.Analysis.AnalysisLengthLimit,
		MaximumCreditsDuration: float64(cfg.Analysis.MaximumCreditsDuration),
	}, logger)

	a.Scanner = scan.NewOrchestrator(q, analyzers, a.Bus, scan.Options{
		MaxParallelism:    cfg.Analysis.MaxParallelism,
		AnalyzeSeasonZero: cfg.Analysis.AnalyzeSeasonZero,
		LockPath:          filepath.Join(dbDir, "scan.lock"),
	}, logger)
	return nil
}

// OpenDB opens and migrates the SQLite database at path.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Refresh catalogues every configured library. A library that fails is
// logged and the rest are still scanned; the joined errors are returned.
func (a *App) Refresh(ctx context.Context) error {
	_, err := a.RefreshLibraries(ctx)
	return err
}

// RefreshLibraries catalogues every configured library and returns the
// per-library results.
func (a *App) RefreshLibraries(ctx context.Context) ([]*library.ScanResult, error) {
	libs, err := a.Library.ListLibraries()
	if err != nil {
		return nil, err
	}

	configured := make(map[string]bool, len(a.Config.Libraries))
	for _, l := range a.Config.Libraries {
		configured[l.Name] = true
	}

	var (
		results []*library.ScanResult
		errs    []error
	)
	for _, lib := range libs {
		if !configured[lib.Name] {
			continue
		}
		res, err := a.Catalogue.Scan(ctx, lib)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			a.log.Error("library scan failed", "library", lib.Name, "error", err)
			errs = append(errs, fmt.Errorf("library %q: %w", lib.Name, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// PruneSegments forgets segments whose episode is no longer catalogued and
// returns how many episodes were affected.
func (a *App) PruneSegments() (int, error) {
	orphans := make(map[int64]bool)
	for _, mode := range detect.AllModes {
		for _, seg := range a.Segments.All(mode) {
			if orphans[seg.EpisodeID] {
				continue
			}
			_, err := a.Library.GetEpisode(seg.EpisodeID)
			switch {
			case errors.Is(err, library.ErrNotFound):
				orphans[seg.EpisodeID] = true
			case err != nil:
				return 0, err
			}
		}
	}
	for id := range orphans {
		if err := a.Forget(id); err != nil {
			return 0, err
		}
	}
	if len(orphans) > 0 {
		a.log.Info("pruned segments of removed episodes", "episodes", len(orphans))
	}
	return len(orphans), nil
}

// Forget drops the stored segments and cached fingerprints of one episode.
func (a *App) Forget(episodeID int64) error {
	if err := a.Segments.Forget(episodeID); err != nil {
		return err
	}
	return a.Cache.Forget(episodeID)
}

// Close shuts down the bus and the database.
func (a *App) Close() error {
	var errs []error
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
