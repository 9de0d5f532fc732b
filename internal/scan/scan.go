// Package scan drives segment detection across every queued season.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/queue"
)

// ErrScanInProgress is returned when another scan holds the scan lock.
var ErrScanInProgress = errors.New("scan already in progress")

// Queue builds and verifies the season queue.
type Queue interface {
	Build(ctx context.Context) (*queue.SeasonQueue, error)
	Verify(ctx context.Context, episodes []detect.QueuedEpisode, modes []detect.Mode) ([]detect.QueuedEpisode, []detect.Mode)
}

// Publisher publishes scan events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Analyzers are the detection stages. Nil stages are skipped.
type Analyzers struct {
	Chapter     detect.Analyzer
	Chromaprint detect.Analyzer
	BlackFrame  detect.Analyzer
}

// Chain returns the stages run for mode: chapter, chromaprint and, for
// credits only, black frame.
func (a Analyzers) Chain(mode detect.Mode) detect.Chain {
	var chain detect.Chain
	for _, stage := range []detect.Analyzer{a.Chapter, a.Chromaprint} {
		if stage != nil {
			chain = append(chain, stage)
		}
	}
	if mode == detect.ModeCredits && a.BlackFrame != nil {
		chain = append(chain, a.BlackFrame)
	}
	return chain
}

// Options configures the orchestrator.
type Options struct {
	MaxParallelism    int
	AnalyzeSeasonZero bool
	// LockPath is a file locked for the duration of a scan so that only one
	// process scans a data directory at a time. Empty disables it.
	LockPath string
}

// Status describes the orchestrator state.
type Status struct {
	Running  bool     `json:"running"`
	Progress Progress `json:"progress"`
	Last     *Report  `json:"last,omitempty"`
}

// Orchestrator runs the analyzer chain over every season of the queue.
type Orchestrator struct {
	queue     Queue
	analyzers Analyzers
	bus       Publisher
	opts      Options
	log       *slog.Logger

	running sync.Mutex

	// Guards last and current.
	mu      sync.RWMutex
	last    *Report
	current *run
}

// NewOrchestrator creates an orchestrator. bus may be nil.
func NewOrchestrator(q Queue, analyzers Analyzers, bus Publisher, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxParallelism < 1 {
		opts.MaxParallelism = 1
	}
	return &Orchestrator{
		queue:     q,
		analyzers: analyzers,
		bus:       bus,
		opts:      opts,
		log:       logger.With("component", "scan"),
	}
}

// run holds the mutable state of one scan.
type run struct {
	report    *Report
	queued    atomic.Int64
	processed atomic.Int64
	progress  ProgressFunc

	mu sync.Mutex // guards report season counters, failures and diagnostics
}

func (r *run) advance(n int) {
	processed := r.processed.Add(int64(n))
	if r.progress != nil {
		r.progress(newProgress(processed, r.queued.Load()))
	}
}

func (r *run) snapshot() Progress {
	return newProgress(r.processed.Load(), r.queued.Load())
}

func (r *run) record(fn func(*Report)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.report)
}

// Status returns the current progress and the last finished report.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := Status{Last: o.last}
	if o.current != nil {
		s.Running = true
		s.Progress = o.current.snapshot()
	}
	return s
}

// Running reports whether a scan is in progress in this process.
func (o *Orchestrator) Running() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current != nil
}

// Run scans every queued season for the given modes. progress may be nil.
// Returns ErrScanInProgress if a scan is already running, and the fatal
// detect.ErrDecoderUnavailable or detect.ErrNothingQueued errors. Season
// failures are recorded in the report and never returned.
func (o *Orchestrator) Run(ctx context.Context, modes []detect.Mode, progress ProgressFunc) (*Report, error) {
	if !o.running.TryLock() {
		return nil, ErrScanInProgress
	}
	defer o.running.Unlock()

	if o.opts.LockPath != "" {
		lock := flock.New(o.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire scan lock: %w", err)
		}
		if !ok {
			return nil, ErrScanInProgress
		}
		defer func() { _ = lock.Unlock() }()
	}

	r := &run{
		report: &Report{
			RunID:     uuid.NewString(),
			Modes:     modeNames(modes),
			StartedAt: time.Now(),
		},
		progress: progress,
	}
	o.mu.Lock()
	o.current = r
	o.mu.Unlock()

	err := o.execute(ctx, r, modes)

	report := r.report
	report.FinishedAt = time.Now()
	report.Queued = r.queued.Load()
	report.Processed = r.processed.Load()
	if err != nil {
		report.Error = err.Error()
	}
	if ctx.Err() != nil {
		report.Cancelled = true
		if err == nil {
			err = ctx.Err()
		}
	}

	o.mu.Lock()
	o.current = nil
	o.last = report
	o.mu.Unlock()

	o.publish(context.WithoutCancel(ctx), &events.ScanCompleted{
		BaseEvent:     events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, 0),
		RunID:         report.RunID,
		Processed:     report.Processed,
		Queued:        report.Queued,
		SeasonsFailed: report.SeasonsFailed,
		DurationMs:    report.Duration().Milliseconds(),
		Cancelled:     report.Cancelled,
		Error:         report.Error,
		Diagnostics:   report.Diagnostics.String(),
	})
	o.log.Info("scan finished",
		"run_id", report.RunID,
		"processed", report.Processed,
		"queued", report.Queued,
		"seasons_failed", report.SeasonsFailed,
		"diagnostics", report.Diagnostics.String(),
		"duration_ms", report.Duration().Milliseconds())

	return report, err
}

func (o *Orchestrator) execute(ctx context.Context, r *run, modes []detect.Mode) error {
	q, err := o.queue.Build(ctx)
	if err != nil {
		if errors.Is(err, detect.ErrDecoderUnavailable) {
			r.report.Diagnostics |= DiagIncompatibleDecoder
		}
		return err
	}
	r.queued.Store(int64(q.EpisodeCount()))
	if r.queued.Load() == 0 {
		return detect.ErrNothingQueued
	}

	o.log.Info("scan started", "run_id", r.report.RunID, "modes", r.report.Modes,
		"seasons", len(q.Seasons), "episodes", r.queued.Load())
	o.publish(ctx, &events.ScanStarted{
		BaseEvent: events.NewBaseEvent(events.EventScanStarted, events.EntityScan, 0),
		RunID:     r.report.RunID,
		Modes:     r.report.Modes,
		Episodes:  r.queued.Load(),
		Seasons:   len(q.Seasons),
	})

	g := new(errgroup.Group)
	g.SetLimit(o.opts.MaxParallelism)
	for _, season := range q.Seasons {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o.analyzeSeason(ctx, r, season, modes)
			return nil
		})
	}
	return g.Wait()
}

func (o *Orchestrator) analyzeSeason(ctx context.Context, r *run, season *queue.Season, modes []detect.Mode) {
	if ctx.Err() != nil {
		return
	}
	log := o.log.With("series", season.SeriesName, "season", season.SeasonNumber)

	episodes, outstanding := o.queue.Verify(ctx, season.Episodes, modes)
	if len(episodes) == 0 || len(outstanding) == 0 {
		log.Debug("season already analyzed", "episodes", len(episodes))
		r.advance(len(season.Episodes))
		r.record(func(rep *Report) { rep.SeasonsSkipped++ })
		return
	}

	if ctx.Err() != nil {
		return
	}

	if len(outstanding) != len(modes) {
		r.advance(len(episodes))
	}

	if season.SeasonNumber == 0 && !o.opts.AnalyzeSeasonZero {
		log.Debug("skipping specials")
		r.record(func(rep *Report) { rep.SeasonsSkipped++ })
		return
	}

	log.Info("analyzing season", "episodes", len(episodes), "modes", modeNames(outstanding))
	for _, mode := range outstanding {
		_, err := o.analyzers.Chain(mode).Run(ctx, episodes, mode)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.fail(ctx, r, log, season, mode, err)
			return
		}
		r.advance(len(episodes))
	}
	r.record(func(rep *Report) { rep.SeasonsAnalyzed++ })
}

func (o *Orchestrator) fail(ctx context.Context, r *run, log *slog.Logger, season *queue.Season, mode detect.Mode, err error) {
	flag := DiagSeasonFailed
	var fpErr *detect.FingerprintError
	if errors.As(err, &fpErr) {
		flag = DiagInvalidFingerprint
		log.Warn("unable to fingerprint season", "mode", mode, "episode_id", fpErr.EpisodeID, "error", err)
	} else {
		log.Error("season analysis failed", "mode", mode, "error", err)
	}

	failure := SeasonFailure{
		Series: season.SeriesName,
		Season: season.SeasonNumber,
		Mode:   mode.String(),
		Reason: err.Error(),
	}
	r.record(func(rep *Report) {
		rep.SeasonsFailed++
		rep.Diagnostics |= flag
		rep.Failures = append(rep.Failures, failure)
	})

	o.publish(ctx, &events.SeasonFailed{
		BaseEvent: events.NewBaseEvent(events.EventSeasonFailed, events.EntityScan, season.ID),
		RunID:     r.report.RunID,
		Series:    failure.Series,
		Season:    failure.Season,
		Mode:      failure.Mode,
		Reason:    failure.Reason,
	})
}

func (o *Orchestrator) publish(ctx context.Context, e events.Event) {
	if o.bus == nil {
		return
	}
	if err := o.bus.Publish(ctx, e); err != nil {
		o.log.Warn("failed to publish event", "type", e.EventType(), "error", err)
	}
}

func modeNames(modes []detect.Mode) []string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	return names
}
