// Package server runs the daemon's event-driven components.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/handlers"
)

// Config for the event-driven server.
type Config struct {
	// Schedule is a standard cron expression for periodic scans. Empty
	// disables scheduled scans.
	Schedule            string
	ScanOnLibraryChange bool
	SettleDelay         time.Duration
	Modes               []detect.Mode

	// Segments, when set, forgets the segments of episodes removed from the
	// catalogue.
	Segments handlers.SegmentForgetter
}

// Refresher refreshes the library catalogue before a scheduled scan.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Runner manages the event-driven components.
type Runner struct {
	bus       *events.Bus
	scanner   handlers.Scanner
	refresher Refresher
	config    Config
	logger    *slog.Logger
}

// NewRunner creates a new runner. refresher may be nil.
func NewRunner(bus *events.Bus, scanner handlers.Scanner, refresher Refresher, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = detect.AllModes
	}
	return &Runner{
		bus:       bus,
		scanner:   scanner,
		refresher: refresher,
		config:    cfg,
		logger:    logger,
	}
}

// Run starts all event-driven components.
// It blocks until the context is canceled or an error occurs.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	var scheduler *cron.Cron
	if r.config.Schedule != "" {
		scheduler = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := scheduler.AddFunc(r.config.Schedule, func() { r.scheduled(ctx) }); err != nil {
			return fmt.Errorf("schedule %q: %w", r.config.Schedule, err)
		}
	}

	for _, h := range r.handlers() {
		g.Go(func() error {
			r.logger.Info("handler started", "handler", h.Name())
			return h.Start(ctx)
		})
	}

	if scheduler != nil {
		scheduler.Start()
		r.logger.Info("scheduled scans enabled", "schedule", r.config.Schedule)
		g.Go(func() error {
			<-ctx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) handlers() []handlers.Handler {
	hs := []handlers.Handler{
		handlers.NewScanTrigger(r.bus, r.scanner, handlers.ScanTriggerConfig{
			Modes:           r.config.Modes,
			OnLibraryChange: r.config.ScanOnLibraryChange,
			SettleDelay:     r.config.SettleDelay,
		}, r.logger),
		handlers.NewActivityLogger(r.bus, r.logger),
	}
	if r.config.Segments != nil {
		hs = append(hs, handlers.NewSegmentPruner(r.bus, r.config.Segments, r.logger))
	}
	return hs
}

func (r *Runner) scheduled(ctx context.Context) {
	if r.refresher != nil {
		if err := r.refresher.Refresh(ctx); err != nil {
			r.logger.Error("library refresh failed", "error", err)
		}
	}

	modes := make([]string, len(r.config.Modes))
	for i, m := range r.config.Modes {
		modes[i] = m.String()
	}
	if err := r.bus.Publish(ctx, &events.ScanRequested{
		BaseEvent: events.NewBaseEvent(events.EventScanRequested, events.EntityScan, 0),
		Modes:     modes,
		Reason:    "schedule",
	}); err != nil {
		r.logger.Error("failed to publish scan request", "error", err)
	}
}
