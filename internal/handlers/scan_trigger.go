package handlers

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/events"
	"github.com/vmunix/introskip/internal/scan"
)

// DefaultSettleDelay is how long the library must be quiet after an episode
// is added before a scan starts.
const DefaultSettleDelay = 30 * time.Second

// Scanner runs a segment scan.
type Scanner interface {
	Run(ctx context.Context, modes []detect.Mode, progress scan.ProgressFunc) (*scan.Report, error)
}

// ScanTriggerConfig configures a ScanTrigger.
type ScanTriggerConfig struct {
	// Modes scanned when an episode is added. Defaults to every mode.
	Modes []detect.Mode
	// OnLibraryChange enables scans after episodes are added.
	OnLibraryChange bool
	SettleDelay     time.Duration
}

// ScanTrigger starts scans on scan requests and, once the library settles,
// after new episodes are catalogued. Requests arriving during a scan are
// merged and run when it finishes.
type ScanTrigger struct {
	*BaseHandler
	scanner Scanner
	config  ScanTriggerConfig
}

// NewScanTrigger creates a scan trigger.
func NewScanTrigger(bus *events.Bus, scanner Scanner, cfg ScanTriggerConfig, logger *slog.Logger) *ScanTrigger {
	if len(cfg.Modes) == 0 {
		cfg.Modes = detect.AllModes
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	return &ScanTrigger{
		BaseHandler: NewBaseHandler("scan-trigger", bus, logger),
		scanner:     scanner,
		config:      cfg,
	}
}

// Start begins processing events.
func (h *ScanTrigger) Start(ctx context.Context) error {
	types := []string{events.EventScanRequested}
	if h.config.OnLibraryChange {
		types = append(types, events.EventEpisodeAdded)
	}
	ch, unsubscribe := h.subscribe(100, types...)
	defer unsubscribe()

	settle := time.NewTimer(h.config.SettleDelay)
	settle.Stop()
	defer settle.Stop()

	var (
		running bool
		pending []detect.Mode
		done    = make(chan struct{}, 1)
	)
	request := func(modes []detect.Mode) {
		pending = mergeModes(pending, modes)
		if running || len(pending) == 0 {
			return
		}
		running = true
		go h.run(ctx, pending, done)
		pending = nil
	}

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			switch ev := e.(type) {
			case *events.ScanRequested:
				modes := h.parseModes(ev.Modes)
				h.Logger().Info("scan requested", "modes", ev.Modes, "reason", ev.Reason)
				request(modes)
			case *events.EpisodeAdded:
				h.Logger().Debug("episode added, waiting for library to settle",
					"episode_id", ev.EpisodeID, "series", ev.Series)
				settle.Reset(h.config.SettleDelay)
			}
		case <-settle.C:
			request(h.config.Modes)
		case <-done:
			running = false
			if len(pending) > 0 {
				request(nil)
			}
		case <-ctx.Done():
			if running {
				<-done
			}
			return ctx.Err()
		}
	}
}

func (h *ScanTrigger) run(ctx context.Context, modes []detect.Mode, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	report, err := h.scanner.Run(ctx, modes, nil)
	switch {
	case errors.Is(err, scan.ErrScanInProgress):
		h.Logger().Info("scan already running, request dropped")
	case errors.Is(err, context.Canceled):
		h.Logger().Info("scan cancelled")
	case err != nil:
		h.Logger().Error("scan failed", "error", err)
	default:
		h.Logger().Info("scan completed",
			"run_id", report.RunID,
			"processed", report.Processed,
			"seasons_failed", report.SeasonsFailed)
	}
}

func (h *ScanTrigger) parseModes(names []string) []detect.Mode {
	if len(names) == 0 {
		return h.config.Modes
	}
	var modes []detect.Mode
	for _, name := range names {
		mode, err := detect.ParseMode(name)
		if err != nil {
			h.Logger().Warn("ignoring unknown mode", "mode", name)
			continue
		}
		modes = append(modes, mode)
	}
	return modes
}

// mergeModes returns the union of a and b in scan order.
func mergeModes(a, b []detect.Mode) []detect.Mode {
	var merged []detect.Mode
	for _, mode := range detect.AllModes {
		if slices.Contains(a, mode) || slices.Contains(b, mode) {
			merged = append(merged, mode)
		}
	}
	return merged
}
