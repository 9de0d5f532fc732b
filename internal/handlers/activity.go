package handlers

import (
	"context"
	"log/slog"

	"github.com/vmunix/introskip/internal/events"
)

// ActivityLogger writes every bus event to the daemon log. Failures are
// logged as warnings, everything else at debug level.
type ActivityLogger struct {
	*BaseHandler
}

// NewActivityLogger creates an activity logger.
func NewActivityLogger(bus *events.Bus, logger *slog.Logger) *ActivityLogger {
	return &ActivityLogger{BaseHandler: NewBaseHandler("activity", bus, logger)}
}

// Start begins processing events.
func (h *ActivityLogger) Start(ctx context.Context) error {
	ch, unsubscribe := h.subscribeAll(256)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			h.record(ctx, e)
		}
	}
}

func (h *ActivityLogger) record(ctx context.Context, e events.Event) {
	level := slog.LevelDebug
	attrs := []any{"type", e.EventType(), "entity_type", e.EntityType(), "entity_id", e.EntityID()}

	switch ev := e.(type) {
	case *events.SeasonFailed:
		level = slog.LevelWarn
		attrs = append(attrs, "series", ev.Series, "season", ev.Season, "mode", ev.Mode, "reason", ev.Reason)
	case *events.ScanCompleted:
		if ev.Error != "" {
			level = slog.LevelWarn
			attrs = append(attrs, "error", ev.Error)
		}
		attrs = append(attrs, "run_id", ev.RunID)
	}
	h.Logger().Log(ctx, level, "event", attrs...)
}
