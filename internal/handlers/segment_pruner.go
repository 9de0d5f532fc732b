package handlers

import (
	"context"
	"log/slog"

	"github.com/vmunix/introskip/internal/events"
)

// SegmentForgetter drops the stored segments of one episode.
type SegmentForgetter interface {
	Forget(episodeID int64) error
}

// SegmentPruner removes segments of episodes dropped from the catalogue.
type SegmentPruner struct {
	*BaseHandler
	segments SegmentForgetter
}

// NewSegmentPruner creates a segment pruner.
func NewSegmentPruner(bus *events.Bus, segments SegmentForgetter, logger *slog.Logger) *SegmentPruner {
	return &SegmentPruner{
		BaseHandler: NewBaseHandler("segment-pruner", bus, logger),
		segments:    segments,
	}
}

// Start begins processing events.
func (h *SegmentPruner) Start(ctx context.Context) error {
	ch, unsubscribe := h.subscribe(100, events.EventEpisodeRemoved)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			ev, ok := e.(*events.EpisodeRemoved)
			if !ok {
				continue
			}
			if err := h.segments.Forget(ev.EpisodeID); err != nil {
				h.Logger().Error("failed to forget segments", "episode_id", ev.EpisodeID, "error", err)
				continue
			}
			h.Logger().Debug("forgot segments of removed episode", "episode_id", ev.EpisodeID, "path", ev.Path)
		}
	}
}
