package detect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmunix/introskip/internal/timerange"
)

const (
	// Bisection stops once the credits boundary is known to within this many seconds.
	maximumBisectionError = 4.0

	// Length of each black frame probe in seconds.
	probeWindow = 2.0
)

// BlackFrameAnalyzer locates the start of end credits by bisecting over tail
// offsets for the earliest run of black frames. It only supports ModeCredits.
type BlackFrameAnalyzer struct {
	decoder  Decoder
	store    ResultStore
	settings Settings
	log      *slog.Logger
}

// NewBlackFrameAnalyzer creates a black frame analyzer.
func NewBlackFrameAnalyzer(decoder Decoder, store ResultStore, settings Settings, logger *slog.Logger) *BlackFrameAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlackFrameAnalyzer{
		decoder:  decoder,
		store:    store,
		settings: settings,
		log:      logger.With("component", "blackframe"),
	}
}

// Analyze implements Analyzer.
func (a *BlackFrameAnalyzer) Analyze(ctx context.Context, episodes []QueuedEpisode, mode Mode) ([]QueuedEpisode, error) {
	if mode != ModeCredits {
		return nil, fmt.Errorf("black frame analysis of %s: %w", mode, ErrUnsupportedMode)
	}

	found := make(map[int64]Segment)
	for _, ep := range episodes {
		if ctx.Err() != nil {
			break
		}

		seg, ok, err := a.AnalyzeEpisode(ctx, ep)
		if err != nil {
			a.log.Debug("black frame probe failed", "episode_id", ep.EpisodeID, "path", ep.Path, "error", err)
			continue
		}
		if !ok {
			continue
		}
		found[ep.EpisodeID] = seg
	}

	if len(found) > 0 {
		if err := a.store.Merge(ModeCredits, found); err != nil {
			return nil, fmt.Errorf("store credits: %w", err)
		}
	}
	return unresolved(episodes, found), nil
}

// AnalyzeEpisode bisects the tail of one episode. The returned bool is false
// when no probe found black frames.
func (a *BlackFrameAnalyzer) AnalyzeEpisode(ctx context.Context, ep QueuedEpisode) (Segment, bool, error) {
	// start and end are offsets from the end of the file: start is the
	// farthest from the end that credits may begin, end the nearest.
	start := min(a.settings.MaximumCreditsDuration, ep.Duration)
	end := a.settings.MinimumCreditsDuration

	probeCtx := context.WithoutCancel(ctx)
	var boundary float64
	found := false
	for start-end > maximumBisectionError {
		midpoint := (start + end) / 2
		scanTime := ep.Duration - midpoint
		window := timerange.New(scanTime, scanTime+probeWindow)

		frames, err := a.decoder.BlackFrames(probeCtx, ep.Path, window, a.settings.BlackFrameMinimumPercentage)
		if err != nil {
			return Segment{}, false, fmt.Errorf("probe %s: %w", window, err)
		}

		if len(frames) == 0 {
			start = midpoint - probeWindow
			continue
		}

		end = midpoint
		boundary = scanTime + frames[0]
		found = true
	}

	if !found {
		return Segment{}, false, nil
	}

	a.log.Debug("found credits boundary", "episode_id", ep.EpisodeID, "start", boundary)
	return NewSegment(ep.EpisodeID, timerange.New(boundary, ep.Duration)), true, nil
}
