package detect

import (
	"context"
	"fmt"
	"log/slog"
	"math/bits"
	"slices"

	"github.com/vmunix/introskip/internal/timerange"
)

const (
	// Seconds of audio covered by one chromaprint point.
	samplesToSeconds = 0.1238

	// Two points match when they differ in at most this many bits.
	maximumDifferences = 6

	// Points within this distance of each other are shift candidates.
	invertedIndexShift = 2

	// Largest gap between matching points inside one segment, in seconds.
	maximumTimeSkip = 3.5
)

// FingerprintCache stores fingerprints between scans, keyed by the window
// they were taken over.
type FingerprintCache interface {
	Load(episodeID int64, mode Mode, window timerange.Range) ([]uint32, bool)
	Save(episodeID int64, mode Mode, window timerange.Range, points []uint32) error
}

// ChromaprintAnalyzer finds segments shared between episodes of a season by
// correlating their audio fingerprints.
type ChromaprintAnalyzer struct {
	decoder  Decoder
	store    ResultStore
	cache    FingerprintCache
	settings Settings
	log      *slog.Logger
}

// NewChromaprintAnalyzer creates a fingerprint analyzer. cache may be nil.
func NewChromaprintAnalyzer(decoder Decoder, store ResultStore, cache FingerprintCache, settings Settings, logger *slog.Logger) *ChromaprintAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromaprintAnalyzer{
		decoder:  decoder,
		store:    store,
		cache:    cache,
		settings: settings,
		log:      logger.With("component", "chromaprint"),
	}
}

// Analyze implements Analyzer. A fingerprinting failure aborts the batch with
// a *FingerprintError.
func (a *ChromaprintAnalyzer) Analyze(ctx context.Context, episodes []QueuedEpisode, mode Mode) ([]QueuedEpisode, error) {
	if len(episodes) < 2 {
		return episodes, nil
	}

	fingerprints := make(map[int64][]uint32, len(episodes))
	for _, ep := range episodes {
		if ctx.Err() != nil {
			return episodes, nil
		}
		points, err := a.fingerprint(ctx, ep, mode)
		if err != nil {
			return nil, &FingerprintError{EpisodeID: ep.EpisodeID, Path: ep.Path, Err: err}
		}
		fingerprints[ep.EpisodeID] = points
	}

	found := make(map[int64]Segment)
	queue := slices.Clone(episodes)
	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}

		current := queue[0]
		queue = queue[1:]

		for _, other := range queue {
			lhs, rhs, ok := a.compareEpisodes(current, fingerprints[current.EpisodeID], other, fingerprints[other.EpisodeID], mode)
			if !ok {
				continue
			}
			keepLongest(found, lhs)
			keepLongest(found, rhs)
			break
		}
	}

	if len(found) > 0 {
		if err := a.store.Merge(mode, found); err != nil {
			return nil, fmt.Errorf("store %s segments: %w", mode, err)
		}
	}

	remaining := unresolved(episodes, found)
	a.log.Debug("fingerprint correlation finished",
		"mode", mode, "episodes", len(episodes), "resolved", len(found), "remaining", len(remaining))
	return remaining, nil
}

func (a *ChromaprintAnalyzer) fingerprint(ctx context.Context, ep QueuedEpisode, mode Mode) ([]uint32, error) {
	window := ep.FingerprintWindow(mode)
	if a.cache != nil {
		if points, ok := a.cache.Load(ep.EpisodeID, mode, window); ok {
			return points, nil
		}
	}

	points, err := a.decoder.Fingerprint(context.WithoutCancel(ctx), ep.Path, window)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Save(ep.EpisodeID, mode, window, points); err != nil {
			a.log.Warn("failed to cache fingerprint", "episode_id", ep.EpisodeID, "error", err)
		}
	}
	return points, nil
}

// compareEpisodes correlates two fingerprints and returns the shared segment
// of each episode in absolute time.
func (a *ChromaprintAnalyzer) compareEpisodes(lhsEp QueuedEpisode, lhs []uint32, rhsEp QueuedEpisode, rhs []uint32, mode Mode) (Segment, Segment, bool) {
	minimum, maximum := a.settings.durationBounds(mode)

	lhsRange, rhsRange, ok := compareFingerprints(lhs, rhs, minimum)
	if !ok {
		return Segment{}, Segment{}, false
	}
	if mode == ModeIntroduction && (lhsRange.Duration() > maximum || rhsRange.Duration() > maximum) {
		a.log.Debug("rejected overlong introduction",
			"lhs", lhsEp.EpisodeID, "rhs", rhsEp.EpisodeID, "duration", lhsRange.Duration())
		return Segment{}, Segment{}, false
	}

	lhsOffset := lhsEp.FingerprintWindow(mode).Start
	rhsOffset := rhsEp.FingerprintWindow(mode).Start
	return NewSegment(lhsEp.EpisodeID, lhsRange.Shift(lhsOffset)),
		NewSegment(rhsEp.EpisodeID, rhsRange.Shift(rhsOffset)),
		true
}

// compareFingerprints returns the longest matching run in each fingerprint,
// relative to the start of the fingerprint.
func compareFingerprints(lhs, rhs []uint32, minimumDuration float64) (timerange.Range, timerange.Range, bool) {
	lhsIndex := invertedIndex(lhs)
	rhsIndex := invertedIndex(rhs)

	shiftSet := make(map[int]struct{})
	for point, lhsPos := range lhsIndex {
		for i := -invertedIndexShift; i <= invertedIndexShift; i++ {
			if rhsPos, ok := rhsIndex[uint32(int64(point)+int64(i))]; ok {
				shiftSet[rhsPos-lhsPos] = struct{}{}
			}
		}
	}
	shifts := make([]int, 0, len(shiftSet))
	for s := range shiftSet {
		shifts = append(shifts, s)
	}
	slices.Sort(shifts)

	var best struct {
		lhs, rhs timerange.Range
		ok       bool
	}
	for _, shift := range shifts {
		lhsRange, rhsRange, ok := findContiguousShift(lhs, rhs, shift, minimumDuration)
		if !ok {
			continue
		}
		if !best.ok || lhsRange.Duration() > best.lhs.Duration() {
			best.lhs, best.rhs, best.ok = lhsRange, rhsRange, true
		}
	}
	return best.lhs, best.rhs, best.ok
}

// findContiguousShift aligns lhs[i] with rhs[i+shift] and extracts the
// longest run of similar points from each side.
func findContiguousShift(lhs, rhs []uint32, shift int, minimumDuration float64) (timerange.Range, timerange.Range, bool) {
	lhsStart, rhsStart := 0, 0
	if shift > 0 {
		rhsStart = shift
	} else {
		lhsStart = -shift
	}

	var lhsTimes, rhsTimes []float64
	for i := 0; lhsStart+i < len(lhs) && rhsStart+i < len(rhs); i++ {
		if bits.OnesCount32(lhs[lhsStart+i]^rhs[rhsStart+i]) > maximumDifferences {
			continue
		}
		lhsTimes = append(lhsTimes, float64(lhsStart+i)*samplesToSeconds)
		rhsTimes = append(rhsTimes, float64(rhsStart+i)*samplesToSeconds)
	}

	lhsRange := timerange.FindContiguous(lhsTimes, maximumTimeSkip)
	if lhsRange.Duration() < minimumDuration {
		return timerange.Range{}, timerange.Range{}, false
	}
	rhsRange := timerange.FindContiguous(rhsTimes, maximumTimeSkip)
	if rhsRange.Duration() < minimumDuration {
		return timerange.Range{}, timerange.Range{}, false
	}
	return lhsRange, rhsRange, true
}

// invertedIndex maps each point to the position of its first occurrence.
func invertedIndex(points []uint32) map[uint32]int {
	index := make(map[uint32]int, len(points))
	for i, p := range points {
		if _, ok := index[p]; !ok {
			index[p] = i
		}
	}
	return index
}

func keepLongest(found map[int64]Segment, seg Segment) {
	if existing, ok := found[seg.EpisodeID]; ok && existing.Duration() >= seg.Duration() {
		return
	}
	found[seg.EpisodeID] = seg
}
