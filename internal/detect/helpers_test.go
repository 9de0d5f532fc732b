package detect_test

import (
	"io"
	"log/slog"
	"sync"

	"github.com/vmunix/introskip/internal/detect"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStore is an in-memory detect.ResultStore.
type memoryStore struct {
	mu       sync.Mutex
	segments map[detect.Mode]map[int64]detect.Segment
	merges   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{segments: make(map[detect.Mode]map[int64]detect.Segment)}
}

func (s *memoryStore) Merge(mode detect.Mode, segments map[int64]detect.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merges++
	if s.segments[mode] == nil {
		s.segments[mode] = make(map[int64]detect.Segment)
	}
	for id, seg := range segments {
		s.segments[mode][id] = seg
	}
	return nil
}

func (s *memoryStore) Has(episodeID int64, mode detect.Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.segments[mode][episodeID]
	return ok
}

func (s *memoryStore) get(episodeID int64, mode detect.Mode) (detect.Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seg, ok := s.segments[mode][episodeID]
	return seg, ok
}

func episodeIDs(episodes []detect.QueuedEpisode) []int64 {
	ids := make([]int64, 0, len(episodes))
	for _, ep := range episodes {
		ids = append(ids, ep.EpisodeID)
	}
	return ids
}
