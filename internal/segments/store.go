// Package segments persists detected segments and serves them from memory.
package segments

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vmunix/introskip/internal/detect"
)

// Store keeps every detected segment in memory, backed by SQLite.
type Store struct {
	db  *sql.DB
	log *slog.Logger

	// mergeMu serializes Merge and Erase so the database always reflects the
	// order in which in-memory updates happened.
	mergeMu sync.Mutex
	// persistMu guards writes to the database.
	persistMu sync.Mutex

	mu       sync.RWMutex
	segments map[detect.Mode]map[int64]detect.Segment
}

// NewStore creates an empty store. Call Restore to load saved segments.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:       db,
		log:      logger.With("component", "segments"),
		segments: newSegmentMap(),
	}
}

func newSegmentMap() map[detect.Mode]map[int64]detect.Segment {
	m := make(map[detect.Mode]map[int64]detect.Segment, len(detect.AllModes))
	for _, mode := range detect.AllModes {
		m[mode] = make(map[int64]detect.Segment)
	}
	return m
}

// Restore replaces the in-memory segments with those saved in the database.
func (s *Store) Restore() error {
	rows, err := s.db.Query(`SELECT episode_id, mode, start_time, end_time FROM segments`)
	if err != nil {
		return fmt.Errorf("load segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	loaded := newSegmentMap()
	count := 0
	for rows.Next() {
		var seg detect.Segment
		var mode string
		if err := rows.Scan(&seg.EpisodeID, &mode, &seg.Start, &seg.End); err != nil {
			return fmt.Errorf("scan segment: %w", err)
		}
		m, ok := loaded[detect.Mode(mode)]
		if !ok {
			s.log.Warn("ignoring segment with unknown mode", "episode_id", seg.EpisodeID, "mode", mode)
			continue
		}
		m[seg.EpisodeID] = seg
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate segments: %w", err)
	}

	s.mu.Lock()
	s.segments = loaded
	s.mu.Unlock()

	s.log.Info("restored segments", "count", count)
	return nil
}

// Merge records segments for mode, replacing any existing segment of the
// same episode, and persists them. Invalid segments are ignored.
func (s *Store) Merge(mode detect.Mode, segments map[int64]detect.Segment) error {
	s.mergeMu.Lock()
	defer s.mergeMu.Unlock()

	valid := make([]detect.Segment, 0, len(segments))
	s.mu.Lock()
	target, ok := s.segments[mode]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("merge segments: %w: %q", detect.ErrUnsupportedMode, mode)
	}
	for id, seg := range segments {
		if !seg.Valid() {
			continue
		}
		seg.EpisodeID = id
		target[id] = seg
		valid = append(valid, seg)
	}
	s.mu.Unlock()

	if len(valid) == 0 {
		return nil
	}
	return s.persist(mode, valid)
}

func (s *Store) persist(mode detect.Mode, segments []detect.Segment) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO segments (episode_id, mode, start_time, end_time, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(episode_id, mode) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, seg := range segments {
		if _, err := stmt.Exec(seg.EpisodeID, string(mode), seg.Start, seg.End, now); err != nil {
			return fmt.Errorf("save segment %d: %w", seg.EpisodeID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Has reports whether a segment is stored for the episode and mode.
func (s *Store) Has(episodeID int64, mode detect.Mode) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.segments[mode][episodeID]
	return ok
}

// Get returns the stored segment for the episode and mode.
func (s *Store) Get(episodeID int64, mode detect.Mode) (detect.Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seg, ok := s.segments[mode][episodeID]
	return seg, ok
}

// All returns every segment of mode ordered by episode ID.
func (s *Store) All(mode detect.Mode) []detect.Segment {
	s.mu.RLock()
	result := make([]detect.Segment, 0, len(s.segments[mode]))
	for _, seg := range s.segments[mode] {
		result = append(result, seg)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].EpisodeID < result[j].EpisodeID })
	return result
}

// Count returns how many segments of mode are stored.
func (s *Store) Count(mode detect.Mode) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments[mode])
}

// Erase removes every segment of mode.
func (s *Store) Erase(mode detect.Mode) error {
	s.mergeMu.Lock()
	defer s.mergeMu.Unlock()

	s.mu.Lock()
	if _, ok := s.segments[mode]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("erase segments: %w: %q", detect.ErrUnsupportedMode, mode)
	}
	s.segments[mode] = make(map[int64]detect.Segment)
	s.mu.Unlock()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM segments WHERE mode = ?`, string(mode)); err != nil {
		return fmt.Errorf("erase %s segments: %w", mode, err)
	}
	s.log.Info("erased segments", "mode", mode)
	return nil
}

// Forget removes every segment of one episode.
func (s *Store) Forget(episodeID int64) error {
	s.mergeMu.Lock()
	defer s.mergeMu.Unlock()

	s.mu.Lock()
	for _, bucket := range s.segments {
		delete(bucket, episodeID)
	}
	s.mu.Unlock()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM segments WHERE episode_id = ?`, episodeID); err != nil {
		return fmt.Errorf("forget segments of episode %d: %w", episodeID, err)
	}
	return nil
}

var _ detect.ResultStore = (*Store)(nil)
