package library

import (
	"errors"
	"fmt"
	"time"
)

func findOrCreateSeries(q querier, libraryID int64, title string) (*Series, bool, error) {
	s := &Series{}
	err := q.QueryRow(`SELECT id, library_id, title, added_at FROM series WHERE library_id = ? AND title = ?`,
		libraryID, title).Scan(&s.ID, &s.LibraryID, &s.Title, &s.AddedAt)
	if err == nil {
		return s, false, nil
	}
	if mapped := mapSQLiteError(err); !errors.Is(mapped, ErrNotFound) {
		return nil, false, fmt.Errorf("get series %q: %w", title, mapped)
	}

	now := time.Now()
	result, err := q.Exec(`INSERT INTO series (library_id, title, added_at) VALUES (?, ?, ?)`, libraryID, title, now)
	if err != nil {
		return nil, false, fmt.Errorf("insert series %q: %w", title, mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("get last insert id: %w", err)
	}
	return &Series{ID: id, LibraryID: libraryID, Title: title, AddedAt: now}, true, nil
}

// FindOrCreateSeries returns the series with title in the library, creating it if needed.
// The bool result reports whether it was created.
func (s *Store) FindOrCreateSeries(libraryID int64, title string) (*Series, bool, error) {
	return findOrCreateSeries(s.db, libraryID, title)
}

// FindOrCreateSeries finds or creates a series within a transaction.
func (t *Tx) FindOrCreateSeries(libraryID int64, title string) (*Series, bool, error) {
	return findOrCreateSeries(t.tx, libraryID, title)
}

func findOrCreateSeason(q querier, seriesID int64, number int) (*Season, error) {
	s := &Season{SeriesID: seriesID, Number: number}
	err := q.QueryRow(`SELECT id FROM seasons WHERE series_id = ? AND number = ?`, seriesID, number).Scan(&s.ID)
	if err == nil {
		return s, nil
	}
	if mapped := mapSQLiteError(err); !errors.Is(mapped, ErrNotFound) {
		return nil, fmt.Errorf("get season %d: %w", number, mapped)
	}

	result, err := q.Exec(`INSERT INTO seasons (series_id, number) VALUES (?, ?)`, seriesID, number)
	if err != nil {
		return nil, fmt.Errorf("insert season %d: %w", number, mapSQLiteError(err))
	}
	if s.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s, nil
}

// FindOrCreateSeason returns the season of a series, creating it if needed.
func (s *Store) FindOrCreateSeason(seriesID int64, number int) (*Season, error) {
	return findOrCreateSeason(s.db, seriesID, number)
}

// FindOrCreateSeason finds or creates a season within a transaction.
func (t *Tx) FindOrCreateSeason(seriesID int64, number int) (*Season, error) {
	return findOrCreateSeason(t.tx, seriesID, number)
}

// SeriesStats contains statistics about the catalogue.
type SeriesStats struct {
	Series   int
	Seasons  int
	Episodes int
}

// GetStats returns catalogue counts, optionally restricted to one library.
func (s *Store) GetStats(libraryID *int64) (*SeriesStats, error) {
	stats := &SeriesStats{}
	query := `
		SELECT
			COUNT(DISTINCT sr.id),
			COUNT(DISTINCT se.id),
			COUNT(e.id)
		FROM series sr
		LEFT JOIN seasons se ON se.series_id = sr.id
		LEFT JOIN episodes e ON e.season_id = se.id`
	var args []any
	if libraryID != nil {
		query += ` WHERE sr.library_id = ?`
		args = append(args, *libraryID)
	}
	if err := s.db.QueryRow(query, args...).Scan(&stats.Series, &stats.Seasons, &stats.Episodes); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}
