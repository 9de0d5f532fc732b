package library

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const episodeDetailSelect = `
	SELECT e.id, e.season_id, e.episode, e.title, e.path, e.duration, e.added_at, e.updated_at,
		se.number, sr.id, sr.title, l.id, l.name
	FROM episodes e
	JOIN seasons se ON se.id = e.season_id
	JOIN series sr ON sr.id = se.series_id
	JOIN libraries l ON l.id = sr.library_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisodeDetail(r rowScanner) (*EpisodeDetail, error) {
	d := &EpisodeDetail{}
	err := r.Scan(&d.ID, &d.SeasonID, &d.Episode.Episode, &d.Title, &d.Path, &d.Duration, &d.AddedAt, &d.UpdatedAt,
		&d.SeasonNumber, &d.SeriesID, &d.SeriesTitle, &d.LibraryID, &d.LibraryName)
	return d, err
}

func upsertEpisode(q querier, e *Episode) (bool, error) {
	now := time.Now()

	var id int64
	var addedAt time.Time
	err := q.QueryRow(`SELECT id, added_at FROM episodes WHERE season_id = ? AND episode = ?`,
		e.SeasonID, e.Episode).Scan(&id, &addedAt)
	switch mapped := mapSQLiteError(err); {
	case mapped == nil:
		if _, err := q.Exec(`UPDATE episodes SET title = ?, path = ?, duration = ?, updated_at = ? WHERE id = ?`,
			e.Title, e.Path, e.Duration, now, id); err != nil {
			return false, fmt.Errorf("update episode %d: %w", id, mapSQLiteError(err))
		}
		e.ID = id
		e.AddedAt = addedAt
		e.UpdatedAt = now
		return false, nil
	case !errors.Is(mapped, ErrNotFound):
		return false, fmt.Errorf("find episode: %w", mapped)
	}

	result, err := q.Exec(`
		INSERT INTO episodes (season_id, episode, title, path, duration, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SeasonID, e.Episode, e.Title, e.Path, e.Duration, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert episode: %w", mapSQLiteError(err))
	}
	if e.ID, err = result.LastInsertId(); err != nil {
		return false, fmt.Errorf("get last insert id: %w", err)
	}
	e.AddedAt = now
	e.UpdatedAt = now
	return true, nil
}

// UpsertEpisode inserts an episode or updates the existing one with the same
// season and number. Sets ID on the struct and reports whether it was created.
func (s *Store) UpsertEpisode(e *Episode) (bool, error) { return upsertEpisode(s.db, e) }

// UpsertEpisode inserts or updates an episode within a transaction.
func (t *Tx) UpsertEpisode(e *Episode) (bool, error) { return upsertEpisode(t.tx, e) }

func getEpisode(q querier, id int64) (*EpisodeDetail, error) {
	d, err := scanEpisodeDetail(q.QueryRow(episodeDetailSelect+` WHERE e.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get episode %d: %w", id, mapSQLiteError(err))
	}
	return d, nil
}

// GetEpisode retrieves an episode with its season, series and library.
// Returns ErrNotFound if the episode does not exist.
func (s *Store) GetEpisode(id int64) (*EpisodeDetail, error) { return getEpisode(s.db, id) }

// GetEpisode retrieves an episode within a transaction.
func (t *Tx) GetEpisode(id int64) (*EpisodeDetail, error) { return getEpisode(t.tx, id) }

func listEpisodes(q querier, f EpisodeFilter) ([]*EpisodeDetail, int, error) {
	var conditions []string
	var args []any

	if f.LibraryID != nil {
		conditions = append(conditions, "l.id = ?")
		args = append(args, *f.LibraryID)
	}
	if f.SeriesID != nil {
		conditions = append(conditions, "sr.id = ?")
		args = append(args, *f.SeriesID)
	}
	if f.SeasonID != nil {
		conditions = append(conditions, "se.id = ?")
		args = append(args, *f.SeasonID)
	}
	if f.Path != nil {
		conditions = append(conditions, "e.path = ?")
		args = append(args, *f.Path)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM episodes e
		JOIN seasons se ON se.id = e.season_id
		JOIN series sr ON sr.id = se.series_id
		JOIN libraries l ON l.id = sr.library_id` + whereClause
	if err := q.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count episodes: %w", err)
	}

	query := episodeDetailSelect + whereClause + " ORDER BY sr.title, se.number, e.episode"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*EpisodeDetail
	for rows.Next() {
		d, err := scanEpisodeDetail(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan episode: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate episodes: %w", err)
	}

	return results, total, nil
}

// ListEpisodes returns episodes matching the filter ordered by series title,
// season number and episode number. Returns (results, totalCount, error).
func (s *Store) ListEpisodes(f EpisodeFilter) ([]*EpisodeDetail, int, error) {
	return listEpisodes(s.db, f)
}

// ListEpisodes returns episodes matching the filter within a transaction.
func (t *Tx) ListEpisodes(f EpisodeFilter) ([]*EpisodeDetail, int, error) {
	return listEpisodes(t.tx, f)
}

func deleteEpisode(q querier, id int64) error {
	if _, err := q.Exec("DELETE FROM episodes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete episode %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteEpisode removes an episode by ID.
// This operation is idempotent - no error is returned if the episode does not exist.
func (s *Store) DeleteEpisode(id int64) error { return deleteEpisode(s.db, id) }

// DeleteEpisode removes an episode by ID within a transaction.
func (t *Tx) DeleteEpisode(id int64) error { return deleteEpisode(t.tx, id) }
