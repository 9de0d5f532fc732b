package library

import (
	"fmt"
	"time"
)

const librarySelect = `SELECT id, name, root_path, added_at FROM libraries`

func addLibrary(q querier, l *Library) error {
	now := time.Now()
	result, err := q.Exec(`INSERT INTO libraries (name, root_path, added_at) VALUES (?, ?, ?)`,
		l.Name, l.RootPath, now)
	if err != nil {
		return fmt.Errorf("insert library: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	l.ID = id
	l.AddedAt = now
	return nil
}

// AddLibrary inserts a new library. Sets ID and AddedAt on the struct.
func (s *Store) AddLibrary(l *Library) error { return addLibrary(s.db, l) }

// AddLibrary inserts a new library within a transaction.
func (t *Tx) AddLibrary(l *Library) error { return addLibrary(t.tx, l) }

func getLibraryByName(q querier, name string) (*Library, error) {
	l := &Library{}
	err := q.QueryRow(librarySelect+` WHERE name = ?`, name).Scan(&l.ID, &l.Name, &l.RootPath, &l.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("get library %q: %w", name, mapSQLiteError(err))
	}
	return l, nil
}

// GetLibraryByName retrieves a library by its unique name.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetLibraryByName(name string) (*Library, error) { return getLibraryByName(s.db, name) }

// GetLibraryByName retrieves a library by name within a transaction.
func (t *Tx) GetLibraryByName(name string) (*Library, error) { return getLibraryByName(t.tx, name) }

// ListLibraries returns all libraries ordered by name.
func (s *Store) ListLibraries() ([]*Library, error) {
	rows, err := s.db.Query(librarySelect + ` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Library
	for rows.Next() {
		l := &Library{}
		if err := rows.Scan(&l.ID, &l.Name, &l.RootPath, &l.AddedAt); err != nil {
			return nil, fmt.Errorf("scan library: %w", err)
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate libraries: %w", err)
	}
	return results, nil
}

// EnsureLibrary returns the library with the given name, creating it or
// updating its root path as needed.
func (s *Store) EnsureLibrary(name, rootPath string) (*Library, error) {
	l, err := s.GetLibraryByName(name)
	if err == nil {
		if l.RootPath != rootPath {
			if _, err := s.db.Exec(`UPDATE libraries SET root_path = ? WHERE id = ?`, rootPath, l.ID); err != nil {
				return nil, fmt.Errorf("update library %q: %w", name, mapSQLiteError(err))
			}
			l.RootPath = rootPath
		}
		return l, nil
	}

	l = &Library{Name: name, RootPath: rootPath}
	if err := s.AddLibrary(l); err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteLibrary removes a library and, through cascading deletes, its series,
// seasons and episodes. No error is returned if it does not exist.
func (s *Store) DeleteLibrary(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM libraries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete library %d: %w", id, mapSQLiteError(err))
	}
	return nil
}
