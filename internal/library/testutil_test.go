package library

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/vmunix/introskip/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// every pooled connection to :memory: would be a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Apply(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}

// seedEpisode catalogues one episode and returns its ID.
func seedEpisode(t *testing.T, store *Store, libraryName, series string, season, episode int, path string) int64 {
	t.Helper()
	lib, err := store.EnsureLibrary(libraryName, "/"+libraryName)
	if err != nil {
		t.Fatalf("EnsureLibrary: %v", err)
	}
	sr, _, err := store.FindOrCreateSeries(lib.ID, series)
	if err != nil {
		t.Fatalf("FindOrCreateSeries: %v", err)
	}
	se, err := store.FindOrCreateSeason(sr.ID, season)
	if err != nil {
		t.Fatalf("FindOrCreateSeason: %v", err)
	}
	ep := &Episode{SeasonID: se.ID, Episode: episode, Path: path, Duration: 1320}
	if _, err := store.UpsertEpisode(ep); err != nil {
		t.Fatalf("UpsertEpisode: %v", err)
	}
	return ep.ID
}
