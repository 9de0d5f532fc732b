package segments

import (
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/introskip/internal/detect"
	"github.com/vmunix/introskip/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Apply(db))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_MergeAndGet(t *testing.T) {
	store := NewStore(setupTestDB(t), testLogger())

	err := store.Merge(detect.ModeIntroduction, map[int64]detect.Segment{
		1: {EpisodeID: 1, Start: 16, End: 45.184},
		2: {EpisodeID: 2, Start: 10, End: 10}, // invalid
	})
	require.NoError(t, err)

	seg, ok := store.Get(1, detect.ModeIntroduction)
	require.True(t, ok)
	assert.Equal(t, detect.Segment{EpisodeID: 1, Start: 16, End: 45.184}, seg)

	assert.True(t, store.Has(1, detect.ModeIntroduction))
	assert.False(t, store.Has(1, detect.ModeCredits))
	assert.False(t, store.Has(2, detect.ModeIntroduction))
}

func TestStore_MergeReplaces(t *testing.T) {
	store := NewStore(setupTestDB(t), testLogger())

	require.NoError(t, store.Merge(detect.ModeCredits, map[int64]detect.Segment{5: {EpisodeID: 5, Start: 1200, End: 1320}}))
	require.NoError(t, store.Merge(detect.ModeCredits, map[int64]detect.Segment{5: {EpisodeID: 5, Start: 1210, End: 1320}}))

	seg, ok := store.Get(5, detect.ModeCredits)
	require.True(t, ok)
	assert.Equal(t, 1210.0, seg.Start)
	assert.Equal(t, 1, store.Count(detect.ModeCredits))
}

func TestStore_Restore(t *testing.T) {
	db := setupTestDB(t)
	first := NewStore(db, testLogger())
	require.NoError(t, first.Merge(detect.ModeIntroduction, map[int64]detect.Segment{
		1: {EpisodeID: 1, Start: 0, End: 30},
		2: {EpisodeID: 2, Start: 5, End: 35},
	}))
	require.NoError(t, first.Merge(detect.ModeCredits, map[int64]detect.Segment{
		1: {EpisodeID: 1, Start: 1200, End: 1320},
	}))

	second := NewStore(db, testLogger())
	require.NoError(t, second.Restore())

	assert.Equal(t, first.All(detect.ModeIntroduction), second.All(detect.ModeIntroduction))
	assert.Equal(t, first.All(detect.ModeCredits), second.All(detect.ModeCredits))
}

func TestStore_Erase(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, testLogger())
	require.NoError(t, store.Merge(detect.ModeIntroduction, map[int64]detect.Segment{1: {EpisodeID: 1, Start: 0, End: 30}}))
	require.NoError(t, store.Merge(detect.ModeCredits, map[int64]detect.Segment{1: {EpisodeID: 1, Start: 1200, End: 1320}}))

	require.NoError(t, store.Erase(detect.ModeIntroduction))
	assert.Empty(t, store.All(detect.ModeIntroduction))
	assert.True(t, store.Has(1, detect.ModeCredits))

	restored := NewStore(db, testLogger())
	require.NoError(t, restored.Restore())
	assert.Zero(t, restored.Count(detect.ModeIntroduction))
	assert.Equal(t, 1, restored.Count(detect.ModeCredits))
}

func TestStore_Forget(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db, testLogger())
	require.NoError(t, store.Merge(detect.ModeIntroduction, map[int64]detect.Segment{
		1: {EpisodeID: 1, Start: 0, End: 30},
		2: {EpisodeID: 2, Start: 5, End: 35},
	}))
	require.NoError(t, store.Merge(detect.ModeCredits, map[int64]detect.Segment{1: {EpisodeID: 1, Start: 1200, End: 1320}}))

	require.NoError(t, store.Forget(1))
	assert.False(t, store.Has(1, detect.ModeIntroduction))
	assert.False(t, store.Has(1, detect.ModeCredits))
	assert.True(t, store.Has(2, detect.ModeIntroduction))

	restored := NewStore(db, testLogger())
	require.NoError(t, restored.Restore())
	assert.Equal(t, 1, restored.Count(detect.ModeIntroduction))
	assert.Zero(t, restored.Count(detect.ModeCredits))

	// Forgetting an unknown episode is not an error.
	require.NoError(t, store.Forget(99))
}

func TestStore_UnknownMode(t *testing.T) {
	store := NewStore(setupTestDB(t), testLogger())

	err := store.Merge(detect.Mode("recap"), map[int64]detect.Segment{1: {Start: 0, End: 1}})
	assert.ErrorIs(t, err, detect.ErrUnsupportedMode)
	assert.ErrorIs(t, store.Erase(detect.Mode("recap")), detect.ErrUnsupportedMode)
}

func TestStore_ConcurrentMerge(t *testing.T) {
	store := NewStore(setupTestDB(t), testLogger())

	var wg sync.WaitGroup
	for season := 0; season < 8; season++ {
		wg.Add(1)
		go func(season int) {
			defer wg.Done()
			batch := make(map[int64]detect.Segment)
			for ep := 0; ep < 10; ep++ {
				id := int64(season*100 + ep)
				batch[id] = detect.Segment{EpisodeID: id, Start: 10, End: 40}
			}
			assert.NoError(t, store.Merge(detect.ModeIntroduction, batch))
			_ = store.Has(int64(season*100), detect.ModeIntroduction)
		}(season)
	}
	wg.Wait()

	assert.Equal(t, 80, store.Count(detect.ModeIntroduction))

	restored := NewStore(store.db, testLogger())
	require.NoError(t, restored.Restore())
	assert.Equal(t, 80, restored.Count(detect.ModeIntroduction))
}
