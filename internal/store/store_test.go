package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/voicebot/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenInMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db.SQL())
}

func TestOpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "voicebot.db")
	db, err := Open(path, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.FileExists(t, path)
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate())

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)

	for _, table := range []string{"sessions", "turns", "http_cache"} {
		var name string
		err := db.sql.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestTranscript(t *testing.T) {
	db := testDB(t)
	t0 := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, db.StartSession("s1", t0))
	require.NoError(t, db.StartSession("s1", t0.Add(time.Hour)))
	require.NoError(t, db.AppendTurn(Turn{SessionID: "s1", Role: "user", Content: "Hvad er klokken?", At: t0}))
	require.NoError(t, db.AppendTurn(Turn{SessionID: "s1", Role: "tool", Name: "list_timers", Content: "Ingen kørende timere.", At: t0.Add(time.Second)}))
	require.NoError(t, db.AppendTurn(Turn{SessionID: "s2", Role: "user", Content: "Hej", At: t0.Add(time.Minute)}))

	turns, err := db.Turns("s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "Hvad er klokken?", turns[0].Content)
	assert.Equal(t, "list_timers", turns[1].Name)
	assert.True(t, turns[1].At.Equal(t0.Add(time.Second)))

	sessions, err := db.RecentSessions(0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
	assert.Equal(t, 1, sessions[0].Turns)
	assert.Equal(t, "s1", sessions[1].ID)
	assert.Equal(t, 2, sessions[1].Turns)
	assert.True(t, sessions[1].StartedAt.Equal(t0))
}

func TestCache(t *testing.T) {
	db := testDB(t)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	_, ok, err := db.CacheGet("weather")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.CachePut("weather", []byte("sol"), time.Hour))
	got, ok, err := db.CacheGet("weather")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("sol"), got)

	require.NoError(t, db.CachePut("weather", []byte("regn"), time.Hour))
	got, _, _ = db.CacheGet("weather")
	assert.Equal(t, []byte("regn"), got)

	now = now.Add(2 * time.Hour)
	_, ok, err = db.CacheGet("weather")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := db.CachePurge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
