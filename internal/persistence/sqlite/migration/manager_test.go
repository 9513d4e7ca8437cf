package migration

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestManager(db *sql.DB, files fstest.MapFS) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(NewScanner(files, "migrations"), NewExecutor(db), logger)
}

func TestManager_Run(t *testing.T) {
	ctx := context.Background()

	routines := `
CREATE TABLE routines (id TEXT PRIMARY KEY, room_id TEXT REFERENCES rooms(id));
CREATE INDEX idx_routines_room ON routines (room_id);`

	files := fstest.MapFS{
		"migrations/001_create_rooms.sql":    {Data: []byte("CREATE TABLE rooms (id TEXT PRIMARY KEY);")},
		"migrations/002_create_routines.sql": {Data: []byte(routines)},
	}

	t.Run("applies pending migrations once", func(t *testing.T) {
		db := openTestDB(t)
		manager := newTestManager(db, files)

		applied, err := manager.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, applied)

		applied, err = manager.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, applied)

		status, err := manager.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, "002", status.CurrentVersion)
		assert.Empty(t, status.Pending)
		require.Len(t, status.Applied, 2)

		_, err = db.ExecContext(ctx, `INSERT INTO rooms (id) VALUES ('room-1')`)
		require.NoError(t, err)
	})

	t.Run("rolls back a failing migration", func(t *testing.T) {
		db := openTestDB(t)
		broken := fstest.MapFS{
			"migrations/001_create_rooms.sql": files["migrations/001_create_rooms.sql"],
			"migrations/002_broken.sql":       {Data: []byte("CREATE TABLE partial (id TEXT);\nCREATE TABLE rooms (id TEXT);")},
		}
		manager := newTestManager(db, broken)

		applied, err := manager.Run(ctx)
		require.ErrorIs(t, err, ErrMigrationFailed)
		assert.Equal(t, 1, applied)

		var count int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'partial'`).Scan(&count))
		assert.Zero(t, count)

		status, err := manager.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, "001", status.CurrentVersion)
		require.Len(t, status.Pending, 1)
	})

	t.Run("rejects gaps in the sequence", func(t *testing.T) {
		db := openTestDB(t)
		gapped := fstest.MapFS{
			"migrations/001_create_rooms.sql": files["migrations/001_create_rooms.sql"],
			"migrations/003_later.sql":        {Data: []byte("CREATE TABLE later (id TEXT);")},
		}

		_, err := newTestManager(db, gapped).Run(ctx)
		require.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("detects edited migrations", func(t *testing.T) {
		db := openTestDB(t)
		_, err := newTestManager(db, files).Run(ctx)
		require.NoError(t, err)

		edited := fstest.MapFS{
			"migrations/001_create_rooms.sql":    {Data: []byte("CREATE TABLE rooms (id TEXT PRIMARY KEY, name TEXT);")},
			"migrations/002_create_routines.sql": files["migrations/002_create_routines.sql"],
		}
		_, err = newTestManager(db, edited).Run(ctx)
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})
}
