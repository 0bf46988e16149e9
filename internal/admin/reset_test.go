package admin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/datakyt/inventory/internal/config"
	"github.com/datakyt/inventory/internal/database"
	"github.com/datakyt/inventory/internal/schema"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countProjects(t *testing.T, db *sqlx.DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM project"))
	return n
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reset.db")
	db, err := database.OpenFile(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Remove(db, path) })

	require.NoError(t, schema.Apply(context.Background(), db))
	_, err = db.Exec("INSERT INTO project (id, name) VALUES (1, 'Alpha')")
	require.NoError(t, err)
	require.Equal(t, 1, countProjects(t, db))

	require.NoError(t, Reset(context.Background(), db, nil))

	assert.Equal(t, 0, countProjects(t, db))

	var tables int
	require.NoError(t, db.Get(&tables, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'"))
	assert.Equal(t, len(schema.Tables), tables)
}

func TestReset_EmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := database.OpenFile(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Remove(db, path) })

	require.NoError(t, Reset(context.Background(), db, nil))
	assert.Equal(t, 0, countProjects(t, db))
}

func TestRecreate_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, URL: path, MaxConns: 1}
	db, err := Recreate(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Remove(db, path) })

	assert.Equal(t, 0, countProjects(t, db))
}

func TestRecreate_DropsExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, URL: path, MaxConns: 1}

	db, err := Recreate(context.Background(), cfg, nil)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO project (id, name) VALUES (1, 'Alpha')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Recreate(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Remove(db, path) })

	assert.Equal(t, 0, countProjects(t, db))
}
