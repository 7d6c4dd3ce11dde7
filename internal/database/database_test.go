package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	db, err := Connect("file:connect_test?mode=memory&cache=shared")
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.NoError(t, Close(db))

	dbPath := filepath.Join(t.TempDir(), "pokedex.db")
	db, err = Connect(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE probe (id INTEGER)").Error)
	assert.FileExists(t, dbPath)
	assert.NoError(t, Close(db))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "data/p.db?_journal_mode=WAL&_busy_timeout=5000", dsn("data/p.db"))
	assert.Equal(t, "file:x?mode=memory&_journal_mode=WAL&_busy_timeout=5000", dsn("file:x?mode=memory"))
}
