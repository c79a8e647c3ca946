package dao

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/binette/binette/internal/appfile"
	"github.com/binette/binette/internal/version"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataDAO(t *testing.T) {
	// Let the gate initialize a real file.
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "metadata_dao_test.db")
	t.Logf("Test database path: %s", dbPath)

	f, err := appfile.Open(dbPath)
	require.NoError(t, err, "Opening database failed")
	defer f.Close()

	dao := NewMetadataDAO(f.DB())

	record, err := dao.Get()
	require.NoError(t, err, "Get failed")
	assert.Equal(t, version.String(), record.Version, "Version should be the creating build's version")
	assert.False(t, record.UpgradedFrom.Valid, "UpgradedFrom should be NULL for a fresh file")
}

func TestMetadataDAOEmptyTable(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "metadata_empty_test.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err, "Opening database failed")
	defer db.Close()

	// A metadata table with no row, which the gate never produces.
	_, err = db.Exec(`CREATE TABLE app_metadata (
		id INTEGER PRIMARY KEY,
		version TEXT NOT NULL,
		upgraded_from TEXT
	)`)
	require.NoError(t, err, "Creating empty app_metadata failed")

	dao := NewMetadataDAO(db)

	_, err = dao.Get()
	assert.ErrorIs(t, err, ErrNotFound, "Expected ErrNotFound for an empty metadata table")
}
