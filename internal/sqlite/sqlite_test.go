package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestOpen verifies that Open can create, open, and allow basic operations
// on a SQLite file, including after a close/reopen cycle.
func TestOpen(t *testing.T) {
	// Use TempDir for automatic cleanup of the test database file
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "open_test.db")
	t.Logf("Test database path: %s", dbPath)

	db, err := Open(dbPath)
	require.NoError(t, err, "Opening new file failed")
	require.NotNil(t, db, "DB handle should not be nil on successful open")

	_, err = db.Exec(`CREATE TABLE test_table (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err, "Creating test_table failed")

	err = db.Close()
	require.NoError(t, err, "Closing DB failed")

	dbReopen, err := Open(dbPath)
	require.NoError(t, err, "Reopening existing file failed")
	defer dbReopen.Close()

	var count int
	err = dbReopen.QueryRow(`SELECT count(*) FROM test_table`).Scan(&count)
	require.NoError(t, err, "Selecting count after reopen failed")
	require.Equal(t, 0, count, "Expected count to be 0")
}

// TestOpenBusyTimeout verifies the DSN actually applied the busy timeout.
func TestOpenBusyTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "timeout_test.db")

	db, err := Open(dbPath)
	require.NoError(t, err, "Opening new file failed")
	defer db.Close()

	var timeout int
	err = db.QueryRow("PRAGMA busy_timeout").Scan(&timeout)
	require.NoError(t, err, "Querying busy_timeout failed")
	require.Equal(t, 5000, timeout, "Expected busy_timeout of 5000ms")
}
