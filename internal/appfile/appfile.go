// Package appfile decides whether a file on disk is a binette database,
// initializing brand-new files and classifying everything else.
package appfile

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/binette/binette/internal/sqlite"
	"github.com/binette/binette/internal/version"
)

// ApplicationID is a user-defined 32-bit value stored in the SQLite file
// header. A file whose application_id is this value (or is still the
// default 0) is treated as created by, or compatible with, binette.
const ApplicationID int32 = 0x27011990

// SchemaVersion is stored in the user_version slot of the SQLite file
// header and tracks the structural revision of the schema. Bumped for each
// schema change; files at an older value need Upgrade before use.
const SchemaVersion uint32 = 1

// MetadataTableName is the table holding the single diagnostic row written
// at initialization. The identity/version protocol never reads it back.
const MetadataTableName = "app_metadata"

// Ordering is the result of comparing a file's schema version against the
// version this build understands.
type Ordering int

const (
	// Less means the file is at an older schema version than this build.
	Less Ordering = iota - 1
	// Equal means the file matches this build's schema version.
	Equal
	// Greater means the file was written by a newer build.
	Greater
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "older"
	case Greater:
		return "newer"
	default:
		return "current"
	}
}

// initSchema returns the one-time initialization batch for a new file.
// It stamps the application id, creates the metadata table with its single
// row, and sets the schema version, all in one script so the whole batch
// runs inside a single transaction.
func initSchema() string {
	return fmt.Sprintf(`PRAGMA application_id = %d;

CREATE TABLE %s (
	id INTEGER PRIMARY KEY,
	version TEXT NOT NULL,
	upgraded_from TEXT
);

INSERT INTO %s (version, upgraded_from) VALUES ('%s', NULL);

PRAGMA user_version = %d;`,
		ApplicationID,
		MetadataTableName,
		MetadataTableName,
		version.String(),
		SchemaVersion,
	)
}

// AppFile is an open binette database file.
//
// An AppFile owns one exclusive connection and is not safe for concurrent
// use by multiple goroutines without external locking. Independent
// AppFiles (same or different processes) may open the same path; SQLite
// serializes conflicting writers with a bounded wait (5000ms, see the
// sqlite package), after which a writer fails instead of blocking forever.
//
// The schema version of the file is expected to match SchemaVersion and no
// backward compatibility is enforced: against an older or newer file, any
// operation may fail, return no data, or corrupt the file. After opening,
// check CompareVersion and call Upgrade if needed.
type AppFile struct {
	db   *sql.DB
	path string
}

// Open creates an AppFile for the given path.
//
// If the file is new or empty, it is initialized in one atomic transaction
// with the current format version. An already-initialized file is returned
// as-is regardless of its schema version; version skew is reported only by
// CompareVersion, never by Open.
//
// Returns *OpenError if the file can't be opened or created, ErrInvalidFile
// if it is not a SQLite database or carries a foreign application id,
// *ReadError for other read failures, and *WriteError if initialization
// fails.
func Open(path string) (*AppFile, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		// The driver applies the DSN pragmas while connecting, which reads
		// the file header, so a file that is not a SQLite database at all
		// already fails here rather than at the first query.
		if cerr := classifyRead(err); errors.Is(cerr, ErrInvalidFile) {
			return nil, ErrInvalidFile
		}
		return nil, &OpenError{Path: path, Cause: err}
	}

	f := &AppFile{db: db, path: path}

	// Identity first: a foreign or unrecognizable file must be rejected
	// before anything touches it.
	if err := f.checkIdentity(); err != nil {
		_ = db.Close()
		return nil, err
	}

	initialized, err := f.initialized()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if !initialized {
		if err := f.initialize(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return f, nil
}

// checkIdentity reads the application_id header slot and rejects files
// belonging to another application.
//
// An id of 0 is accepted: a freshly created SQLite file has the default
// header, and so does a file another tool created without ever setting an
// id. The two cases are indistinguishable here, so such a file is treated
// as eligible to become ours. Known sharp edge; keep it.
func (f *AppFile) checkIdentity() error {
	var id int32
	if err := f.db.QueryRow("PRAGMA application_id").Scan(&id); err != nil {
		return classifyRead(err)
	}

	if id != 0 && id != ApplicationID {
		return ErrInvalidFile
	}

	return nil
}

// initialized reports whether the file already contains any table. A file
// with an empty catalog is new or empty and needs initialization.
func (f *AppFile) initialized() (bool, error) {
	var count int
	err := f.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&count)
	if err != nil {
		return false, classifyRead(err)
	}
	return count > 0, nil
}

// initialize runs the one-time initialization batch in a single write
// transaction. The catalog is re-checked after the write lock is acquired:
// a racing opener that lost the race waits on the lock, then finds the
// file already initialized and skips the batch.
func (f *AppFile) initialize() error {
	tx, err := f.db.Begin()
	if err != nil {
		return &WriteError{Cause: err}
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&count); err != nil {
		return &WriteError{Cause: err}
	}
	if count > 0 {
		// Another handle initialized the file while we waited.
		return nil
	}

	if _, err := tx.Exec(initSchema()); err != nil {
		return &WriteError{Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Cause: err}
	}

	return nil
}

// CompareVersion reports whether the file's schema version is older (Less),
// the same (Equal), or newer (Greater) than the version this build
// understands. It never mutates the file.
func (f *AppFile) CompareVersion() (Ordering, error) {
	userVersion, err := f.userVersion()
	if err != nil {
		return Equal, err
	}

	switch {
	case userVersion < SchemaVersion:
		return Less, nil
	case userVersion > SchemaVersion:
		return Greater, nil
	default:
		return Equal, nil
	}
}

// userVersion reads the user_version header slot.
func (f *AppFile) userVersion() (uint32, error) {
	var v int64
	if err := f.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, &ReadError{Cause: err}
	}
	return uint32(v), nil
}

// Path returns the path the file was opened at.
func (f *AppFile) Path() string {
	return f.path
}

// DB returns the underlying sql.DB for direct queries.
func (f *AppFile) DB() *sql.DB {
	return f.db
}

// Close releases the connection. Any write that hasn't committed is simply
// absent after Close.
func (f *AppFile) Close() error {
	if f.db == nil {
		return nil
	}
	return f.db.Close()
}
