package appfile

import (
	"database/sql"
	"fmt"

	"github.com/binette/binette/internal/version"
)

// upgradeStep migrates a file from one schema version to the next.
type upgradeStep struct {
	Description string
	Apply       func(tx *sql.Tx) error
}

// upgradeSteps is keyed by the schema version a step upgrades *from*;
// applying the step for version N moves the file to version N+1. Adding a
// future schema version means registering one entry here.
//
// Currently empty since version 1 is the only schema that has ever shipped.
var upgradeSteps = map[uint32]upgradeStep{}

// Upgrade brings a file at an older schema version up to SchemaVersion,
// applying each registered step in order. Each step runs in its own
// transaction; the user_version header and the metadata row's
// upgraded_from field are written inside that same transaction, so a
// failed step leaves the file exactly as it was.
//
// Perform a manual copy of the file before the upgrade to avoid data loss;
// Upgrade takes no backup of its own.
//
// Upgrade is an idempotent no-op on a file already at the current version.
// Calling it on a file newer than this build is also a no-op, not an
// error: use CompareVersion first to decide how to handle newer files.
func (f *AppFile) Upgrade() error {
	from, err := f.userVersion()
	if err != nil {
		return err
	}

	for v := from; v < SchemaVersion; v++ {
		step, ok := upgradeSteps[v]
		if !ok {
			// No path forward from this version; leave the file untouched.
			return nil
		}
		if err := f.applyStep(v, step); err != nil {
			return err
		}
	}

	return nil
}

// applyStep runs one upgrade step and records its provenance: the metadata
// row keeps the build version that performed the upgrade and the version
// string it upgraded from, and user_version advances by one.
func (f *AppFile) applyStep(from uint32, step upgradeStep) error {
	tx, err := f.db.Begin()
	if err != nil {
		return &WriteError{Cause: err}
	}
	defer tx.Rollback()

	if err := step.Apply(tx); err != nil {
		return &WriteError{Cause: err}
	}

	_, err = tx.Exec(
		fmt.Sprintf("UPDATE %s SET upgraded_from = version, version = ?", MetadataTableName),
		version.String(),
	)
	if err != nil {
		return &WriteError{Cause: err}
	}

	// PRAGMA statements can't take query parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return &WriteError{Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Cause: err}
	}

	return nil
}
