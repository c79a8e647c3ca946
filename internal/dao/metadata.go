package dao

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")
)

// MetadataDAO provides read access to the app_metadata table. The table
// holds a single diagnostic row written when the file was initialized; the
// identity/version protocol itself never consults it.
type MetadataDAO struct {
	db *sql.DB
}

// MetadataRecord is the single row of the app_metadata table
type MetadataRecord struct {
	ID int64
	// Version is the build version of the application that wrote the row.
	Version string
	// UpgradedFrom is the build version the file was upgraded from, or
	// NULL if the file has never been upgraded.
	UpgradedFrom sql.NullString
}

// NewMetadataDAO creates a new MetadataDAO
func NewMetadataDAO(db *sql.DB) *MetadataDAO {
	return &MetadataDAO{db: db}
}

// Get retrieves the metadata row
func (d *MetadataDAO) Get() (*MetadataRecord, error) {
	var record MetadataRecord
	err := d.db.QueryRow(
		"SELECT id, version, upgraded_from FROM app_metadata LIMIT 1",
	).Scan(&record.ID, &record.Version, &record.UpgradedFrom)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get metadata record: %w", err)
	}

	return &record, nil
}
