// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/kpilens/kpilens/schema"
)

// StoreManager defines the interface for managing record stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetRecordStore() RecordStore
}

// RecordStore defines the interface for persisting KPI records, their
// history snapshots, and extraction run bookkeeping.
type RecordStore interface {
	// SaveRecord upserts a record and its history snapshots.
	SaveRecord(rec schema.KpiRecord) error

	// ListRecords returns every persisted record with history attached,
	// ordered by name.
	ListRecords() ([]schema.KpiRecord, error)

	// DeleteRecord removes a record and its snapshots by ID.
	DeleteRecord(id string) error

	// BeginRun creates a new extraction run and returns its unique ID.
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data.
	EndRun(runID int64, endTime time.Time, totalRecords int) error

	// GetStatus returns status information about the record store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
