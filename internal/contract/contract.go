// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/outlier/schema"
)

// RecordStore defines the operations on the stored border crossing records.
// This allows the HTTP, MCP and CLI layers to be tested without a database.
type RecordStore interface {
	// InsertRecords stores records in one transaction and returns how many were written.
	// Records with a zero ID get one assigned by the database.
	InsertRecords(ctx context.Context, records []schema.Record) (int, error)

	// QueryRecords returns the records matching the filter, newest first.
	QueryRecords(ctx context.Context, filter schema.RecordFilter) ([]schema.Record, error)

	// FilterOptions returns the distinct values of every filterable column.
	FilterOptions(ctx context.Context) (schema.FilterOptions, error)

	// Clear removes all records.
	Clear(ctx context.Context) error

	// GetStatus returns status information about the store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RunStore defines the interface for tracking detection runs and the records they flagged.
type RunStore interface {
	// BeginRun creates a new detection run and returns its unique ID
	BeginRun(ctx context.Context, startTime time.Time, params, filter map[string]any) (int64, error)

	// RecordFlags stores the results of a run
	RecordFlags(ctx context.Context, runID int64, results []schema.AnomalyResult) error

	// EndRun updates the run with completion data. A non-nil runErr marks the run failed.
	EndRun(ctx context.Context, runID int64, endTime time.Time, totalRecords, flagged int, runErr error) error

	// ListRuns returns every run, oldest first
	ListRuns(ctx context.Context) ([]schema.RunRecord, error)

	// ListFlags returns the results stored for a run, by record id
	ListFlags(ctx context.Context, runID int64) ([]schema.FlagRecord, error)
}

// StoreManager defines the interface for reaching the configured stores.
// This allows the store layer to be mocked for testing.
type StoreManager interface {
	GetRecordStore() RecordStore
	GetRunStore() RunStore
}
