package iostore

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRecordStore implements the StoreManager interface.
func (m *MockStoreManager) GetRecordStore() contract.RecordStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RecordStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockRecordStore is a mock implementation of RecordStore for testing.
type MockRecordStore struct {
	mock.Mock
}

var _ contract.RecordStore = &MockRecordStore{} // Compile-time check

// InsertRecords implements the RecordStore interface.
func (m *MockRecordStore) InsertRecords(ctx context.Context, records []schema.Record) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

// QueryRecords implements the RecordStore interface.
func (m *MockRecordStore) QueryRecords(ctx context.Context, filter schema.RecordFilter) ([]schema.Record, error) {
	args := m.Called(ctx, filter)
	records, _ := args.Get(0).([]schema.Record)
	return records, args.Error(1)
}

// FilterOptions implements the RecordStore interface.
func (m *MockRecordStore) FilterOptions(ctx context.Context) (schema.FilterOptions, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.FilterOptions), args.Error(1)
}

// Clear implements the RecordStore interface.
func (m *MockRecordStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// GetStatus implements the RecordStore interface.
func (m *MockRecordStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the RecordStore interface.
func (m *MockRecordStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(ctx context.Context, startTime time.Time, params, filter map[string]any) (int64, error) {
	args := m.Called(ctx, startTime, params, filter)
	return args.Get(0).(int64), args.Error(1)
}

// RecordFlags implements the RunStore interface.
func (m *MockRunStore) RecordFlags(ctx context.Context, runID int64, results []schema.AnomalyResult) error {
	args := m.Called(ctx, runID, results)
	return args.Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(ctx context.Context, runID int64, endTime time.Time, totalRecords, flagged int, runErr error) error {
	args := m.Called(ctx, runID, endTime, totalRecords, flagged, runErr)
	return args.Error(0)
}

// ListRuns implements the RunStore interface.
func (m *MockRunStore) ListRuns(ctx context.Context) ([]schema.RunRecord, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// ListFlags implements the RunStore interface.
func (m *MockRunStore) ListFlags(ctx context.Context, runID int64) ([]schema.FlagRecord, error) {
	args := m.Called(ctx, runID)
	flags, _ := args.Get(0).([]schema.FlagRecord)
	return flags, args.Error(1)
}
