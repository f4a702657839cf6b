package kpistore

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/schema"
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

// MockRecordStore is a mock implementation of RecordStore for testing.
type MockRecordStore struct {
	mock.Mock
}

var _ contract.RecordStore = &MockRecordStore{} // Compile-time check

// SaveRecord implements the RecordStore interface.
func (m *MockRecordStore) SaveRecord(rec schema.KpiRecord) error {
	args := m.Called(rec)
	return args.Error(0)
}

// ListRecords implements the RecordStore interface.
func (m *MockRecordStore) ListRecords() ([]schema.KpiRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.KpiRecord)
	return records, args.Error(1)
}

// DeleteRecord implements the RecordStore interface.
func (m *MockRecordStore) DeleteRecord(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// BeginRun implements the RecordStore interface.
func (m *MockRecordStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RecordStore interface.
func (m *MockRecordStore) EndRun(runID int64, endTime time.Time, totalRecords int) error {
	args := m.Called(runID, endTime, totalRecords)
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
