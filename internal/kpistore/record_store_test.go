package kpistore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpilens/kpilens/schema"
)

func newTestStore(t *testing.T) *RecordStoreImpl {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "store.db")
	store, err := NewRecordStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*RecordStoreImpl)
}

func sampleRecord(id string) schema.KpiRecord {
	cur, tgt := 12.0, 20.0
	return schema.KpiRecord{
		ID:           id,
		Name:         "Store migrations",
		Project:      "Apollo",
		Goal:         "Rollout",
		Owner:        "Dana Reyes",
		CurrentValue: &cur,
		TargetValue:  &tgt,
		Unit:         schema.UnitCount,
		Status:       schema.OnTrack,
		LastUpdated:  time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Confidence:   0.9,
		SourceKind:   schema.FreeTextDoc,
		History: []schema.Snapshot{
			{Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), Value: 8},
			{Date: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), Value: 12},
		},
	}
}

func TestSaveAndListRecords(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveRecord(sampleRecord("r1")))

	records, err := store.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "Store migrations", got.Name)
	assert.Equal(t, "Dana Reyes", got.Owner)
	require.NotNil(t, got.CurrentValue)
	assert.Equal(t, 12.0, *got.CurrentValue)
	assert.Equal(t, schema.OnTrack, got.Status)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), got.LastUpdated)
	require.Len(t, got.History, 2)
	assert.Equal(t, 8.0, got.History[0].Value)
}

func TestSaveRecordUpsert(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("r1")
	require.NoError(t, store.SaveRecord(rec))

	updated := 15.0
	rec.CurrentValue = &updated
	rec.Status = schema.AtRisk
	rec.History = append(rec.History, schema.Snapshot{
		Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Value: 15,
	})
	require.NoError(t, store.SaveRecord(rec))

	records, err := store.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 15.0, *records[0].CurrentValue)
	assert.Equal(t, schema.AtRisk, records[0].Status)
	assert.Len(t, records[0].History, 3)
}

func TestSaveRecordRequiresID(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("r1")
	rec.ID = ""
	assert.Error(t, store.SaveRecord(rec))
}

func TestDeleteRecord(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveRecord(sampleRecord("r1")))
	require.NoError(t, store.SaveRecord(sampleRecord("r2")))

	require.NoError(t, store.DeleteRecord("r1"))

	records, err := store.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "r2", records[0].ID)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.RecordCount)
	assert.Equal(t, 2, status.SnapshotCount)
}

func TestBeginAndEndRun(t *testing.T) {
	store := newTestStore(t)
	start := time.Now()

	runID, err := store.BeginRun(start, map[string]any{"kind": "freetext", "workers": 4})
	require.NoError(t, err)
	assert.Positive(t, runID)

	require.NoError(t, store.EndRun(runID, start.Add(2*time.Second), 7))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.RunCount)
}

func TestNoneBackendIsNoop(t *testing.T) {
	store, err := NewRecordStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.SaveRecord(sampleRecord("r1")))
	records, err := store.ListRecords()
	assert.NoError(t, err)
	assert.Nil(t, records)

	runID, err := store.BeginRun(time.Now(), nil)
	assert.NoError(t, err)
	assert.Zero(t, runID)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, schema.NoneBackend, status.Backend)
	assert.NoError(t, store.Close())
}

func TestNilValuesPersist(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("r1")
	rec.CurrentValue = nil
	rec.BaselineValue = nil
	rec.History = nil
	require.NoError(t, store.SaveRecord(rec))

	records, err := store.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].CurrentValue)
	assert.NotNil(t, records[0].TargetValue)
	assert.Empty(t, records[0].History)
}

func TestMigrateStoreUpAndDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))
	// Re-running is a no-op, not an error.
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))
	// Roll everything back.
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 0))
}

func TestMigrateStoreNoneBackend(t *testing.T) {
	assert.Error(t, MigrateStore(schema.NoneBackend, "", -1))
}
