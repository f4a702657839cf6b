package kpistore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/schema"
)

// Table names for record storage.
const (
	recordsTable   = "kpi_records"
	snapshotsTable = "kpi_snapshots"
	runsTable      = "kpi_runs"
)

// RecordStoreImpl implements the RecordStore interface over database/sql.
type RecordStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	location   string
}

var _ contract.RecordStore = &RecordStoreImpl{} // Compile-time check

// NewRecordStore creates a new RecordStore with the specified backend.
func NewRecordStore(backend schema.DatabaseBackend, connStr string) (contract.RecordStore, error) {
	var db *sql.DB
	var err error
	var driverName string
	location := connStr

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetStoreDBFilePath()
		}
		location = dbPath
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	case schema.NoneBackend:
		// Return a no-op store for disabled persistence
		return &RecordStoreImpl{
			db:         nil,
			backend:    backend,
			driverName: "",
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	// Ping to verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	// Create the table schemas
	if err := createStoreTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store tables: %w", err)
	}

	return &RecordStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
		location:   location,
	}, nil
}

// createStoreTables creates the record storage tables.
func createStoreTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{recordsTable, getCreateRecordsQuery(backend)},
		{snapshotsTable, getCreateSnapshotsQuery(backend)},
		{runsTable, getCreateRunsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateRecordsQuery returns the CREATE TABLE query for kpi_records.
func getCreateRecordsQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(512) NOT NULL,
				project VARCHAR(255),
				goal VARCHAR(255),
				owner VARCHAR(255),
				current_value DOUBLE,
				target_value DOUBLE,
				baseline_value DOUBLE,
				unit VARCHAR(20) NOT NULL,
				status VARCHAR(20) NOT NULL,
				last_updated DATETIME(6),
				confidence DOUBLE NOT NULL,
				source_kind VARCHAR(20)
			);
		`, recordsTable)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				project TEXT,
				goal TEXT,
				owner TEXT,
				current_value DOUBLE PRECISION,
				target_value DOUBLE PRECISION,
				baseline_value DOUBLE PRECISION,
				unit TEXT NOT NULL,
				status TEXT NOT NULL,
				last_updated TIMESTAMPTZ,
				confidence DOUBLE PRECISION NOT NULL,
				source_kind TEXT
			);
		`, recordsTable)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				project TEXT,
				goal TEXT,
				owner TEXT,
				current_value REAL,
				target_value REAL,
				baseline_value REAL,
				unit TEXT NOT NULL,
				status TEXT NOT NULL,
				last_updated TEXT,
				confidence REAL NOT NULL,
				source_kind TEXT
			);
		`, recordsTable)
	}
}

// getCreateSnapshotsQuery returns the CREATE TABLE query for kpi_snapshots.
// The primary key makes a snapshot on an existing date an overwrite.
func getCreateSnapshotsQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				record_id VARCHAR(64) NOT NULL,
				snap_date DATE NOT NULL,
				value DOUBLE NOT NULL,
				PRIMARY KEY (record_id, snap_date)
			);
		`, snapshotsTable)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				record_id TEXT NOT NULL,
				snap_date DATE NOT NULL,
				value DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (record_id, snap_date)
			);
		`, snapshotsTable)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				record_id TEXT NOT NULL,
				snap_date TEXT NOT NULL,
				value REAL NOT NULL,
				PRIMARY KEY (record_id, snap_date)
			);
		`, snapshotsTable)
	}
}

// getCreateRunsQuery returns the CREATE TABLE query for kpi_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_records INT,
				config_params TEXT
			);
		`, runsTable)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_records INT,
				config_params TEXT
			);
		`, runsTable)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_records INTEGER,
				config_params TEXT
			);
		`, runsTable)
	}
}

// SaveRecord upserts a record and replaces its history snapshots.
func (rs *RecordStoreImpl) SaveRecord(rec schema.KpiRecord) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}
	if rec.ID == "" {
		return fmt.Errorf("record %q has no ID", rec.Name)
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := rs.upsertRecordRow(tx, rec); err != nil {
		return err
	}

	// Replace snapshots wholesale; the in-memory history is authoritative.
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE record_id = %s`, snapshotsTable, rs.placeholder(1))
	if _, err := tx.Exec(deleteQuery, rec.ID); err != nil {
		return fmt.Errorf("failed to clear snapshots for %s: %w", rec.ID, err)
	}
	insertQuery := fmt.Sprintf(`INSERT INTO %s (record_id, snap_date, value) VALUES (%s, %s, %s)`,
		snapshotsTable, rs.placeholder(1), rs.placeholder(2), rs.placeholder(3))
	for _, snap := range rec.History {
		if _, err := tx.Exec(insertQuery, rec.ID, snap.Date.Format("2006-01-02"), snap.Value); err != nil {
			return fmt.Errorf("failed to insert snapshot for %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record %s: %w", rec.ID, err)
	}
	return nil
}

// upsertRecordRow writes the record row using the backend's upsert syntax.
func (rs *RecordStoreImpl) upsertRecordRow(tx *sql.Tx, rec schema.KpiRecord) error {
	args := []any{
		rec.ID, rec.Name, rec.Project, rec.Goal, rec.Owner,
		rec.CurrentValue, rec.TargetValue, rec.BaselineValue,
		string(rec.Unit), string(rec.Status), rs.formatTime(rec.LastUpdated),
		rec.Confidence, string(rec.SourceKind),
	}

	var query string
	switch rs.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (id, name, project, goal, owner, current_value, target_value, baseline_value,
			                unit, status, last_updated, confidence, source_kind)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				name = VALUES(name), project = VALUES(project), goal = VALUES(goal), owner = VALUES(owner),
				current_value = VALUES(current_value), target_value = VALUES(target_value),
				baseline_value = VALUES(baseline_value), unit = VALUES(unit), status = VALUES(status),
				last_updated = VALUES(last_updated), confidence = VALUES(confidence), source_kind = VALUES(source_kind)
		`, recordsTable)

	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`
			INSERT INTO %s (id, name, project, goal, owner, current_value, target_value, baseline_value,
			                unit, status, last_updated, confidence, source_kind)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, project = EXCLUDED.project, goal = EXCLUDED.goal, owner = EXCLUDED.owner,
				current_value = EXCLUDED.current_value, target_value = EXCLUDED.target_value,
				baseline_value = EXCLUDED.baseline_value, unit = EXCLUDED.unit, status = EXCLUDED.status,
				last_updated = EXCLUDED.last_updated, confidence = EXCLUDED.confidence, source_kind = EXCLUDED.source_kind
		`, recordsTable)

	default: // SQLite
		query = fmt.Sprintf(`
			INSERT INTO %s (id, name, project, goal, owner, current_value, target_value, baseline_value,
			                unit, status, last_updated, confidence, source_kind)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, project = excluded.project, goal = excluded.goal, owner = excluded.owner,
				current_value = excluded.current_value, target_value = excluded.target_value,
				baseline_value = excluded.baseline_value, unit = excluded.unit, status = excluded.status,
				last_updated = excluded.last_updated, confidence = excluded.confidence, source_kind = excluded.source_kind
		`, recordsTable)
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecords returns every persisted record with history attached, ordered by name.
func (rs *RecordStoreImpl) ListRecords() ([]schema.KpiRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT id, name, project, goal, owner, current_value, target_value, baseline_value,
		unit, status, last_updated, confidence, source_kind FROM %s ORDER BY name`, recordsTable)
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.KpiRecord
	for rows.Next() {
		rec, err := rs.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	for i := range records {
		history, err := rs.loadSnapshots(records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].History = history
	}
	return records, nil
}

func (rs *RecordStoreImpl) scanRecord(rows *sql.Rows) (schema.KpiRecord, error) {
	var rec schema.KpiRecord
	var project, goal, owner, sourceKind sql.NullString
	var unit, status string

	switch rs.backend {
	case schema.SQLiteBackend:
		var lastUpdated sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Name, &project, &goal, &owner,
			&rec.CurrentValue, &rec.TargetValue, &rec.BaselineValue,
			&unit, &status, &lastUpdated, &rec.Confidence, &sourceKind); err != nil {
			return schema.KpiRecord{}, fmt.Errorf("failed to scan record: %w", err)
		}
		if lastUpdated.Valid && lastUpdated.String != "" {
			t, err := time.Parse(time.RFC3339Nano, lastUpdated.String)
			if err != nil {
				return schema.KpiRecord{}, fmt.Errorf("failed to parse last_updated: %w", err)
			}
			rec.LastUpdated = t
		}
	default: // MySQL and PostgreSQL store as native datetime
		var lastUpdated sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Name, &project, &goal, &owner,
			&rec.CurrentValue, &rec.TargetValue, &rec.BaselineValue,
			&unit, &status, &lastUpdated, &rec.Confidence, &sourceKind); err != nil {
			return schema.KpiRecord{}, fmt.Errorf("failed to scan record: %w", err)
		}
		if lastUpdated.Valid {
			rec.LastUpdated = lastUpdated.Time
		}
	}

	rec.Project = project.String
	rec.Goal = goal.String
	rec.Owner = owner.String
	rec.Unit = schema.ValueUnit(unit)
	rec.Status = schema.Status(status)
	rec.SourceKind = schema.DocumentKind(sourceKind.String)
	return rec, nil
}

func (rs *RecordStoreImpl) loadSnapshots(recordID string) ([]schema.Snapshot, error) {
	query := fmt.Sprintf(`SELECT snap_date, value FROM %s WHERE record_id = %s ORDER BY snap_date`,
		snapshotsTable, rs.placeholder(1))
	rows, err := rs.db.Query(query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for %s: %w", recordID, err)
	}
	defer func() { _ = rows.Close() }()

	var history []schema.Snapshot
	for rows.Next() {
		var snap schema.Snapshot
		switch rs.backend {
		case schema.SQLiteBackend:
			var dateStr string
			if err := rows.Scan(&dateStr, &snap.Value); err != nil {
				return nil, fmt.Errorf("failed to scan snapshot: %w", err)
			}
			t, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse snap_date: %w", err)
			}
			snap.Date = t
		default:
			if err := rows.Scan(&snap.Date, &snap.Value); err != nil {
				return nil, fmt.Errorf("failed to scan snapshot: %w", err)
			}
		}
		history = append(history, snap)
	}
	return history, rows.Err()
}

// DeleteRecord removes a record and its snapshots by ID.
func (rs *RecordStoreImpl) DeleteRecord(id string) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{snapshotsTable, recordsTable} {
		column := "record_id"
		if table == recordsTable {
			column = "id"
		}
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = %s`, table, column, rs.placeholder(1))
		if _, err := tx.Exec(query, id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// BeginRun creates a new extraction run and returns its unique ID.
func (rs *RecordStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, runsTable)
		err = rs.db.QueryRow(query, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, runsTable)
		var result sql.Result
		result, err = rs.db.Exec(query, rs.formatTime(startTime), string(configJSON))
		if err != nil {
			return 0, err
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RecordStoreImpl) EndRun(runID int64, endTime time.Time, totalRecords int) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	startTime, err := rs.runStartTime(runID)
	if err != nil {
		return err
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	var query string
	var args []any
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_records = $3 WHERE run_id = $4`, runsTable)
		args = []any{endTime, durationMs, totalRecords, runID}
	default: // SQLite and MySQL
		query = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_records = ? WHERE run_id = ?`, runsTable)
		args = []any{rs.formatTime(endTime), durationMs, totalRecords, runID}
	}

	if _, err := rs.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update run %d: %w", runID, err)
	}
	return nil
}

func (rs *RecordStoreImpl) runStartTime(runID int64) (time.Time, error) {
	var query string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = $1`, runsTable)
	default:
		query = fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, runsTable)
	}
	row := rs.db.QueryRow(query, runID)

	switch rs.backend {
	case schema.SQLiteBackend:
		var startTimeStr string
		if err := row.Scan(&startTimeStr); err != nil {
			return time.Time{}, fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
		}
		t, err := time.Parse(time.RFC3339Nano, startTimeStr)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse start_time: %w", err)
		}
		return t, nil
	default:
		var t time.Time
		if err := row.Scan(&t); err != nil {
			return time.Time{}, fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
		}
		return t, nil
	}
}

// GetStatus returns status information about the record store.
func (rs *RecordStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:  rs.backend,
		Location: rs.location,
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{recordsTable, &status.RecordCount},
		{snapshotsTable, &status.SnapshotCount},
		{runsTable, &status.RunCount},
	}
	for _, c := range counts {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)
		if err := rs.db.QueryRow(query).Scan(c.dst); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", c.table, err)
		}
	}
	return status, nil
}

// Close closes the underlying connection.
func (rs *RecordStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// placeholder returns the parameter placeholder for the backend's dialect.
func (rs *RecordStoreImpl) placeholder(n int) string {
	if rs.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// formatTime converts a time.Time to the appropriate value for the backend.
func (rs *RecordStoreImpl) formatTime(t time.Time) any {
	if rs.backend == schema.SQLiteBackend {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339Nano)
	}
	return t
}
