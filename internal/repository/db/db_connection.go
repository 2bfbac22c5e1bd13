package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// one writer: the control loop, the dispatcher and the API share it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaPumpState = `
CREATE TABLE IF NOT EXISTS pump_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    active BOOLEAN NOT NULL,
    started_at TIMESTAMP,
    last_off_at TIMESTAMP,
    reason TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL
);
`

const schemaPumpEvents = `
CREATE TABLE IF NOT EXISTS pump_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const indexPumpEvents = `CREATE INDEX IF NOT EXISTS pump_events_occurred_at ON pump_events (occurred_at);`

const schemaSettings = `
CREATE TABLE IF NOT EXISTS settings (
    namespace TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (namespace, key)
);
`

const readingColumns = `
    temp0 REAL,
    temp1 REAL,
    moisture1 INTEGER NOT NULL,
    moisture2 INTEGER NOT NULL,
    water_level INTEGER NOT NULL,
    tds_val REAL NOT NULL,
    ph_val REAL NOT NULL,
    ultra_distance_cm REAL NOT NULL,
    ultra_level_percent INTEGER NOT NULL,
    ts INTEGER NOT NULL`

const schemaLiveReadings = `
CREATE TABLE IF NOT EXISTS live_readings (
    device_id TEXT PRIMARY KEY,` + readingColumns + `
);
`

const schemaReadingRecords = `
CREATE TABLE IF NOT EXISTS reading_records (
    device_id TEXT NOT NULL,` + readingColumns + `,
    PRIMARY KEY (device_id, ts)
);
`

const schemaOperators = `
CREATE TABLE IF NOT EXISTS operators (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

// EnsureSchema applies every CREATE statement in one transaction.
func EnsureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaPumpState,
		schemaPumpEvents,
		indexPumpEvents,
		schemaSettings,
		schemaLiveReadings,
		schemaReadingRecords,
		schemaOperators,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
