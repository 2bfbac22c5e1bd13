package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vermicompost_monitor/internal/telemetry"
)

// TelemetrySQLite keeps the live record and the local history. It is one
// of the telemetry sinks.
type TelemetrySQLite struct {
	db *sql.DB
}

func NewTelemetrySQLite(db *sql.DB) *TelemetrySQLite { return &TelemetrySQLite{db: db} }

var _ telemetry.Sink = (*TelemetrySQLite)(nil)

const (
	recordColumns = `temp0, temp1, moisture1, moisture2, water_level, tds_val, ph_val, ultra_distance_cm, ultra_level_percent, ts`

	upsertLiveSQL = `
		INSERT INTO live_readings (device_id, ` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			temp0=excluded.temp0,
			temp1=excluded.temp1,
			moisture1=excluded.moisture1,
			moisture2=excluded.moisture2,
			water_level=excluded.water_level,
			tds_val=excluded.tds_val,
			ph_val=excluded.ph_val,
			ultra_distance_cm=excluded.ultra_distance_cm,
			ultra_level_percent=excluded.ultra_level_percent,
			ts=excluded.ts
	`

	insertRecordSQL = `
		INSERT OR REPLACE INTO reading_records (device_id, ` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectLiveSQL    = `SELECT ` + recordColumns + ` FROM live_readings WHERE device_id = ?`
	selectRecordsSQL = `SELECT ` + recordColumns + ` FROM reading_records WHERE device_id = ?`
)

func recordArgs(deviceID string, rec telemetry.Record) []any {
	return []any{
		deviceID,
		nullFloat(rec.Temp0),
		nullFloat(rec.Temp1),
		rec.Moisture1,
		rec.Moisture2,
		rec.WaterLevel,
		rec.TDSVal,
		rec.PHVal,
		rec.UltraDistanceCM,
		rec.UltraLevelPercent,
		rec.Timestamp,
	}
}

func (r *TelemetrySQLite) Upsert(ctx context.Context, deviceID string, rec telemetry.Record) error {
	if _, err := r.db.ExecContext(ctx, upsertLiveSQL, recordArgs(deviceID, rec)...); err != nil {
		return fmt.Errorf("upsert live reading: %w", err)
	}
	return nil
}

// Append stores a record keyed by (device, unix second).
func (r *TelemetrySQLite) Append(ctx context.Context, deviceID string, rec telemetry.Record) error {
	if _, err := r.db.ExecContext(ctx, insertRecordSQL, recordArgs(deviceID, rec)...); err != nil {
		return fmt.Errorf("append reading record: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (telemetry.Record, error) {
	var rec telemetry.Record
	var t0, t1 sql.NullFloat64
	err := s.Scan(&t0, &t1, &rec.Moisture1, &rec.Moisture2, &rec.WaterLevel,
		&rec.TDSVal, &rec.PHVal, &rec.UltraDistanceCM, &rec.UltraLevelPercent, &rec.Timestamp)
	if err != nil {
		return rec, err
	}
	if t0.Valid {
		rec.Temp0 = &t0.Float64
	}
	if t1.Valid {
		rec.Temp1 = &t1.Float64
	}
	return rec, nil
}

// Live returns the current live record; ok is false when none was written.
func (r *TelemetrySQLite) Live(ctx context.Context, deviceID string) (telemetry.Record, bool, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectLiveSQL, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return telemetry.Record{}, false, nil
	}
	if err != nil {
		return telemetry.Record{}, false, fmt.Errorf("select live reading: %w", err)
	}
	return rec, true, nil
}

// Records returns historical records in [from, to], oldest first. Zero
// bounds are open.
func (r *TelemetrySQLite) Records(ctx context.Context, deviceID string, from, to time.Time) ([]telemetry.Record, error) {
	q := selectRecordsSQL
	args := []any{deviceID}
	if !from.IsZero() {
		q += " AND ts >= ?"
		args = append(args, from.Unix())
	}
	if !to.IsZero() {
		q += " AND ts <= ?"
		args = append(args, to.Unix())
	}
	q += " ORDER BY ts ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select reading records: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
