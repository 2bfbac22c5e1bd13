package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"vermicompost_monitor/internal/models"
)

type PumpStateSQLite struct {
	db *sql.DB
}

func NewPumpStateSQLite(db *sql.DB) *PumpStateSQLite {
	return &PumpStateSQLite{db: db}
}

const (
	pumpStateRowID = 1

	insertOrUpdatePumpStateSQL = `
		INSERT INTO pump_state (id, active, started_at, last_off_at, reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active=excluded.active,
			started_at=excluded.started_at,
			last_off_at=excluded.last_off_at,
			reason=excluded.reason,
			updated_at=excluded.updated_at
	`

	selectPumpStateSQL = `
		SELECT active, started_at, last_off_at, reason, updated_at
		FROM pump_state WHERE id=?
	`
)

// nullableUTC stores the zero time as NULL.
func nullableUTC(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Save upserts the pump_state row (id always 1).
func (r *PumpStateSQLite) Save(ctx context.Context, s models.PumpState) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertOrUpdatePumpStateSQL,
		pumpStateRowID,
		s.Active,
		nullableUTC(s.StartedAt),
		nullableUTC(s.LastOffAt),
		s.Reason,
		ts,
	)
	return err
}

// Load fetches the pump_state row. A missing row yields the zero state.
func (r *PumpStateSQLite) Load(ctx context.Context) (models.PumpState, error) {
	row := r.db.QueryRowContext(ctx, selectPumpStateSQL, pumpStateRowID)

	var s models.PumpState
	var started, lastOff sql.NullTime
	if err := row.Scan(&s.Active, &started, &lastOff, &s.Reason, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PumpState{}, nil
		}
		return models.PumpState{}, err
	}
	if started.Valid {
		s.StartedAt = started.Time.UTC()
	}
	if lastOff.Valid {
		s.LastOffAt = lastOff.Time.UTC()
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
