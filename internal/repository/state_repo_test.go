package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/repository"
)

func TestPumpStateSQLite_Save_SetsUTCNowWhenTimeZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewPumpStateSQLite(db)

	isUTCRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	// never-run pump: both timestamps are NULL
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pump_state")).
		WithArgs(1, false, nil, nil, "", isUTCRecent).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), models.PumpState{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPumpStateSQLite_Save_ConvertsTimesToUTC(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewPumpStateSQLite(db)

	loc := time.FixedZone("UTC+5", 5*3600)
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)
	updated := started.Add(time.Second)

	exactUTC := func(want time.Time) sqlmockArgumentFunc {
		return func(v driver.Value) bool {
			tm, ok := v.(time.Time)
			return ok && tm.Equal(want) && tm.Location() == time.UTC
		}
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pump_state")).
		WithArgs(1, true, exactUTC(started), nil, models.ReasonRemote, exactUTC(updated)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	st := models.PumpState{Active: true, StartedAt: started, Reason: models.ReasonRemote, UpdatedAt: updated}
	if err := repo.Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPumpStateSQLite_Save_ExecErrorIsPropagated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pump_state")).
		WillReturnError(errors.New("db down"))

	if err := repository.NewPumpStateSQLite(db).Save(context.Background(), models.PumpState{}); err == nil {
		t.Fatalf("Save() expected error, got nil")
	}
}

func TestPumpStateSQLite_Load_NoRowsReturnsZeroValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT active, started_at, last_off_at, reason, updated_at")).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	got, err := repository.NewPumpStateSQLite(db).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, models.PumpState{}) {
		t.Fatalf("Load() expected zero state, got: %+v", got)
	}
}

func TestPumpStateSQLite_Load_HappyPath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	locNY, _ := time.LoadLocation("America/New_York")
	lastOff := time.Date(2024, 2, 1, 8, 30, 0, 0, locNY)

	rows := sqlmock.NewRows([]string{"active", "started_at", "last_off_at", "reason", "updated_at"}).
		AddRow(false, nil, lastOff, "auto", lastOff)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT active, started_at, last_off_at, reason, updated_at")).
		WithArgs(1).
		WillReturnRows(rows)

	got, err := repository.NewPumpStateSQLite(db).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got.Active || !got.StartedAt.IsZero() || got.Reason != "auto" {
		t.Fatalf("Load() unexpected fields: %+v", got)
	}
	if !got.LastOffAt.Equal(lastOff) || got.LastOffAt.Location() != time.UTC {
		t.Fatalf("Load() LastOffAt: %v", got.LastOffAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Helpers

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
