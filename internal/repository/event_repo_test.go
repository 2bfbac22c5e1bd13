package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"vermicompost_monitor/internal/models"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pump_events (id, occurred_at, type, message, meta)`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "PUMP_ON", "moisture below threshold", `{"rule":"dry"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.PumpEvent{
		Type:        "  pump_on ",
		Description: "moisture below threshold",
		Metadata:    map[string]any{"rule": "dry"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestAppend_FormatsTimestamp(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	at := time.Date(2024, 5, 1, 14, 3, 9, 0, time.FixedZone("CEST", 2*3600))
	mock.ExpectExec("INSERT INTO pump_events").
		WithArgs("ev-1", "2024-05-01 12:03:09", models.EventBoot, "controller started", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Append(ctx(t), models.PumpEvent{
		EventID: "ev-1", OccurredAt: at, Type: models.EventBoot, Description: "controller started",
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec("INSERT INTO pump_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.PumpEvent{Type: "interlock", Description: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"rule": "max_run"})

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("1", now, "PUMP_OFF", "m1", string(js)).
		AddRow("2", now.Add(time.Hour), "BOOT", "m2", nil).
		AddRow("3", now.Add(2*time.Hour), "CALIBRATION", "m3", "not json")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message, meta FROM pump_events ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3, got %d", len(got))
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", b1, js)
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}
	if got[2].Metadata != "not json" {
		t.Fatalf("malformed meta should be kept raw, got %#v", got[2].Metadata)
	}
}

func TestList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := `SELECT id, occurred_at, type, message, meta FROM pump_events WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("2", from, "INTERLOCK", "b", nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-01-01 11:00:00", "2025-01-01 12:00:00", "INTERLOCK").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), from, to, " interlock ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "2" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestList_ScanError(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewEventSQLite(db)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("x", 123, "BOOT", "msg", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, occurred_at, type, message, meta FROM pump_events ORDER BY occurred_at ASC`)).
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}
