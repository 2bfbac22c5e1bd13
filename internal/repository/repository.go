package repository

import (
	"context"
	"database/sql"
	"time"

	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/telemetry"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
	Count() (int, error)
}

type PumpStateRepo interface {
	Save(ctx context.Context, s models.PumpState) error
	Load(ctx context.Context) (models.PumpState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.PumpEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.PumpEvent, error)
}

type CalibrationRepo interface {
	Load(ctx context.Context) (models.CalibrationProfile, error)
	Save(ctx context.Context, p models.CalibrationProfile) error
	Reset(ctx context.Context) error
}

type TelemetryRepo interface {
	telemetry.Sink
	Live(ctx context.Context, deviceID string) (telemetry.Record, bool, error)
	Records(ctx context.Context, deviceID string, from, to time.Time) ([]telemetry.Record, error)
}

type Repository struct {
	StateRepo       PumpStateRepo
	EventRepo       EventRepo
	CalibrationRepo CalibrationRepo
	TelemetryRepo   TelemetryRepo
	Auth            Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo:       NewPumpStateSQLite(db),
		EventRepo:       NewEventSQLite(db),
		CalibrationRepo: NewCalibrationSettings(NewSettingsSQLite(db)),
		TelemetryRepo:   NewTelemetrySQLite(db),
		Auth:            NewOperatorRepository(db),
	}
}
