package service

import (
	"context"
	"time"

	"vermicompost_monitor/internal/logger"
	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/repository"
	"vermicompost_monitor/internal/telemetry"
)

type Authorization interface {
	SignUp(username, password, signupKey string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (Identity, error)
}

// Calibration records provisioning steps and resets the stored profile.
type Calibration interface {
	Calibrate(ctx context.Context, req CalibrateRequest) (models.CalibrationProfile, error)
	Reset(ctx context.Context) (models.CalibrationProfile, error)
}

// Monitoring exposes read-only state: identity, latest snapshot, pump and
// stored history.
type Monitoring interface {
	Handshake() DeviceInfo
	Latest() (models.SensorSnapshot, bool)
	GetState(ctx context.Context) (BinState, error)
	Records(ctx context.Context, from, to time.Time) ([]telemetry.Record, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PumpEvent, error)
}

// Loop runs the controller until ctx is cancelled.
type Loop interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Calibration
	Monitoring
	EventLog
	Loop
	Authorization
}

// Options carries the non-repository inputs of NewService.
type Options struct {
	Device     DeviceInfo
	SigningKey string
	SignupKey  string
	TokenTTL   time.Duration
	Log        *logger.Logger
}

// NewService wires the repository layer and the controller into the
// services consumed by the HTTP layer.
func NewService(repos *repository.Repository, ctrl *Controller, opts Options) *Service {
	return &Service{
		Calibration:   NewCalibrationService(ctrl, repos.CalibrationRepo, repos.EventRepo, opts.Log),
		Monitoring:    NewMonitoringService(ctrl, repos.StateRepo, repos.TelemetryRepo, opts.Device),
		EventLog:      NewEventLogService(repos.EventRepo),
		Loop:          ctrl,
		Authorization: NewAuthService(repos.Auth, AuthOptions{
			SigningKey: opts.SigningKey,
			TokenTTL:   opts.TokenTTL,
			DeviceID:   opts.Device.ID,
			SignupKey:  opts.SignupKey,
		}),
	}
}
