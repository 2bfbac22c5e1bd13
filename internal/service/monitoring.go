package service

import (
	"context"
	"fmt"
	"time"

	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/repository"
	"vermicompost_monitor/internal/telemetry"
)

// LatestView is the part of the controller the read side needs.
type LatestView interface {
	Latest() (models.SensorSnapshot, models.PumpState, bool)
	Calibration() models.CalibrationProfile
}

type MonitoringService struct {
	view          LatestView
	stateRepo     repository.PumpStateRepo
	telemetryRepo repository.TelemetryRepo
	device        DeviceInfo
}

func NewMonitoringService(view LatestView, stateRepo repository.PumpStateRepo, telemetryRepo repository.TelemetryRepo, device DeviceInfo) *MonitoringService {
	return &MonitoringService{view: view, stateRepo: stateRepo, telemetryRepo: telemetryRepo, device: device}
}

func (s *MonitoringService) Handshake() DeviceInfo { return s.device }

// Latest returns the newest snapshot; ok is false before the first sample.
func (s *MonitoringService) Latest() (models.SensorSnapshot, bool) {
	snap, _, ok := s.view.Latest()
	return snap, ok
}

// GetState returns the latest snapshot, pump state and calibration. Before
// the first sample the pump state comes from the store.
func (s *MonitoringService) GetState(ctx context.Context) (BinState, error) {
	snap, pump, ok := s.view.Latest()
	st := BinState{
		Calibration: s.view.Calibration(),
		Pump:        pump,
	}
	if ok {
		st.Snapshot = &snap
		return st, nil
	}
	stored, err := s.stateRepo.Load(ctx)
	if err != nil {
		return BinState{}, fmt.Errorf("load pump state: %w", err)
	}
	st.Pump = stored
	return st, nil
}

// Records returns the stored historical records in [from, to].
func (s *MonitoringService) Records(ctx context.Context, from, to time.Time) ([]telemetry.Record, error) {
	from, to = toUTC(from), toUTC(to)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, ErrInvalidTimeRange
	}
	return s.telemetryRepo.Records(ctx, s.device.ID, from, to)
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
