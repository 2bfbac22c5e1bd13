package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vermicompost_monitor/internal/logger"
	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/repository"
)

// Calibration targets accepted by Calibrate.
const (
	TargetMoistureDry = "moisture_dry"
	TargetMoistureWet = "moisture_wet"
	TargetUltrasonic  = "ultrasonic"
	TargetConfirm     = "confirm"
)

var (
	ErrUnknownTarget = errors.New("unknown calibration target")
	ErrNoReading     = errors.New("no sensor reading available yet")
)

// CalibrationLoop is the part of the controller the calibration flow needs.
type CalibrationLoop interface {
	LatestRaw() (raw1, raw2 int, ok bool)
	Calibration() models.CalibrationProfile
	ApplyCalibration(p models.CalibrationProfile)
}

type CalibrationService struct {
	loop      CalibrationLoop
	calRepo   repository.CalibrationRepo
	eventRepo repository.EventRepo
	log       *logger.Logger
	now       func() time.Time

	// mu serialises the read-modify-write of the profile.
	mu sync.Mutex
}

func NewCalibrationService(loop CalibrationLoop, calRepo repository.CalibrationRepo, eventRepo repository.EventRepo, log *logger.Logger) *CalibrationService {
	return &CalibrationService{
		loop:      loop,
		calRepo:   calRepo,
		eventRepo: eventRepo,
		log:       logger.OrNop(log).Named("calibration"),
		now:       time.Now,
	}
}

// Calibrate records one calibration step. The moisture targets capture the
// current raw reading of both probes as the dry (air) or wet (water) endpoint.
func (s *CalibrationService) Calibrate(ctx context.Context, req CalibrateRequest) (models.CalibrationProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.loop.Calibration()
	p := prev
	target := strings.ToLower(strings.TrimSpace(req.Target))

	switch target {
	case TargetMoistureDry, TargetMoistureWet:
		raw1, raw2, ok := s.loop.LatestRaw()
		if !ok {
			return p, ErrNoReading
		}
		if target == TargetMoistureDry {
			p.AirRaw1, p.AirRaw2 = raw1, raw2
		} else {
			p.WaterRaw1, p.WaterRaw2 = raw1, raw2
		}
	case TargetUltrasonic:
		p.UltraEmptyCM, p.UltraFullCM = req.EmptyCM, req.FullCM
		p.SetupComplete = true
	case TargetConfirm:
		p.SetupComplete = true
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownTarget, req.Target)
	}

	if err := p.Validate(); err != nil {
		s.log.Warnw("calibration_rejected", "target", target, "profile", p, "err", err)
		return prev, err
	}
	if err := s.calRepo.Save(ctx, p); err != nil {
		return prev, fmt.Errorf("save calibration: %w", err)
	}
	s.loop.ApplyCalibration(p)
	s.record(ctx, "calibration step "+target, map[string]any{"target": target, "profile": p})
	s.log.Infow("calibration_saved", "target", target, "setup_complete", p.SetupComplete)
	return p, nil
}

// Reset clears the stored calibration and returns to factory defaults. The
// pump stays off until the bin is calibrated again.
func (s *CalibrationService) Reset(ctx context.Context) (models.CalibrationProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.calRepo.Reset(ctx); err != nil {
		return s.loop.Calibration(), fmt.Errorf("reset calibration: %w", err)
	}
	p := models.DefaultCalibration()
	s.loop.ApplyCalibration(p)
	s.record(ctx, "calibration reset", nil)
	s.log.Infow("calibration_reset")
	return p, nil
}

func (s *CalibrationService) record(ctx context.Context, desc string, meta any) {
	err := s.eventRepo.Append(ctx, models.PumpEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  s.now().UTC(),
		Type:        models.EventCalibration,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Errorw("event_append_failed", "type", models.EventCalibration, "err", err)
	}
}
