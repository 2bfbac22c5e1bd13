package models

import (
	"errors"
	"fmt"
)

// Factory calibration used until the operator records real endpoints.
const (
	DefaultAirRaw       = 3018
	DefaultWaterRaw     = 1710
	DefaultUltraEmptyCM = 14.0
	DefaultUltraFullCM  = 4.0
)

var ErrInvalidCalibration = errors.New("invalid calibration")

// CalibrationProfile is the persisted per-probe calibration.
type CalibrationProfile struct {
	AirRaw1       int     `json:"air_raw_1"`
	WaterRaw1     int     `json:"water_raw_1"`
	AirRaw2       int     `json:"air_raw_2"`
	WaterRaw2     int     `json:"water_raw_2"`
	UltraEmptyCM  float64 `json:"ultra_empty_cm"`
	UltraFullCM   float64 `json:"ultra_full_cm"`
	SetupComplete bool    `json:"setup_complete"`
}

// DefaultCalibration returns the factory profile.
func DefaultCalibration() CalibrationProfile {
	return CalibrationProfile{
		AirRaw1:      DefaultAirRaw,
		WaterRaw1:    DefaultWaterRaw,
		AirRaw2:      DefaultAirRaw,
		WaterRaw2:    DefaultWaterRaw,
		UltraEmptyCM: DefaultUltraEmptyCM,
		UltraFullCM:  DefaultUltraFullCM,
	}
}

// Validate enforces empty > full for the ultrasonic endpoints and distinct
// air and water readings for each moisture probe. Equal moisture endpoints
// would pin the probe at 0 %.
func (p CalibrationProfile) Validate() error {
	if !(p.UltraEmptyCM > p.UltraFullCM) {
		return fmt.Errorf("%w: ultra_empty_cm must exceed ultra_full_cm", ErrInvalidCalibration)
	}
	if p.AirRaw1 == p.WaterRaw1 {
		return fmt.Errorf("%w: probe 1 air and water readings are both %d", ErrInvalidCalibration, p.AirRaw1)
	}
	if p.AirRaw2 == p.WaterRaw2 {
		return fmt.Errorf("%w: probe 2 air and water readings are both %d", ErrInvalidCalibration, p.AirRaw2)
	}
	return nil
}
