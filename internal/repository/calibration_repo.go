package repository

import (
	"context"
	"errors"
	"fmt"

	"vermicompost_monitor/internal/models"
)

// CalibrationNamespace holds the probe calibration and the setup flag.
const CalibrationNamespace = "config"

const (
	keyAirRaw1       = "air_raw_1"
	keyWaterRaw1     = "water_raw_1"
	keyAirRaw2       = "air_raw_2"
	keyWaterRaw2     = "water_raw_2"
	keyUltraEmptyCM  = "ultra_empty_cm"
	keyUltraFullCM   = "ultra_full_cm"
	keySetupComplete = "setup_complete"
)

// CalibrationSettings persists the calibration profile in the settings
// store.
type CalibrationSettings struct {
	store *SettingsSQLite
}

func NewCalibrationSettings(store *SettingsSQLite) *CalibrationSettings {
	return &CalibrationSettings{store: store}
}

// Load returns the stored profile, defaulting each missing key.
func (r *CalibrationSettings) Load(ctx context.Context) (models.CalibrationProfile, error) {
	def := models.DefaultCalibration()
	tx, err := r.store.Begin(ctx, CalibrationNamespace, true)
	if err != nil {
		return def, err
	}
	defer tx.Rollback()

	var p models.CalibrationProfile
	var errs []error
	get := func(key string, d int) int {
		v, err := tx.GetInt(key, d)
		errs = append(errs, err)
		return v
	}
	getF := func(key string, d float64) float64 {
		v, err := tx.GetFloat(key, d)
		errs = append(errs, err)
		return v
	}
	p.AirRaw1 = get(keyAirRaw1, def.AirRaw1)
	p.WaterRaw1 = get(keyWaterRaw1, def.WaterRaw1)
	p.AirRaw2 = get(keyAirRaw2, def.AirRaw2)
	p.WaterRaw2 = get(keyWaterRaw2, def.WaterRaw2)
	p.UltraEmptyCM = getF(keyUltraEmptyCM, def.UltraEmptyCM)
	p.UltraFullCM = getF(keyUltraFullCM, def.UltraFullCM)
	p.SetupComplete, err = tx.GetBool(keySetupComplete, false)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return def, fmt.Errorf("load calibration: %w", err)
	}
	if err := tx.End(); err != nil {
		return def, err
	}
	return p, nil
}

// Save validates and writes the whole profile in one transaction.
func (r *CalibrationSettings) Save(ctx context.Context, p models.CalibrationProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tx, err := r.store.Begin(ctx, CalibrationNamespace, false)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = errors.Join(
		tx.PutInt(keyAirRaw1, p.AirRaw1),
		tx.PutInt(keyWaterRaw1, p.WaterRaw1),
		tx.PutInt(keyAirRaw2, p.AirRaw2),
		tx.PutInt(keyWaterRaw2, p.WaterRaw2),
		tx.PutFloat(keyUltraEmptyCM, p.UltraEmptyCM),
		tx.PutFloat(keyUltraFullCM, p.UltraFullCM),
		tx.PutBool(keySetupComplete, p.SetupComplete),
	)
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	return tx.End()
}

// Reset clears the namespace so the next Load returns the defaults.
func (r *CalibrationSettings) Reset(ctx context.Context) error {
	return r.store.Clear(ctx, CalibrationNamespace)
}
