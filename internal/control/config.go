package control

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the pump policy thresholds. Every value is deployment
// tunable; DefaultConfig documents the values used in the field.
type Config struct {
	Cooldown     time.Duration // minimum OFF time before the pump may start again
	MaxRun       time.Duration // hard cap on a single run
	MoistureLow  float64       // % below which the bed is watered
	MoistureHigh float64       // % above which an automatic run stops early
	TempHigh     float64       // °C above which the bed is watered
	TankFull     int           // destination tank % that blocks the pump
	TankResume   int           // destination tank % below which the pump may start again
}

// DefaultConfig returns the field defaults.
func DefaultConfig() Config {
	return Config{
		Cooldown:     30 * time.Second,
		MaxRun:       5 * time.Second,
		MoistureLow:  60,
		MoistureHigh: 80,
		TempHigh:     34,
		TankFull:     90,
		TankResume:   85,
	}
}

var ErrInvalidConfig = errors.New("invalid control config")

func (c Config) Validate() error {
	switch {
	case c.MaxRun <= 0:
		return fmt.Errorf("%w: max_run must be positive", ErrInvalidConfig)
	case c.Cooldown < 0:
		return fmt.Errorf("%w: cooldown must not be negative", ErrInvalidConfig)
	case c.MoistureLow > c.MoistureHigh:
		return fmt.Errorf("%w: moisture_low %.1f above moisture_high %.1f", ErrInvalidConfig, c.MoistureLow, c.MoistureHigh)
	case c.TankResume > c.TankFull:
		return fmt.Errorf("%w: tank_resume %d above tank_full %d", ErrInvalidConfig, c.TankResume, c.TankFull)
	case c.TankFull <= 0 || c.TankFull > 100:
		return fmt.Errorf("%w: tank_full %d outside (0,100]", ErrInvalidConfig, c.TankFull)
	}
	return nil
}
