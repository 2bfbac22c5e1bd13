package service

import (
	"time"

	"vermicompost_monitor/internal/models"
)

// CalibrateRequest is one provisioning step.
type CalibrateRequest struct {
	Target  string  // moisture_dry | moisture_wet | ultrasonic | confirm
	EmptyCM float64 // ultrasonic only
	FullCM  float64 // ultrasonic only
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", PUMP_ON, PUMP_OFF, INTERLOCK, CALIBRATION, REMOTE_FAULT, BOOT
}

// DeviceInfo answers the provisioning handshake.
type DeviceInfo struct {
	ID       string `json:"device_id"`
	Name     string `json:"name"`
	MDNSHost string `json:"mdns_host"`
}

// BinState is the combined read model served by /api/v1/state.
type BinState struct {
	Snapshot    *models.SensorSnapshot    `json:"snapshot"`
	Pump        models.PumpState          `json:"pump"`
	Calibration models.CalibrationProfile `json:"calibration"`
}
