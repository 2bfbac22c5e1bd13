package models

import "time"

// Event types written to the pump log.
const (
	EventPumpOn      = "PUMP_ON"
	EventPumpOff     = "PUMP_OFF"
	EventInterlock   = "INTERLOCK"
	EventCalibration = "CALIBRATION"
	EventRemoteFault = "REMOTE_FAULT"
	EventBoot        = "BOOT"
)

// PumpEvent is a single log entry.
type PumpEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // PUMP_ON | PUMP_OFF | INTERLOCK | CALIBRATION | REMOTE_FAULT | BOOT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
