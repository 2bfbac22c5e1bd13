package models

import "time"

// Pump run reasons.
const (
	ReasonAuto   = "auto"
	ReasonRemote = "remote"
)

// PumpState is the single process-wide pump record.
type PumpState struct {
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at,omitempty"`
	LastOffAt time.Time `json:"last_off_at,omitempty"`
	Reason    string    `json:"reason,omitempty"` // auto | remote
	UpdatedAt time.Time `json:"updated_at"`
}
