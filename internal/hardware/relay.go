// Package hardware provides the pump relay driver and a simulated bin that
// stands in for the probes when no board is attached.
package hardware

import "fmt"

// Pin is a digital output line.
type Pin interface {
	Write(high bool) error
}

// PolarityRelay drives a relay module whose coil may be active low.
type PolarityRelay struct {
	pin       Pin
	activeLow bool
}

func NewPolarityRelay(pin Pin, activeLow bool) *PolarityRelay {
	return &PolarityRelay{pin: pin, activeLow: activeLow}
}

// Set energises the relay when on is true.
func (r *PolarityRelay) Set(on bool) error {
	level := on != r.activeLow
	if err := r.pin.Write(level); err != nil {
		return fmt.Errorf("relay pin: %w", err)
	}
	return nil
}
