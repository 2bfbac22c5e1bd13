// Package control decides when the leachate pump runs.
package control

import (
	"fmt"
	"time"

	"vermicompost_monitor/internal/models"
)

// Relay switches the pump. Polarity is the implementation's concern.
type Relay interface {
	Set(on bool) error
}

// Override is the latest state of the remote command channel. An unhealthy
// channel never requests the pump.
type Override struct {
	Requested bool
	Healthy   bool
}

// Active reports whether the override should be honoured.
func (o Override) Active() bool { return o.Healthy && o.Requested }

type Action int

const (
	Hold Action = iota
	TurnOn
	TurnOff
)

func (a Action) String() string {
	switch a {
	case TurnOn:
		return "on"
	case TurnOff:
		return "off"
	default:
		return "hold"
	}
}

// Rules that produced a decision.
const (
	RuleLowSource     = "low_source_water"
	RuleTankFull      = "tank_full"
	RuleMaxRun        = "max_run"
	RuleRecovered     = "moisture_recovered"
	RuleRemoteRelease = "remote_released"
	RuleHysteresis    = "hysteresis"
	RuleCooldown      = "cooldown"
	RuleRemote        = "remote"
	RuleDry           = "dry"
	RuleHot           = "hot"
	RuleIdle          = "idle"
	RuleRunning       = "running"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Action Action
	Rule   string
	// Reason is the run reason for TurnOn decisions (auto | remote).
	Reason string
}

// Interlock reports whether a safety interlock produced the decision.
func (d Decision) Interlock() bool {
	return d.Rule == RuleLowSource || d.Rule == RuleTankFull
}

// Engine owns the pump state and drives the relay. It is not safe for
// concurrent use; the controller loop is its only caller.
type Engine struct {
	cfg   Config
	relay Relay
	state models.PumpState
}

func NewEngine(cfg Config, relay Relay, state models.PumpState) *Engine {
	return &Engine{cfg: cfg, relay: relay, state: state}
}

// State returns a copy of the pump state.
func (e *Engine) State() models.PumpState { return e.state }

// Evaluate applies the transition rules in priority order without touching
// the relay.
func (e *Engine) Evaluate(now time.Time, snap models.SensorSnapshot, ov Override) Decision {
	on := e.state.Active

	// interlocks
	if snap.WaterLevel <= 0 {
		return e.forceOff(on, RuleLowSource)
	}
	if snap.UltraLevelPercent >= e.cfg.TankFull {
		return e.forceOff(on, RuleTankFull)
	}

	if on {
		switch {
		case now.Sub(e.state.StartedAt) >= e.cfg.MaxRun:
			return Decision{Action: TurnOff, Rule: RuleMaxRun}
		case e.state.Reason == models.ReasonRemote && !ov.Active():
			return Decision{Action: TurnOff, Rule: RuleRemoteRelease}
		case e.state.Reason != models.ReasonRemote && snap.AvgMoisture() > e.cfg.MoistureHigh:
			return Decision{Action: TurnOff, Rule: RuleRecovered}
		}
		return Decision{Action: Hold, Rule: RuleRunning}
	}

	if snap.UltraLevelPercent >= e.cfg.TankResume {
		return Decision{Action: Hold, Rule: RuleHysteresis}
	}
	if !e.state.LastOffAt.IsZero() && now.Sub(e.state.LastOffAt) < e.cfg.Cooldown {
		return Decision{Action: Hold, Rule: RuleCooldown}
	}
	if ov.Active() {
		return Decision{Action: TurnOn, Rule: RuleRemote, Reason: models.ReasonRemote}
	}
	if snap.AvgMoisture() < e.cfg.MoistureLow {
		return Decision{Action: TurnOn, Rule: RuleDry, Reason: models.ReasonAuto}
	}
	if t, ok := snap.AvgTemp(); ok && t > e.cfg.TempHigh {
		return Decision{Action: TurnOn, Rule: RuleHot, Reason: models.ReasonAuto}
	}
	return Decision{Action: Hold, Rule: RuleIdle}
}

func (e *Engine) forceOff(on bool, rule string) Decision {
	if on {
		return Decision{Action: TurnOff, Rule: rule}
	}
	return Decision{Action: Hold, Rule: rule}
}

// Step evaluates the rules and actuates the relay once per transition. On a
// relay error the state is left untouched so the next tick retries.
func (e *Engine) Step(now time.Time, snap models.SensorSnapshot, ov Override) (Decision, error) {
	d := e.Evaluate(now, snap, ov)
	switch d.Action {
	case TurnOn:
		if err := e.relay.Set(true); err != nil {
			return d, fmt.Errorf("relay on: %w", err)
		}
		e.state.Active = true
		e.state.StartedAt = now
		e.state.Reason = d.Reason
		e.state.UpdatedAt = now
	case TurnOff:
		if err := e.relay.Set(false); err != nil {
			return d, fmt.Errorf("relay off: %w", err)
		}
		e.state.Active = false
		e.state.LastOffAt = now
		e.state.UpdatedAt = now
	}
	return d, nil
}

// ForceOff drives the relay off unconditionally. Used at boot, when the
// physical relay state is unknown.
func (e *Engine) ForceOff(now time.Time) error {
	if err := e.relay.Set(false); err != nil {
		return fmt.Errorf("relay off: %w", err)
	}
	if e.state.Active {
		e.state.LastOffAt = now
	}
	e.state.Active = false
	e.state.UpdatedAt = now
	return nil
}
