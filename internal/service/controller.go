package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"vermicompost_monitor/internal/control"
	"vermicompost_monitor/internal/level"
	"vermicompost_monitor/internal/logger"
	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/repository"
	"vermicompost_monitor/internal/sensors"
	"vermicompost_monitor/internal/telemetry"
)

// OverrideInbox is polled once per tick for remote override updates.
type OverrideInbox interface {
	Poll() (control.Override, bool)
}

// Dispatcher ships telemetry without blocking the loop.
type Dispatcher interface {
	Dispatch(ctx context.Context, b telemetry.Batch) error
}

// ControllerDeps bundles everything the loop owns or talks to.
type ControllerDeps struct {
	DeviceID     string
	SensorPeriod time.Duration

	Acquirer  *sensors.Acquirer
	Level     *level.Estimator
	Relay     control.Relay
	Policy    control.Config
	Gate      *telemetry.Gate
	Telemetry Dispatcher    // nil disables telemetry
	Inbox     OverrideInbox // nil means no remote channel

	StateRepo       repository.PumpStateRepo
	EventRepo       repository.EventRepo
	CalibrationRepo repository.CalibrationRepo

	Log *logger.Logger
}

// Controller runs the sample/decide/actuate/report cycle. Everything except
// the published view is touched only by the loop goroutine.
type Controller struct {
	d      ControllerDeps
	log    *logger.Logger
	engine *control.Engine

	profile    models.CalibrationProfile
	override   control.Override
	lastSample time.Time

	mu         sync.RWMutex
	latest     models.SensorSnapshot
	hasLatest  bool
	raw        [2]int
	pump       models.PumpState
	published  models.CalibrationProfile
	pendingCal *models.CalibrationProfile
}

func NewController(d ControllerDeps) *Controller {
	if d.SensorPeriod <= 0 {
		d.SensorPeriod = time.Second
	}
	return &Controller{d: d, log: logger.OrNop(d.Log).Named("controller")}
}

// Initialize loads the persisted calibration and pump state, brings up the
// probes and forces the relay off. Hardware failures are logged and the
// loop carries on with sentinel readings.
func (c *Controller) Initialize(ctx context.Context, now time.Time) error {
	profile, err := c.d.CalibrationRepo.Load(ctx)
	if err != nil {
		c.log.Warnw("calibration_load_failed", "err", err)
		profile = models.DefaultCalibration()
	}
	c.applyProfile(profile)

	if err := c.d.Acquirer.Init(); err != nil {
		c.log.Errorw("hardware_init_failed", "err", err)
	}

	st, err := c.d.StateRepo.Load(ctx)
	if err != nil {
		c.log.Warnw("pump_state_load_failed", "err", err)
		st = models.PumpState{}
	}
	c.engine = control.NewEngine(c.d.Policy, c.d.Relay, st)
	if err := c.engine.ForceOff(now); err != nil {
		c.log.Errorw("relay_force_off_failed", "err", err)
	}
	c.persistPump(ctx)

	c.appendEvent(ctx, now, models.EventBoot, "controller started", map[string]any{
		"device_id":      c.d.DeviceID,
		"setup_complete": profile.SetupComplete,
	})
	c.log.Infow("controller_initialized", "device", c.d.DeviceID, "setup_complete", profile.SetupComplete)
	return nil
}

// Tick runs one iteration of the loop.
func (c *Controller) Tick(ctx context.Context, now time.Time) {
	c.pollOverride(ctx, now)
	c.takePendingCalibration()

	// the TDS ring fills at its own cadence
	c.d.Acquirer.Poll(now)
	if !c.lastSample.IsZero() && now.Sub(c.lastSample) < c.d.SensorPeriod {
		return
	}
	c.lastSample = now

	snap := c.d.Acquirer.Sample(now)
	if t, ok := snap.FirstTemp(); ok {
		c.d.Level.SetTemperature(t)
	} else {
		c.d.Level.SetTemperature(math.NaN())
	}
	snap.UltraDistanceCM, snap.UltraLevelPercent = c.d.Level.EstimateLevelPercent()
	raw1, raw2 := c.d.Acquirer.LastRaw()

	c.mu.Lock()
	c.latest, c.hasLatest = snap, true
	c.raw = [2]int{raw1, raw2}
	c.mu.Unlock()

	if !c.profile.SetupComplete {
		if c.engine.State().Active {
			c.stopPump(ctx, now, "setup not complete")
		}
		return
	}

	c.decide(ctx, now, snap)
	c.report(ctx, now, snap)
}

func (c *Controller) pollOverride(ctx context.Context, now time.Time) {
	if c.d.Inbox == nil {
		return
	}
	ov, ok := c.d.Inbox.Poll()
	if !ok {
		return
	}
	if c.override.Healthy && !ov.Healthy {
		c.appendEvent(ctx, now, models.EventRemoteFault, "remote command channel lost", nil)
	}
	c.override = ov
}

func (c *Controller) decide(ctx context.Context, now time.Time, snap models.SensorSnapshot) {
	d, err := c.engine.Step(now, snap, c.override)
	if err != nil {
		c.log.Errorw("relay_write_failed", "action", d.Action.String(), "rule", d.Rule, "err", err)
		return
	}
	if d.Action == control.Hold {
		return
	}
	c.persistPump(ctx)

	meta := map[string]any{
		"rule":         d.Rule,
		"moisture_avg": snap.AvgMoisture(),
		"water_level":  snap.WaterLevel,
		"tank_level":   snap.UltraLevelPercent,
	}
	switch {
	case d.Action == control.TurnOn:
		meta["reason"] = d.Reason
		c.log.Infow("pump_on", "rule", d.Rule, "reason", d.Reason)
		c.appendEvent(ctx, now, models.EventPumpOn, "pump started", meta)
	case d.Interlock():
		c.log.Warnw("pump_interlock", "rule", d.Rule)
		c.appendEvent(ctx, now, models.EventInterlock, "pump stopped by interlock", meta)
	default:
		c.log.Infow("pump_off", "rule", d.Rule)
		c.appendEvent(ctx, now, models.EventPumpOff, "pump stopped", meta)
	}
}

func (c *Controller) stopPump(ctx context.Context, now time.Time, why string) {
	if err := c.engine.ForceOff(now); err != nil {
		c.log.Errorw("relay_force_off_failed", "err", err)
		return
	}
	c.persistPump(ctx)
	c.appendEvent(ctx, now, models.EventPumpOff, "pump stopped: "+why, nil)
}

func (c *Controller) report(ctx context.Context, now time.Time, snap models.SensorSnapshot) {
	if c.d.Telemetry == nil || !c.d.Gate.Due(now, snap) {
		return
	}
	b := telemetry.Batch{Live: telemetry.FromSnapshot(snap), Append: c.d.Gate.RecordDue(now)}
	if err := c.d.Telemetry.Dispatch(ctx, b); err != nil {
		if errors.Is(err, telemetry.ErrBusy) {
			c.log.Debugw("telemetry_dropped_busy")
			return
		}
		c.log.Warnw("telemetry_dispatch_failed", "err", err)
		return
	}
	c.d.Gate.Commit(now, snap)
	if b.Append {
		c.d.Gate.CommitRecord(now)
	}
}

// Run ticks at the given interval until ctx is cancelled, then switches the
// pump off.
func (c *Controller) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case now := <-t.C:
			c.Tick(ctx, now.UTC())
		}
	}
}

func (c *Controller) shutdown() {
	if c.engine == nil || !c.engine.State().Active {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.stopPump(ctx, time.Now().UTC(), "shutdown")
}

func (c *Controller) persistPump(ctx context.Context) {
	st := c.engine.State()
	c.mu.Lock()
	c.pump = st
	c.mu.Unlock()
	if err := c.d.StateRepo.Save(ctx, st); err != nil {
		c.log.Errorw("pump_state_save_failed", "err", err)
	}
}

func (c *Controller) appendEvent(ctx context.Context, now time.Time, typ, desc string, meta any) {
	err := c.d.EventRepo.Append(ctx, models.PumpEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		c.log.Errorw("event_append_failed", "type", typ, "err", err)
	}
}

// applyProfile pushes a profile into the loop-owned components. Loop only.
func (c *Controller) applyProfile(p models.CalibrationProfile) {
	c.profile = p
	c.d.Acquirer.SetCalibration(p)
	if err := c.d.Level.SetCalibration(p.UltraEmptyCM, p.UltraFullCM); err != nil {
		c.log.Warnw("ultrasonic_calibration_rejected", "empty_cm", p.UltraEmptyCM, "full_cm", p.UltraFullCM, "err", err)
	}
	c.mu.Lock()
	c.published = p
	c.mu.Unlock()
}

func (c *Controller) takePendingCalibration() {
	c.mu.Lock()
	p := c.pendingCal
	c.pendingCal = nil
	c.mu.Unlock()
	if p != nil {
		c.applyProfile(*p)
	}
}

// ApplyCalibration queues a profile for the next tick. Safe from any
// goroutine.
func (c *Controller) ApplyCalibration(p models.CalibrationProfile) {
	c.mu.Lock()
	c.pendingCal = &p
	c.published = p
	c.mu.Unlock()
}

// Calibration returns the most recent profile, including a queued one.
func (c *Controller) Calibration() models.CalibrationProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.published
}

// LatestRaw returns the raw moisture readings of the last sample.
func (c *Controller) LatestRaw() (raw1, raw2 int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.raw[0], c.raw[1], c.hasLatest
}

// Latest returns the last snapshot and pump state.
func (c *Controller) Latest() (models.SensorSnapshot, models.PumpState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.pump, c.hasLatest
}
