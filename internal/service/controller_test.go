package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"vermicompost_monitor/internal/control"
	"vermicompost_monitor/internal/hardware"
	"vermicompost_monitor/internal/level"
	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/sensors"
	"vermicompost_monitor/internal/telemetry"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// pumpRelay drives the simulated pump line and records every write.
type pumpRelay struct {
	bin    *hardware.SimBin
	writes []bool
}

func (r *pumpRelay) Set(on bool) error {
	r.writes = append(r.writes, on)
	return r.bin.Write(on)
}

type harness struct {
	ctrl   *Controller
	clock  *testClock
	bin    *hardware.SimBin
	relay  *pumpRelay
	events *fakeEventRepo
	states *fakeStateRepo
	cal    *fakeCalRepo
	disp   *fakeDispatcher
	inbox  *fakeInbox
	gate   *telemetry.Gate
}

func newHarness(t *testing.T, st hardware.BinState, profile models.CalibrationProfile) *harness {
	t.Helper()
	clk := &testClock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	bin := hardware.NewSimBin(st, hardware.WithClock(clk.Now), hardware.WithoutNoise())

	h := &harness{
		clock:  clk,
		bin:    bin,
		relay:  &pumpRelay{bin: bin},
		events: &fakeEventRepo{},
		states: &fakeStateRepo{},
		cal:    &fakeCalRepo{profile: profile},
		disp:   &fakeDispatcher{},
		inbox:  &fakeInbox{},
		gate:   telemetry.NewGate(5*time.Second, time.Minute),
	}
	h.ctrl = NewController(ControllerDeps{
		DeviceID:        "1934",
		SensorPeriod:    time.Second,
		Acquirer:        sensors.NewAcquirer(sensors.Hardware{Analog: bin, Precision: bin, Bus: bin}, models.DefaultCalibration(), nil),
		Level:           level.New(bin, models.DefaultUltraEmptyCM, models.DefaultUltraFullCM, level.WithSleep(func(time.Duration) {})),
		Relay:           h.relay,
		Policy:          control.DefaultConfig(),
		Gate:            h.gate,
		Telemetry:       h.disp,
		Inbox:           h.inbox,
		StateRepo:       h.states,
		EventRepo:       h.events,
		CalibrationRepo: h.cal,
	})
	if err := h.ctrl.Initialize(context.Background(), clk.Now()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return h
}

func (h *harness) tick() {
	h.ctrl.Tick(context.Background(), h.clock.Now())
}

func (h *harness) step(d time.Duration) {
	h.clock.Advance(d)
	h.tick()
}

func calibrated() models.CalibrationProfile {
	p := models.DefaultCalibration()
	p.SetupComplete = true
	return p
}

func dryBin() hardware.BinState {
	st := hardware.DefaultBinState()
	st.MoisturePct = 40
	return st
}

func TestController_InitializeForcesOffAndLogsBoot(t *testing.T) {
	h := newHarness(t, hardware.DefaultBinState(), calibrated())

	if !reflect.DeepEqual(h.relay.writes, []bool{false}) {
		t.Fatalf("relay writes at boot: %v", h.relay.writes)
	}
	if got := h.events.types(); !reflect.DeepEqual(got, []string{models.EventBoot}) {
		t.Fatalf("events: %v", got)
	}
	if len(h.states.saves) != 1 || h.states.saves[0].Active {
		t.Fatalf("boot state not persisted off: %+v", h.states.saves)
	}
	if !h.ctrl.Calibration().SetupComplete {
		t.Fatalf("stored profile not applied")
	}
	if _, _, ok := h.ctrl.LatestRaw(); ok {
		t.Fatalf("no raw reading expected before the first tick")
	}
}

func TestController_InitializeFallsBackToDefaults(t *testing.T) {
	h := newHarness(t, hardware.DefaultBinState(), models.CalibrationProfile{})
	h.cal.loadErr = errors.New("corrupt")

	h2 := NewController(h.ctrl.d)
	if err := h2.Initialize(context.Background(), h.clock.Now()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := h2.Calibration(); got != models.DefaultCalibration() {
		t.Fatalf("expected default profile, got %+v", got)
	}
}

func TestController_SetupIncompleteNeverRuns(t *testing.T) {
	h := newHarness(t, dryBin(), models.DefaultCalibration())

	for i := 0; i < 5; i++ {
		h.step(time.Second)
	}
	if len(h.relay.writes) != 1 {
		t.Fatalf("pump must stay off before setup completes: %v", h.relay.writes)
	}
	if len(h.disp.batches) != 0 {
		t.Fatalf("telemetry must not be sent before setup completes")
	}
	snap, _, ok := h.ctrl.Latest()
	if !ok || snap.Moisture1 > 45 {
		t.Fatalf("snapshot still published: ok=%v %+v", ok, snap)
	}
}

func TestController_DryBedRunsPumpOnce(t *testing.T) {
	h := newHarness(t, dryBin(), calibrated())

	h.step(time.Second)
	if !reflect.DeepEqual(h.relay.writes, []bool{false, true}) {
		t.Fatalf("relay writes: %v", h.relay.writes)
	}
	_, pump, _ := h.ctrl.Latest()
	if !pump.Active || pump.Reason != models.ReasonAuto {
		t.Fatalf("pump state: %+v", pump)
	}
	if got := h.events.types(); !reflect.DeepEqual(got, []string{models.EventBoot, models.EventPumpOn}) {
		t.Fatalf("events: %v", got)
	}
	if len(h.disp.batches) != 1 || !h.disp.batches[0].Append {
		t.Fatalf("first sample should push live and record: %+v", h.disp.batches)
	}

	// still running; no repeated actuation
	h.step(time.Second)
	h.step(time.Second)
	if len(h.relay.writes) != 2 {
		t.Fatalf("relay rewritten while running: %v", h.relay.writes)
	}

	// max run elapses
	for i := 0; i < 3; i++ {
		h.step(time.Second)
	}
	if !reflect.DeepEqual(h.relay.writes, []bool{false, true, false}) {
		t.Fatalf("relay writes after max run: %v", h.relay.writes)
	}
	_, pump, _ = h.ctrl.Latest()
	if pump.Active || pump.LastOffAt.IsZero() {
		t.Fatalf("pump should be off with LastOffAt set: %+v", pump)
	}
	if h.states.state.Active {
		t.Fatalf("persisted state still active")
	}
}

func TestController_SensorPeriodGatesSampling(t *testing.T) {
	h := newHarness(t, hardware.DefaultBinState(), calibrated())

	h.tick()
	first, _, _ := h.ctrl.Latest()
	h.step(300 * time.Millisecond)
	h.step(300 * time.Millisecond)
	if snap, _, _ := h.ctrl.Latest(); !snap.TakenAt.Equal(first.TakenAt) {
		t.Fatalf("sampled again inside the sensor period")
	}
	h.step(400 * time.Millisecond)
	if snap, _, _ := h.ctrl.Latest(); !snap.TakenAt.After(first.TakenAt) {
		t.Fatalf("expected a new sample after one period")
	}
}

func TestController_RemoteRunAndFault(t *testing.T) {
	st := hardware.DefaultBinState()
	st.MoisturePct = 70
	h := newHarness(t, st, calibrated())

	h.inbox.queue = append(h.inbox.queue, control.Override{Requested: true, Healthy: true})
	h.step(time.Second)
	_, pump, _ := h.ctrl.Latest()
	if !pump.Active || pump.Reason != models.ReasonRemote {
		t.Fatalf("remote run not started: %+v", pump)
	}

	h.inbox.queue = append(h.inbox.queue, control.Override{})
	h.step(time.Second)
	_, pump, _ = h.ctrl.Latest()
	if pump.Active {
		t.Fatalf("pump should stop when the remote channel fails")
	}
	want := []string{models.EventBoot, models.EventPumpOn, models.EventRemoteFault, models.EventPumpOff}
	if got := h.events.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events: got %v want %v", got, want)
	}
}

func TestController_LowSourceInterlock(t *testing.T) {
	st := dryBin()
	st.SourcePct = 0
	h := newHarness(t, st, calibrated())

	h.step(time.Second)
	if len(h.relay.writes) != 1 {
		t.Fatalf("pump started with an empty source tank: %v", h.relay.writes)
	}
}

func TestController_BusyTelemetryRetriesNextSample(t *testing.T) {
	h := newHarness(t, hardware.DefaultBinState(), calibrated())
	h.disp.err = telemetry.ErrBusy

	h.step(time.Second)
	if h.gate.Cursor().Valid {
		t.Fatalf("cursor committed although the write was dropped")
	}

	h.disp.err = nil
	h.step(time.Second)
	if !h.gate.Cursor().Valid || len(h.disp.batches) != 1 {
		t.Fatalf("expected the next sample to be pushed: %+v", h.disp.batches)
	}
}

func TestController_ApplyCalibrationTakesEffectNextTick(t *testing.T) {
	h := newHarness(t, dryBin(), models.DefaultCalibration())
	h.step(time.Second)

	h.ctrl.ApplyCalibration(calibrated())
	if !h.ctrl.Calibration().SetupComplete {
		t.Fatalf("queued profile not visible")
	}
	h.step(time.Second)
	_, pump, _ := h.ctrl.Latest()
	if !pump.Active {
		t.Fatalf("pump should run once setup completes")
	}
}

func TestController_RunStopsPumpOnShutdown(t *testing.T) {
	h := newHarness(t, dryBin(), calibrated())
	h.step(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.ctrl.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if w := h.relay.writes; w[len(w)-1] {
		t.Fatalf("relay left on after shutdown: %v", w)
	}
}

func TestController_LatestRawMatchesPublishedSnapshot(t *testing.T) {
	h := newHarness(t, dryBin(), models.DefaultCalibration())
	h.tick()

	snap, _, ok := h.ctrl.Latest()
	if !ok {
		t.Fatal("no snapshot after the first tick")
	}
	raw1, raw2, ok := h.ctrl.LatestRaw()
	if !ok {
		t.Fatal("no raw reading after the first tick")
	}

	// the bed gets wetter before the operator records the endpoint
	st := h.bin.State()
	st.MoisturePct = 95
	h.bin.SetState(st)

	again1, again2, _ := h.ctrl.LatestRaw()
	if again1 != raw1 || again2 != raw2 {
		t.Fatalf("raw reading changed without a new sample: %d/%d -> %d/%d", raw1, raw2, again1, again2)
	}
	if got := sensors.MoisturePercent(raw1, models.DefaultAirRaw, models.DefaultWaterRaw); got != snap.Moisture1 {
		t.Fatalf("raw %d maps to %d%%, snapshot shows %d%%", raw1, got, snap.Moisture1)
	}
	if got := sensors.MoisturePercent(raw2, models.DefaultAirRaw, models.DefaultWaterRaw); got != snap.Moisture2 {
		t.Fatalf("raw %d maps to %d%%, snapshot shows %d%%", raw2, got, snap.Moisture2)
	}
}
