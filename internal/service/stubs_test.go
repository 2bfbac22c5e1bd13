package service

import (
	"context"
	"sync"
	"time"

	"vermicompost_monitor/internal/control"
	"vermicompost_monitor/internal/models"
	"vermicompost_monitor/internal/telemetry"
)

// fakeEventRepo is a minimal stub that satisfies the repository.EventRepo interface.
type fakeEventRepo struct {
	mu sync.Mutex

	// captured inputs
	gotCtx  context.Context
	gotFrom time.Time
	gotTo   time.Time
	gotType string

	// configured outputs
	events    []models.PumpEvent
	err       error
	appendErr error

	appended []models.PumpEvent
	calls    int
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.PumpEvent, error) {
	f.calls++
	f.gotCtx = ctx
	f.gotFrom = from
	f.gotTo = to
	f.gotType = typ
	return f.events, f.err
}

func (f *fakeEventRepo) Append(_ context.Context, e models.PumpEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return f.appendErr
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

type fakeStateRepo struct {
	state   models.PumpState
	loadErr error
	saves   []models.PumpState
}

func (f *fakeStateRepo) Load(context.Context) (models.PumpState, error) { return f.state, f.loadErr }

func (f *fakeStateRepo) Save(_ context.Context, s models.PumpState) error {
	f.saves = append(f.saves, s)
	f.state = s
	return nil
}

type fakeCalRepo struct {
	profile models.CalibrationProfile
	loadErr error
	saveErr error
	saves   int
	resets  int
}

func (f *fakeCalRepo) Load(context.Context) (models.CalibrationProfile, error) {
	return f.profile, f.loadErr
}

func (f *fakeCalRepo) Save(_ context.Context, p models.CalibrationProfile) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.profile = p
	return nil
}

func (f *fakeCalRepo) Reset(context.Context) error {
	f.resets++
	f.profile = models.DefaultCalibration()
	return nil
}

type fakeTelemetryRepo struct {
	records  []telemetry.Record
	gotID    string
	gotFrom  time.Time
	gotTo    time.Time
	upserted int
}

func (f *fakeTelemetryRepo) Upsert(context.Context, string, telemetry.Record) error {
	f.upserted++
	return nil
}

func (f *fakeTelemetryRepo) Append(context.Context, string, telemetry.Record) error { return nil }

func (f *fakeTelemetryRepo) Live(context.Context, string) (telemetry.Record, bool, error) {
	return telemetry.Record{}, false, nil
}

func (f *fakeTelemetryRepo) Records(_ context.Context, id string, from, to time.Time) ([]telemetry.Record, error) {
	f.gotID, f.gotFrom, f.gotTo = id, from, to
	return f.records, nil
}

// fakeRelay records every write.
type fakeRelay struct {
	writes []bool
	err    error
}

func (r *fakeRelay) Set(on bool) error {
	if r.err != nil {
		return r.err
	}
	r.writes = append(r.writes, on)
	return nil
}

// fakeDispatcher accepts or rejects batches synchronously.
type fakeDispatcher struct {
	err     error
	batches []telemetry.Batch
}

func (d *fakeDispatcher) Dispatch(_ context.Context, b telemetry.Batch) error {
	if d.err != nil {
		return d.err
	}
	d.batches = append(d.batches, b)
	return nil
}

// fakeInbox hands out queued overrides one per Poll.
type fakeInbox struct {
	queue []control.Override
}

func (i *fakeInbox) Poll() (control.Override, bool) {
	if len(i.queue) == 0 {
		return control.Override{}, false
	}
	ov := i.queue[0]
	i.queue = i.queue[1:]
	return ov, true
}
