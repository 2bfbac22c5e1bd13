package telemetry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"vermicompost_monitor/internal/logger"
)

// ErrBusy is returned when a write is already in flight. The caller drops
// the attempt.
var ErrBusy = errors.New("telemetry write in flight")

// Batch is one dispatch: the live upsert plus, optionally, a historical
// append.
type Batch struct {
	Live   Record
	Append bool
}

// Dispatcher runs sink writes off the control loop with at most one batch
// in flight. It never queues.
type Dispatcher struct {
	sink     Sink
	deviceID string
	timeout  time.Duration
	log      *logger.Logger

	busy atomic.Bool
	wg   sync.WaitGroup
}

func NewDispatcher(sink Sink, deviceID string, timeout time.Duration, log *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{sink: sink, deviceID: deviceID, timeout: timeout, log: logger.OrNop(log)}
}

// Dispatch starts the batch in the background. It returns ErrBusy without
// blocking when the previous batch has not finished.
func (d *Dispatcher) Dispatch(ctx context.Context, b Batch) error {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.busy.Store(false)

		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.sink.Upsert(wctx, d.deviceID, b.Live); err != nil {
			d.log.Warnw("telemetry_upsert_failed", "device", d.deviceID, "err", err)
		}
		if !b.Append {
			return
		}
		if err := d.sink.Append(wctx, d.deviceID, b.Live); err != nil {
			d.log.Warnw("telemetry_append_failed", "device", d.deviceID, "ts", b.Live.Timestamp, "err", err)
		}
	}()
	return nil
}

// Busy reports whether a batch is in flight.
func (d *Dispatcher) Busy() bool { return d.busy.Load() }

// Wait blocks until the in-flight batch, if any, completes.
func (d *Dispatcher) Wait() { d.wg.Wait() }
