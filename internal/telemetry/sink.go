package telemetry

import (
	"context"
	"errors"
)

// Sink accepts the two logical telemetry writes, both keyed by device id.
type Sink interface {
	// Upsert replaces the live record.
	Upsert(ctx context.Context, deviceID string, rec Record) error
	// Append stores a historical record keyed by its Unix timestamp.
	Append(ctx context.Context, deviceID string, rec Record) error
}

// MultiSink writes to every sink and joins their errors. A failing sink
// does not stop the others.
type MultiSink []Sink

func (m MultiSink) Upsert(ctx context.Context, deviceID string, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Upsert(ctx, deviceID, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Append(ctx context.Context, deviceID string, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, deviceID, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
