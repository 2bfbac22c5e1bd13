package remote

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"

	"vermicompost_monitor/internal/logger"
)

// Source is a command channel that can drop and be resubscribed.
type Source interface {
	Subscribe() error
	Active() bool
	Lost() <-chan struct{}
}

// Supervisor keeps a Source subscribed, retrying with exponential backoff
// whenever it goes inactive.
type Supervisor struct {
	src        Source
	log        *logger.Logger
	newBackOff func() backoff.BackOff
}

func NewSupervisor(src Source, log *logger.Logger) *Supervisor {
	return &Supervisor{src: src, log: logger.OrNop(log), newBackOff: defaultBackOff}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.Multiplier = 1.7
	b.MaxElapsedTime = 0 // never give up
	return b
}

// Run blocks until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		if !s.src.Active() {
			b := backoff.WithContext(s.newBackOff(), ctx)
			err := backoff.RetryNotify(s.src.Subscribe, b, func(err error, next time.Duration) {
				s.log.Warnw("remote_resubscribe_failed", "err", err, "retry_in", next)
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Errorw("remote_resubscribe_gave_up", "err", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-s.src.Lost():
		}
	}
}
