package services

import (
	"context"
	"time"

	applog "vendora/internal/log"
)

// Sweeper periodically expires lapsed holds and prunes old terminal rows.
// It is a liveness aid only: the protocol stays correct if it never runs.
type Sweeper struct {
	Res       *ReservationService
	Interval  time.Duration
	Retention time.Duration // 0 disables the purge
}

func NewSweeper(res *ReservationService, interval, retention time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{Res: res, Interval: interval, Retention: retention}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// Sweep is a single pass, shared by the loop and the on-demand cleanup call.
func (s *Sweeper) Sweep() {
	s.Res.Metrics.SweepRuns.Inc()
	expired, err := s.Res.Cleanup()
	if err != nil {
		applog.Error(nil, "sweep.expire", err, nil)
	} else if expired > 0 {
		applog.Info(nil, "sweep.expire", map[string]any{"expired": expired})
	}
	if s.Retention <= 0 {
		return
	}
	purged, err := s.Res.PurgeOlderThan(s.Retention)
	if err != nil {
		applog.Error(nil, "sweep.purge", err, nil)
	} else if purged > 0 {
		applog.Info(nil, "sweep.purge", map[string]any{"purged": purged})
	}
}
