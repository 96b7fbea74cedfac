package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scheduler fires sweep cycles on a fixed interval. Cycles run synchronously
// in its loop, so a tick that arrives while one is still in flight is simply
// skipped; nothing queues.
type Scheduler struct {
	Sweeper  *Sweeper
	Interval time.Duration
	Log      *slog.Logger
}

func NewScheduler(sweeper *Sweeper, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{Sweeper: sweeper, Interval: interval, Log: log}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.Log.Info("sweep scheduler started", "interval", s.Interval)
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("sweep scheduler stopped")
			return
		case <-t.C:
			// A manual trigger may hold the cycle guard.
			if _, err := s.Sweeper.RunCycle(ctx); err != nil {
				if errors.Is(err, ErrCycleInProgress) {
					s.Log.Warn("sweep cycle still running, tick skipped")
				} else {
					s.Log.Error("sweep cycle aborted", "err", err)
				}
			}
		}
	}
}
