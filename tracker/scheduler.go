// CLAUDE:SUMMARY Scheduler: immediate first cycle, then timer re-armed from the live interval.
package tracker

import (
	"context"
	"errors"
	"time"
)

// Scheduler triggers update cycles on the configured interval.
type Scheduler struct {
	svc *Service
}

// NewScheduler creates a Scheduler for a service.
func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{svc: svc}
}

// Run executes one cycle immediately, then one per interval. Blocks until
// ctx is cancelled. The timer is re-armed from the config after every cycle,
// so interval changes take effect on the next wait without a restart.
func (s *Scheduler) Run(ctx context.Context) {
	log := s.svc.logger
	log.Info("scheduler started", "interval", s.svc.cfg.UpdateInterval())

	s.cycle(ctx)

	for {
		timer := time.NewTimer(s.svc.cfg.UpdateInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("scheduler stopped")
			return
		case <-timer.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	_, err := s.svc.RunAll(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress):
		// Manual trigger or another process beat us to it.
		s.svc.logger.Info("scheduled cycle skipped, run already in progress")
	default:
		s.svc.logger.Error("scheduled cycle failed", "error", err)
	}
}
