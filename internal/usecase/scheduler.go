package usecase

import (
	"context"

	"LaCarte/internal/ports"
)

// Scheduler wires the ticker driver with the client sync use case.
type Scheduler struct {
	driver ports.Scheduler
	syncer *Syncer
	report func(SyncResult, error)
}

// NewScheduler returns a helper to start/stop recurring syncs. report
// receives every outcome.
func NewScheduler(driver ports.Scheduler, syncer *Syncer, report func(SyncResult, error)) *Scheduler {
	return &Scheduler{driver: driver, syncer: syncer, report: report}
}

// Start registers the sync job with the provided scheduler. Scheduled runs
// never force; the client gate decides.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.syncer == nil {
		return nil
	}

	job := func(ctx context.Context) {
		res, err := s.syncer.Sync(ctx, false)
		if s.report != nil {
			s.report(res, err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
