// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs such as backups and
// audit log pruning.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 30 * time.Minute

// Scheduler handles scheduled maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithParser(scheduleParser))
	return &Scheduler{
		cron:     c,
		registry: NewRegistry(c, logger, DefaultJobTimeout),
		logger:   logger,
	}
}

// AddJob registers a job to run on schedule.
func (s *Scheduler) AddJob(name, description, schedule string, fn JobFunc) error {
	return s.registry.Register(name, description, schedule, fn)
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []JobInfo {
	return s.registry.List()
}

// RunNow triggers a job by name and waits for it.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	return s.registry.TriggerNow(ctx, name)
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
