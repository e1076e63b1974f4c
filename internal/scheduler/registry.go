// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// JobFunc is the work of a scheduled job.
type JobFunc func(ctx context.Context) error

var (
	// ErrJobNotFound is returned for an unknown job name.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobRunning is returned when a manual trigger finds the job already running.
	ErrJobRunning = errors.New("job is already running")
	// ErrTriggerRateLimited is returned when a job is triggered manually too often.
	ErrTriggerRateLimited = errors.New("job triggered too often")
)

// registeredJob holds metadata about a registered cron job.
type registeredJob struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	fn          JobFunc
	limiter     *rate.Limiter

	mu           sync.Mutex
	running      bool
	lastRun      time.Time
	lastDuration time.Duration
	lastErr      error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Schedule     string    `json:"schedule"`
	LastRun      time.Time `json:"last_run"`
	LastDuration string    `json:"last_duration,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	NextRun      time.Time `json:"next_run"`
	Running      bool      `json:"running"`
}

// Registry tracks the jobs added to a cron instance.
type Registry struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.RWMutex
	jobs    map[string]*registeredJob
}

// NewRegistry creates a registry adding its jobs to c. Each run gets a
// context that expires after timeout.
func NewRegistry(c *cron.Cron, logger *slog.Logger, timeout time.Duration) *Registry {
	return &Registry{
		cron:    c,
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]*registeredJob),
	}
}

// Register adds a job to the cron instance under name.
func (r *Registry) Register(name, description, schedule string, fn JobFunc) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}

	job := &registeredJob{
		name:        name,
		description: description,
		schedule:    schedule,
		fn:          fn,
		limiter:     rate.NewLimiter(rate.Every(time.Minute), 1),
	}
	entryID, err := r.cron.AddFunc(schedule, func() {
		if err := r.run(context.Background(), job); err != nil && !errors.Is(err, ErrJobRunning) {
			r.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling job %q: %w", name, err)
	}
	job.entryID = entryID
	r.jobs[name] = job

	r.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

// run executes job unless a previous run is still in progress.
func (r *Registry) run(ctx context.Context, job *registeredJob) error {
	job.mu.Lock()
	if job.running {
		job.mu.Unlock()
		return ErrJobRunning
	}
	job.running = true
	job.mu.Unlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.fn(ctx)

	job.mu.Lock()
	job.running = false
	job.lastRun = start
	job.lastDuration = time.Since(start)
	job.lastErr = err
	job.mu.Unlock()

	if err == nil {
		r.logger.Info("scheduled job finished", "job", job.name, "duration", time.Since(start).String())
	}
	return err
}

// List returns all registered jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, job := range r.jobs {
		info := JobInfo{
			Name:        job.name,
			Description: job.description,
			Schedule:    job.schedule,
			NextRun:     r.cron.Entry(job.entryID).Next,
		}

		job.mu.Lock()
		info.LastRun = job.lastRun
		info.Running = job.running
		if job.lastDuration > 0 {
			info.LastDuration = job.lastDuration.String()
		}
		if job.lastErr != nil {
			info.LastError = job.lastErr.Error()
		}
		job.mu.Unlock()

		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// TriggerNow runs a job immediately and waits for it to finish. Manual runs
// of the same job are limited to one per minute.
func (r *Registry) TriggerNow(ctx context.Context, name string) error {
	r.mu.RLock()
	job, ok := r.jobs[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !job.limiter.Allow() {
		return ErrTriggerRateLimited
	}

	r.logger.Info("manually triggering job", "name", name)
	return r.run(ctx, job)
}
