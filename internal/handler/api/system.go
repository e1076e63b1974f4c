// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/scheduler"
)

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.registry.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, st, nil)
}

// ListJobs handles GET /api/v1/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	var jobs []scheduler.JobInfo
	if h.jobs != nil {
		jobs = h.jobs.Jobs()
	}
	WriteList(w, jobs)
}

// RunJob handles POST /api/v1/jobs/{name}/run. The job runs to completion
// even if the client goes away.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		WriteNotFound(w, "Job not found")
		return
	}

	name := chi.URLParam(r, "name")
	err := h.jobs.RunNow(context.WithoutCancel(r.Context()), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		WriteNotFound(w, "Job not found")
		return
	case errors.Is(err, scheduler.ErrTriggerRateLimited):
		w.Header().Set("Retry-After", "60")
		WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Job was triggered recently. Try again later.", nil)
		return
	case errors.Is(err, scheduler.ErrJobRunning):
		WriteError(w, http.StatusConflict, "job_running", "Job is already running", nil)
		return
	}

	if h.events != nil {
		meta := map[string]any{"job": name}
		level := model.EventLevelInfo
		if err != nil {
			level = model.EventLevelError
			meta["error"] = err.Error()
		}
		_ = h.events.LogEvent(r.Context(), level, model.EventCategorySystem, "Job triggered manually",
			middleware.GetUserID(r), meta)
	}

	if err != nil {
		WriteError(w, http.StatusInternalServerError, "job_failed", "Job failed: "+err.Error(), nil)
		return
	}
	for _, j := range h.jobs.Jobs() {
		if j.Name == name {
			WriteSuccess(w, j, nil)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
