// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/seniorid/internal/handler"
	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/model"
)

// ApprovalResponse is returned by the approve endpoint.
type ApprovalResponse struct {
	Application model.Application `json:"application"`
	Senior      model.Senior      `json:"senior"`
}

// Register handles POST /api/v1/register, the public self-registration form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var a model.Application
	if !decode(w, r, &a) {
		return
	}

	saved, err := h.registry.SaveApplication(r.Context(), a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteCreated(w, saved)
}

// ListApplications handles GET /api/v1/applications?status=.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	status := model.ApplicationStatus(handler.QueryParam(r, "status"))
	apps, err := h.registry.ListApplications(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteList(w, apps)
}

// GetApplication handles GET /api/v1/applications/{id}.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	a, err := h.registry.GetApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// UpdateApplication handles PUT /api/v1/applications/{id}.
func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	var a model.Application
	if !decode(w, r, &a) {
		return
	}
	a.ID = chi.URLParam(r, "id")

	saved, err := h.registry.UpdateApplication(r.Context(), a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, saved, nil)
}

// DeleteApplication handles DELETE /api/v1/applications/{id}.
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DeleteApplication(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveApplication handles POST /api/v1/applications/{id}/approve. The
// response carries both the reviewed application and the new senior record.
func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	senior, err := h.registry.ApproveApplication(r.Context(), id, middleware.GetUserID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	app, err := h.registry.GetApplication(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteCreated(w, ApprovalResponse{Application: app, Senior: senior})
}

// RejectApplication handles POST /api/v1/applications/{id}/reject.
func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.registry.RejectApplication(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, app, nil)
}
