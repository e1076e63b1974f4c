// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/model"
)

// SaveUserRequest is the body of POST /users. An empty id creates an
// account; an empty password keeps the current one.
type SaveUserRequest struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	Password string     `json:"password"`
}

// ListUsers handles GET /api/v1/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.registry.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteList(w, users)
}

// SaveUser handles POST /api/v1/users.
func (h *Handler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var req SaveUserRequest
	if !decode(w, r, &req) {
		return
	}

	created := req.ID == ""
	if !created {
		if _, err := h.registry.GetUser(r.Context(), req.ID); err != nil {
			created = true
		}
	}

	u, err := h.registry.SaveUser(r.Context(), model.User{
		ID:       req.ID,
		Username: req.Username,
		Role:     req.Role,
	}, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if created {
		WriteCreated(w, u)
		return
	}
	WriteSuccess(w, u, nil)
}

// DeleteUser handles DELETE /api/v1/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.DeleteUser(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
