// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/registry"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login. Repeated failures for a username
// lock it for a while.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	if locked, remaining := h.login.IsAccountLocked(req.Username); locked {
		middleware.WriteLocked(w, remaining)
		return
	}

	user, err := h.registry.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, registry.ErrInvalidCredentials) {
		if locked, d := h.login.RecordFailedAttempt(req.Username); locked {
			middleware.WriteLocked(w, d)
			return
		}
		WriteUnauthorized(w, "Invalid credentials")
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.login.RecordSuccessfulLogin(req.Username)
	WriteSuccess(w, user, nil)
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}
	WriteSuccess(w, user, nil)
}
