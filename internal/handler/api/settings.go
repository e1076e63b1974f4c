// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/seniorid/internal/model"
)

// GetSettings handles GET /api/v1/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.GetSettings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, s, nil)
}

// UpdateSettings handles PUT /api/v1/settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var s model.SiteSettings
	if !decode(w, r, &s) {
		return
	}

	saved, err := h.registry.SaveSettings(r.Context(), s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, saved, nil)
}
