// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Verify handles GET /verify/{key}, the target of an ID card's QR code, and
// its /api/v1 alias. Unknown keys return 404.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	v, err := h.registry.Verify(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, v, nil)
}
