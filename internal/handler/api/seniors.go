// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/seniorid/internal/export"
	"github.com/olegiv/seniorid/internal/handler"
	"github.com/olegiv/seniorid/internal/model"
)

// CardResponse is the data printed on an ID card. The QR code encodes
// VerifyURL.
type CardResponse struct {
	model.Senior
	FullName  string `json:"full_name"`
	VerifyURL string `json:"verify_url"`
}

// ListSeniors handles GET /api/v1/seniors. With ?q= the list is filtered by
// name or control number.
func (h *Handler) ListSeniors(w http.ResponseWriter, r *http.Request) {
	var (
		seniors []model.Senior
		err     error
	)
	if q := handler.QueryParam(r, "q"); q != "" {
		seniors, err = h.registry.SearchSeniors(r.Context(), q)
	} else {
		seniors, err = h.registry.ListSeniors(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteList(w, seniors)
}

// CreateSenior handles POST /api/v1/seniors.
func (h *Handler) CreateSenior(w http.ResponseWriter, r *http.Request) {
	var s model.Senior
	if !decode(w, r, &s) {
		return
	}

	saved, err := h.registry.SaveSenior(r.Context(), s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteCreated(w, saved)
}

// GetSenior handles GET /api/v1/seniors/{key}. key is an id or a control number.
func (h *Handler) GetSenior(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.GetSenior(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, s, nil)
}

// UpdateSenior handles PUT /api/v1/seniors/{key}. A non-zero version in the
// body must match the stored one.
func (h *Handler) UpdateSenior(w http.ResponseWriter, r *http.Request) {
	existing, err := h.registry.GetSenior(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var s model.Senior
	if !decode(w, r, &s) {
		return
	}
	s.ID = existing.ID

	saved, err := h.registry.SaveSenior(r.Context(), s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, saved, nil)
}

// DeleteSenior handles DELETE /api/v1/seniors/{key}.
func (h *Handler) DeleteSenior(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.GetSenior(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.registry.DeleteSenior(r.Context(), s.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeniorCard handles GET /api/v1/seniors/{key}/card.
func (h *Handler) SeniorCard(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.GetSenior(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	WriteSuccess(w, CardResponse{
		Senior:    s,
		FullName:  s.FullName(),
		VerifyURL: h.VerifyURL(s.ID),
	}, nil)
}

// VerifyURL returns the public verification URL for a senior id.
func (h *Handler) VerifyURL(id string) string {
	return h.publicURL + "/verify/" + url.PathEscape(id)
}

// ExportSeniors handles GET /api/v1/seniors/export.xlsx.
func (h *Handler) ExportSeniors(w http.ResponseWriter, r *http.Request) {
	seniors, err := h.registry.ListSeniors(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := export.WriteMasterlist(&buf, seniors, now); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.MasterlistFilename(now)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
