// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/olegiv/seniorid/internal/handler"
	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/transfer"
)

// maxMultipartMemory is the part of a multipart upload kept in memory.
const maxMultipartMemory = 32 << 20

// Backup handles GET /api/v1/backup?format=json|zip.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	format := handler.QueryParam(r, "format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "zip" {
		WriteValidationError(w, map[string]string{"format": "must be json or zip"})
		return
	}

	filename := fmt.Sprintf("seniorid-backup-%s.%s", h.now().Format("2006-01-02"), format)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	var err error
	if format == "zip" {
		w.Header().Set("Content-Type", "application/zip")
		err = h.exporter.ExportZip(r.Context(), w)
	} else {
		w.Header().Set("Content-Type", "application/json")
		err = h.exporter.ExportToWriter(r.Context(), w)
	}
	if err != nil {
		// Headers may already be sent; the client sees a truncated file.
		h.logger.Error("backup export failed", "error", err)
		return
	}

	if h.events != nil {
		_ = h.events.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryBackup, "Backup downloaded",
			middleware.GetUserID(r), map[string]any{"format": format})
	}
}

// Restore handles POST /api/v1/restore?dry_run=true. The backup is the raw
// request body or the "file" part of a multipart form, as JSON or zip.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	dryRun, _ := strconv.ParseBool(handler.QueryParam(r, "dry_run"))

	body, closeBody, err := backupBody(w, r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	defer closeBody()

	b, legacy, err := h.importer.Parse(body)
	if err != nil {
		if errors.Is(err, transfer.ErrBackupTooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Backup too large", nil)
			return
		}
		WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.importer.Restore(r.Context(), b, transfer.ImportOptions{DryRun: dryRun})
	if errors.Is(err, transfer.ErrValidationFailed) {
		details := make(map[string]string, len(result.Errors))
		for _, e := range result.Errors {
			key := e.Entity + ":" + e.ID
			if prev, ok := details[key]; ok {
				details[key] = prev + "; " + e.Message
				continue
			}
			details[key] = e.Message
		}
		WriteValidationError(w, details)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result.Legacy = legacy
	WriteSuccess(w, result, nil)
}

// backupBody returns the uploaded backup file of r.
func backupBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, transfer.MaxBackupBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, fmt.Errorf("invalid upload: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errors.New("missing backup file")
	}
	return f, func() { _ = f.Close() }, nil
}
