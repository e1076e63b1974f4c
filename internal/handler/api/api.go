// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON REST API handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/seniorid/internal/handler"
	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/registry"
	"github.com/olegiv/seniorid/internal/scheduler"
	"github.com/olegiv/seniorid/internal/transfer"
)

// JobRunner lists and triggers scheduled maintenance jobs.
type JobRunner interface {
	Jobs() []scheduler.JobInfo
	RunNow(ctx context.Context, name string) error
}

// Config holds the dependencies of the API handlers. Jobs and Events may be
// nil.
type Config struct {
	Registry  *registry.Registry
	Exporter  *transfer.Exporter
	Importer  *transfer.Importer
	Jobs      JobRunner
	Login     *middleware.LoginProtection
	Events    registry.AuditLogger
	PublicURL string
	Logger    *slog.Logger
	Now       func() time.Time
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	registry  *registry.Registry
	exporter  *transfer.Exporter
	importer  *transfer.Importer
	jobs      JobRunner
	login     *middleware.LoginProtection
	events    registry.AuditLogger
	publicURL string
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		registry:  cfg.Registry,
		exporter:  cfg.Exporter,
		importer:  cfg.Importer,
		jobs:      cfg.Jobs,
		login:     cfg.Login,
		events:    cfg.Events,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if h.login == nil {
		h.login = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteList writes a list with its total count.
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteSuccess(w, items, &Meta{Total: len(items)})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// conflictCodes maps registry errors answered with 409 to error codes.
var conflictCodes = []struct {
	err  error
	code string
}{
	{registry.ErrVersionConflict, "version_conflict"},
	{registry.ErrInvalidTransition, "invalid_transition"},
	{registry.ErrApplicationNotDeletable, "not_deletable"},
	{registry.ErrDuplicateID, "duplicate_id"},
	{registry.ErrSelfDelete, "self_delete"},
	{registry.ErrLastAdmin, "last_admin"},
}

// writeError maps a registry error to its HTTP response. Unexpected errors
// are logged and reported as 500 without details.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *registry.ValidationError
	if errors.As(err, &ve) {
		WriteValidationError(w, ve.Fields)
		return
	}

	switch {
	case errors.Is(err, registry.ErrNotFound):
		WriteNotFound(w, "Not found")
		return
	case errors.Is(err, registry.ErrInvalidCredentials):
		WriteUnauthorized(w, "Invalid credentials")
		return
	}

	for _, c := range conflictCodes {
		if errors.Is(err, c.err) {
			WriteError(w, http.StatusConflict, c.code, capitalizeFirst(c.err.Error()), nil)
			return
		}
	}

	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	WriteInternalError(w)
}

// decode reads the JSON body into v, writing a 400 or 413 response on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := handler.DecodeJSON(w, r, v); err != nil {
		if errors.Is(err, handler.ErrBodyTooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large", nil)
			return false
		}
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// capitalizeFirst capitalizes the first letter of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
