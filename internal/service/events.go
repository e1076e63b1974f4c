// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the audit event log used for every registry
// mutation and authentication attempt.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
)

// CountryLookup resolves a client IP to a country code.
type CountryLookup interface {
	LookupCountry(ip string) string
}

// EventService writes audit events.
type EventService struct {
	queries   *store.Queries
	logger    *slog.Logger
	countries CountryLookup
	now       func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	return &EventService{
		queries: store.New(db),
		logger:  logger,
		now:     time.Now,
	}
}

// SetCountryLookup enables country tagging of auth events.
func (s *EventService) SetCountryLookup(c CountryLookup) {
	s.countries = c
}

// LogEvent creates a new event log entry. The client IP comes from the
// request info in ctx; auth events also record the parsed user agent and,
// when a country lookup is set, the client's country.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, userID string, metadata map[string]any) error {
	info := RequestInfoFromContext(ctx)

	if category == model.EventCategoryAuth {
		if info.UserAgent != "" {
			metadata = withMetadata(metadata, "client", ParseUserAgent(info.UserAgent))
		}
		if s.countries != nil && info.IP != "" {
			if country := s.countries.LookupCountry(info.IP); country != "" {
				metadata = withMetadata(metadata, "country", country)
			}
		}
	}

	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	var nullUserID sql.NullString
	if userID != "" {
		nullUserID = sql.NullString{String: userID, Valid: true}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  metadataJSON,
		IpAddress: info.IP,
		CreatedAt: s.now(),
	})
	if err != nil {
		// Not logged at WARN: the event log handler would try the same table again.
		s.logger.Info("failed to write audit event", "error", err, "message", message)
		return err
	}
	return nil
}

func withMetadata(metadata map[string]any, key string, value any) map[string]any {
	if metadata == nil {
		metadata = make(map[string]any, 2)
	}
	metadata[key] = value
	return metadata
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, userID, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, userID, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelError, category, message, userID, metadata)
}

// ListEvents returns the newest events first.
func (s *EventService) ListEvents(ctx context.Context, limit, offset int64) ([]model.Event, error) {
	return s.queries.ListEvents(ctx, limit, offset)
}

// DeleteOldEvents removes events older than the given duration and returns how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queries.DeleteEventsBefore(ctx, s.now().Add(-olderThan))
}
