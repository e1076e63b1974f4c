// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
	"github.com/olegiv/seniorid/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []model.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), 50, 0)
	require.NoError(t, err)
	return events
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(*slog.Logger)
		want  int
		level string
	}{
		{"error", func(l *slog.Logger) { l.Error("database connection failed", "host", "localhost") }, 1, model.EventLevelError},
		{"warn", func(l *slog.Logger) { l.Warn("slow query detected", "duration_ms", 5000) }, 1, model.EventLevelWarning},
		{"info", func(l *slog.Logger) { l.Info("server started", "port", 8080) }, 0, ""},
		{"debug", func(l *slog.Logger) { l.Debug("processing request") }, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.TestDB(t)
			tt.log(slog.New(NewEventLogHandler(discardHandler{}, db)))

			events := listEvents(t, db)
			require.Len(t, events, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.level, events[0].Level)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("server started", "port", 8080)

	assert.Len(t, listEvents(t, db), 1)
}

func TestEventLogHandler_CategoryInference(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login attempt blocked", model.EventCategoryAuth},
		{"application approval failed", model.EventCategoryApplication},
		{"senior record conflict", model.EventCategorySenior},
		{"user deletion refused", model.EventCategoryUser},
		{"settings cache refresh failed", model.EventCategorySettings},
		{"nightly backup failed", model.EventCategoryBackup},
		{"webhook delivery failed", model.EventCategoryWebhook},
		{"unknown error occurred", model.EventCategorySystem},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			db := testutil.TestDB(t)
			slog.New(NewEventLogHandler(discardHandler{}, db)).Error(tt.message)

			events := listEvents(t, db)
			require.Len(t, events, 1)
			assert.Equal(t, tt.want, events[0].Category)
		})
	}
}

func TestEventLogHandler_ExplicitCategoryAndMetadata(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).With("service", "api")

	logger.Error("something happened",
		"category", model.EventCategoryUser,
		"user_id", "u-1",
		"path", `/api/v1/users/"x"`,
	)

	events := listEvents(t, db)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventCategoryUser, events[0].Category)
	assert.Equal(t, "u-1", events[0].UserID)

	var meta map[string]string
	require.NoError(t, json.Unmarshal([]byte(events[0].Metadata), &meta))
	assert.Equal(t, "api", meta["service"])
	assert.Equal(t, `/api/v1/users/"x"`, meta["path"])
	assert.NotContains(t, meta, "category")
}
