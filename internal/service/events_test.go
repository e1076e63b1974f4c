// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/testutil"
)

func setupEventTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db := testutil.TestMemoryDB(t)

	// Matches the events table in the store migrations.
	_, err := db.Exec(`
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)
	return db
}

func TestLogEvent(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db, testutil.TestLoggerSilent())

	ctx := WithRequestInfo(context.Background(), RequestInfo{IP: "203.0.113.7"})
	require.NoError(t, svc.LogInfo(ctx, model.EventCategorySenior, "Senior created", "user-1", map[string]any{"senior_id": "s1"}))

	events, err := svc.ListEvents(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, model.EventLevelInfo, e.Level)
	assert.Equal(t, model.EventCategorySenior, e.Category)
	assert.Equal(t, "Senior created", e.Message)
	assert.Equal(t, "user-1", e.UserID)
	assert.Equal(t, "203.0.113.7", e.IPAddress)
	assert.JSONEq(t, `{"senior_id":"s1"}`, e.Metadata)
}

func TestLogEvent_AuthRecordsClient(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db, testutil.TestLoggerSilent())

	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	ctx := WithRequestInfo(context.Background(), RequestInfo{IP: "198.51.100.2", UserAgent: ua})
	require.NoError(t, svc.LogWarning(ctx, model.EventCategoryAuth, "Failed login attempt", "", nil))

	events, err := svc.ListEvents(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].UserID)

	var meta struct {
		Client ClientDevice `json:"client"`
	}
	require.NoError(t, json.Unmarshal([]byte(events[0].Metadata), &meta))
	assert.Equal(t, "Chrome", meta.Client.Browser)
	assert.Equal(t, "Windows", meta.Client.OS)
	assert.Equal(t, "desktop", meta.Client.DeviceType)
}

type staticCountries map[string]string

func (c staticCountries) LookupCountry(ip string) string { return c[ip] }

func TestLogEvent_AuthRecordsCountry(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db, testutil.TestLoggerSilent())
	svc.SetCountryLookup(staticCountries{"203.0.113.9": "PH"})

	ctx := WithRequestInfo(context.Background(), RequestInfo{IP: "203.0.113.9"})
	require.NoError(t, svc.LogInfo(ctx, model.EventCategoryAuth, "User logged in", "1", map[string]any{"username": "admin"}))
	// Only auth events are tagged.
	require.NoError(t, svc.LogInfo(ctx, model.EventCategorySenior, "Senior created", "1", nil))

	events, err := svc.ListEvents(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byMessage := map[string]string{}
	for _, e := range events {
		byMessage[e.Message] = e.Metadata
	}
	assert.JSONEq(t, `{"username":"admin","country":"PH"}`, byMessage["User logged in"])
	assert.JSONEq(t, `{}`, byMessage["Senior created"])
}

func TestDeleteOldEvents(t *testing.T) {
	db := setupEventTestDB(t)
	svc := NewEventService(db, testutil.TestLoggerSilent())
	ctx := context.Background()

	base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.AddDate(0, 0, -40) }
	require.NoError(t, svc.LogInfo(ctx, model.EventCategorySystem, "old", "", nil))
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.LogInfo(ctx, model.EventCategorySystem, "new", "", nil))

	n, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	events, err := svc.ListEvents(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].Message)
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", "mobile"},
		{"Googlebot/2.1 (+http://www.google.com/bot.html)", "bot"},
		{"", "desktop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseUserAgent(tt.ua).DeviceType, tt.ua)
	}
	assert.Equal(t, "Unknown", ParseUserAgent("").Browser)
}
