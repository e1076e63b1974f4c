// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/seniorid/internal/testutil"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := testutil.TestMemoryDB(t)

	// Create sessions table required by sqlite3store
	_, err := db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	require.NoError(t, err)
	return db
}

func TestNew_Settings(t *testing.T) {
	db := setupTestDB(t)

	dev := New(db, 12*time.Hour, 0, true)
	assert.Equal(t, 12*time.Hour, dev.Lifetime)
	assert.Equal(t, CookieName, dev.Cookie.Name)
	assert.True(t, dev.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, dev.Cookie.SameSite)
	assert.False(t, dev.Cookie.Secure)

	prod := New(db, time.Hour, 0, false)
	assert.True(t, prod.Cookie.Secure)
}

func TestSlot_PutGetClear(t *testing.T) {
	sm := testutil.TestSessionManager()
	slot := NewSlot(sm)
	ctx := testutil.SessionContext(t, sm)

	assert.Empty(t, slot.UserID(ctx))

	require.NoError(t, slot.Put(ctx, "user-1"))
	assert.Equal(t, "user-1", slot.UserID(ctx))

	require.NoError(t, slot.Put(ctx, "user-2"))
	assert.Equal(t, "user-2", slot.UserID(ctx), "slot holds a single user")

	require.NoError(t, slot.Clear(ctx))
	assert.Empty(t, slot.UserID(ctx))
}

func TestSlot_PersistsAcrossRequests(t *testing.T) {
	db := setupTestDB(t)
	sm := New(db, time.Hour, 0, true)
	slot := NewSlot(sm)

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, slot.Put(r.Context(), "user-1"))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(slot.UserID(r.Context())))
	})
	h := sm.LoadAndSave(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "user-1", rec.Body.String())
}
