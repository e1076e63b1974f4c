// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session manager and exposes the
// single-user session slot the registry logs users into.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// CookieName is the session cookie name.
const CookieName = "seniorid_session"

const userIDKey = "user_id"

// New creates a session manager backed by the sessions table in db.
// Expired sessions are purged every cleanupInterval.
func New(db *sql.DB, lifetime, cleanupInterval time.Duration, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, cleanupInterval)

	sm.Lifetime = lifetime
	sm.IdleTimeout = 0
	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	return sm
}

// Slot holds at most one authenticated user per client session.
// The context passed to its methods must carry a loaded session, as
// provided by (*scs.SessionManager).LoadAndSave.
type Slot struct {
	sm *scs.SessionManager
}

// NewSlot wraps sm.
func NewSlot(sm *scs.SessionManager) *Slot {
	return &Slot{sm: sm}
}

// Put stores userID in the slot, replacing any previous user. The session
// token is renewed to prevent fixation.
func (s *Slot) Put(ctx context.Context, userID string) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return err
	}
	s.sm.Put(ctx, userIDKey, userID)
	return nil
}

// UserID returns the stored user id, or "" when the slot is empty.
func (s *Slot) UserID(ctx context.Context) string {
	return s.sm.GetString(ctx, userIDKey)
}

// Clear empties the slot and destroys the session.
func (s *Slot) Clear(ctx context.Context) error {
	return s.sm.Destroy(ctx)
}
