// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/registry"
	"github.com/olegiv/seniorid/internal/service"
)

type fakeSessions struct {
	user *model.User
	err  error
}

func (f fakeSessions) CurrentSession(context.Context) (*model.User, error) {
	return f.user, f.err
}

type recordedEvent struct {
	level, category, message, userID string
}

type fakeAudit struct {
	events []recordedEvent
}

func (f *fakeAudit) LogEvent(_ context.Context, level, category, message, userID string, _ map[string]any) error {
	f.events = append(f.events, recordedEvent{level, category, message, userID})
	return nil
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestLoadUser_SetsUserAndActor(t *testing.T) {
	user := &model.User{ID: "u1", Username: "maria", Role: model.RoleStaff}

	var gotUser *model.User
	var gotActor string
	h := LoadUser(fakeSessions{user: user})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUser(r)
		gotActor = registry.ActorFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, gotUser)
	assert.Equal(t, "maria", gotUser.Username)
	assert.Equal(t, "u1", gotActor)
}

func TestLoadUser_NoSession(t *testing.T) {
	called := false
	h := LoadUser(fakeSessions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Nil(t, GetUser(r))
		assert.Empty(t, GetUserID(r))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestLoadUser_Error(t *testing.T) {
	h := LoadUser(fakeSessions{err: errors.New("db down")})(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"internal_error"`)
}

func withUser(r *http.Request, role model.Role) *http.Request {
	ctx := context.WithValue(r.Context(), ContextKeyUser, model.User{ID: "u-" + string(role), Role: role})
	return r.WithContext(ctx)
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/", nil), model.RoleQRChecker))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		mw    func(registry.AuditLogger) func(http.Handler) http.Handler
		role  model.Role
		anon  bool
		want  int
		audit bool
	}{
		{"admin route admin", RequireAdmin, model.RoleAdmin, false, http.StatusOK, false},
		{"admin route staff", RequireAdmin, model.RoleStaff, false, http.StatusForbidden, true},
		{"staff route staff", RequireStaff, model.RoleStaff, false, http.StatusOK, false},
		{"staff route admin", RequireStaff, model.RoleAdmin, false, http.StatusOK, false},
		{"staff route checker", RequireStaff, model.RoleQRChecker, false, http.StatusForbidden, true},
		{"staff route anonymous", RequireStaff, "", true, http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &fakeAudit{}
			h := tt.mw(audit)(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/seniors/x", nil)
			if !tt.anon {
				req = withUser(req, tt.role)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.audit {
				require.Len(t, audit.events, 1)
				assert.Equal(t, model.EventLevelWarning, audit.events[0].level)
				assert.Equal(t, model.EventCategoryAuth, audit.events[0].category)
				assert.Equal(t, "u-"+string(tt.role), audit.events[0].userID)
			} else {
				assert.Empty(t, audit.events)
			}
		})
	}
}

func TestRequireRole_NilAuditLogger(t *testing.T) {
	h := RequireAdmin(nil)(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/", nil), model.RoleStaff))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestInfo(t *testing.T) {
	var info service.RequestInfo
	h := RequestInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = service.RequestInfoFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	req.Header.Set("User-Agent", "test-agent")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "192.0.2.7", info.IP)
	assert.Equal(t, "test-agent", info.UserAgent)
}
