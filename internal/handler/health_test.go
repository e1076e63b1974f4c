// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/testutil"
	"github.com/olegiv/seniorid/internal/version"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func healthRequest(role model.Role, query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health"+query, nil)
	if role != "" {
		ctx := context.WithValue(req.Context(), middleware.ContextKeyUser, model.User{ID: "1", Role: role})
		req = req.WithContext(ctx)
	}
	return req
}

func TestHealth_PublicResponse(t *testing.T) {
	h := NewHealthHandler(testutil.TestDB(t), nil, t.TempDir(), version.Info{Version: "v1.0.0"})

	for _, role := range []model.Role{"", model.RoleStaff} {
		rec := httptest.NewRecorder()
		h.Health(rec, healthRequest(role, ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	}
}

func TestHealth_AdminDetails(t *testing.T) {
	h := NewHealthHandler(testutil.TestDB(t), fakePinger{}, t.TempDir(), version.Info{Version: "v1.0.0"})

	rec := httptest.NewRecorder()
	h.Health(rec, healthRequest(model.RoleAdmin, "?verbose=true"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version.Version)
	assert.Contains(t, resp.Checks, "database")
	assert.Contains(t, resp.Checks, "disk")
	assert.Contains(t, resp.Checks, "cache")
	require.NotNil(t, resp.System)
	assert.NotEmpty(t, resp.System.GoVersion)
}

func TestHealth_CacheDownIsDegraded(t *testing.T) {
	h := NewHealthHandler(testutil.TestDB(t), fakePinger{err: errors.New("connection refused")}, t.TempDir(), version.Info{})

	rec := httptest.NewRecorder()
	h.Health(rec, healthRequest(model.RoleAdmin, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusUnhealthy, resp.Checks["cache"].Status)
	assert.Nil(t, resp.System)
}

func TestHealth_DatabaseDown(t *testing.T) {
	db := testutil.TestDB(t)
	h := NewHealthHandler(db, nil, t.TempDir(), version.Info{})
	require.NoError(t, db.Close())

	rec := httptest.NewRecorder()
	h.Health(rec, healthRequest("", ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, rec.Body.String())
}

func TestLivenessAndReadiness(t *testing.T) {
	h := NewHealthHandler(testutil.TestDB(t), nil, "/nonexistent/backups", version.Info{})

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestCheckDiskSpace_MissingDir(t *testing.T) {
	h := NewHealthHandler(nil, nil, "/nonexistent/backups", version.Info{})
	assert.Equal(t, StatusHealthy, h.checkDiskSpace().Status)
}
