// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutMiddlewareNormalRequest(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("success"))
	})

	rr := httptest.NewRecorder()
	Timeout(5*time.Second)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusCreated {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if body := rr.Body.String(); body != "success" {
		t.Errorf("Body = %q, want %q", body, "success")
	}
}

func TestTimeoutMiddlewareSlowRequest(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			_, _ = w.Write([]byte("late"))
		}
	})

	rr := httptest.NewRecorder()
	Timeout(50*time.Millisecond)(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if body := rr.Body.String(); body == "" || body == "late" {
		t.Errorf("Body = %q, want JSON timeout error", body)
	}
}

func TestGuardedWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	gw := &guardedWriter{ResponseWriter: rr}

	_, _ = gw.Write([]byte("x"))
	gw.WriteHeader(http.StatusTeapot)
	if rr.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusOK)
	}
	if gw.expire() {
		t.Error("expire() = true after handler started writing")
	}

	expired := &guardedWriter{ResponseWriter: httptest.NewRecorder()}
	if !expired.expire() {
		t.Fatal("expire() = false on idle writer")
	}
	if _, err := expired.Write([]byte("late")); err != http.ErrHandlerTimeout {
		t.Errorf("Write after expiry: err = %v, want ErrHandlerTimeout", err)
	}
}
