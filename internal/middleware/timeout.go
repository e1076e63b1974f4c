// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout bounds each request by d. A handler that has produced no output
// when d elapses is answered with a 503 JSON error; anything it writes
// afterwards is dropped.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-finished:
				return
			case <-ctx.Done():
			}
			if gw.expire() {
				WriteAPIError(w, http.StatusServiceUnavailable, "timeout", "Request timeout", nil)
			}
			<-finished
		})
	}
}

type writerState int

const (
	stateIdle writerState = iota
	stateStarted
	stateExpired
)

// guardedWriter lets either the handler or the timeout own the response,
// whichever comes first.
type guardedWriter struct {
	http.ResponseWriter
	mu    sync.Mutex
	state writerState
}

// expire claims the response for the timeout. It reports false when the
// handler already started writing.
func (g *guardedWriter) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != stateIdle {
		return false
	}
	g.state = stateExpired
	return true
}

func (g *guardedWriter) start(code int) bool {
	switch g.state {
	case stateExpired:
		return false
	case stateIdle:
		g.state = stateStarted
		g.ResponseWriter.WriteHeader(code)
	}
	return true
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == stateIdle {
		g.start(code)
	}
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.start(http.StatusOK) {
		return 0, http.ErrHandlerTimeout
	}
	return g.ResponseWriter.Write(b)
}
