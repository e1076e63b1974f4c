// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/registry"
	"github.com/olegiv/seniorid/internal/service"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the logged-in model.User.
const ContextKeyUser ContextKey = "user"

// SessionLoader returns the user logged into the session behind ctx.
type SessionLoader interface {
	CurrentSession(ctx context.Context) (*model.User, error)
}

// LoadUser creates middleware that loads the current user into the request
// context. Requests without a session pass through unchanged. The user also
// becomes the actor for registry audit entries.
func LoadUser(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.CurrentSession(r.Context())
			if err != nil {
				slog.Error("failed to load session user", "error", err, "path", r.URL.Path)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, *user)
			ctx = registry.WithActor(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or "" if not found.
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}

// RequireAuth rejects requests without a logged-in user with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole creates middleware allowing only users with one of roles.
// Denials are logged and, if events is non-nil, written to the audit log.
func RequireRole(events registry.AuditLogger, roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if !slices.Contains(roles, user.Role) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
				)
				if events != nil {
					_ = events.LogEvent(r.Context(), model.EventLevelWarning, model.EventCategoryAuth,
						"Access denied: insufficient permissions", user.ID, map[string]any{
							"method":    r.Method,
							"path":      r.URL.Path,
							"user_role": string(user.Role),
						})
				}
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows only Admin users.
func RequireAdmin(events registry.AuditLogger) func(http.Handler) http.Handler {
	return RequireRole(events, model.RoleAdmin)
}

// RequireStaff allows Admin and Staff users.
func RequireStaff(events registry.AuditLogger) func(http.Handler) http.Handler {
	return RequireRole(events, model.RoleAdmin, model.RoleStaff)
}

// RequestInfo stores the client IP and user agent in the request context
// for audit entries.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := service.WithRequestInfo(r.Context(), service.RequestInfo{
			IP:        getClientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
