// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/seniorid/internal/handler"
	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/registry"
)

// Public rate limit defaults for registration and verification.
const (
	DefaultPublicRPS   = 2
	DefaultPublicBurst = 20
)

// RouterConfig holds everything the HTTP router mounts.
type RouterConfig struct {
	Handler  *Handler
	Health   *handler.HealthHandler
	Sessions *scs.SessionManager
	Events   registry.AuditLogger

	// CSRF enables cross-origin protection when non-nil.
	CSRF *middleware.CSRFConfig

	IsDev          bool
	AccessLog      bool
	RequestTimeout time.Duration

	// PublicRPS and PublicBurst limit the unauthenticated endpoints per IP.
	PublicRPS   float64
	PublicBurst int
}

// NewRouter builds the HTTP router. Liveness and readiness probes sit outside
// the session layer; everything else is under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.PublicRPS <= 0 {
		cfg.PublicRPS = DefaultPublicRPS
	}
	if cfg.PublicBurst <= 0 {
		cfg.PublicBurst = DefaultPublicBurst
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDev)))
	r.Use(middleware.RequestInfo)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	publicLimit := middleware.NewIPRateLimiter(cfg.PublicRPS, cfg.PublicBurst).Middleware()

	// QR codes on printed cards encode <PublicURL>/verify/<id>.
	r.With(publicLimit).Get("/verify/{key}", h.Verify)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compress(1024))
		r.Use(cfg.Sessions.LoadAndSave)
		if cfg.CSRF != nil {
			r.Use(middleware.CSRF(*cfg.CSRF))
		}
		r.Use(middleware.LoadUser(h.registry))

		// Public endpoints
		r.Group(func(r chi.Router) {
			r.Use(publicLimit)
			if cfg.Health != nil {
				r.Get("/health", cfg.Health.Health)
			}
			r.Get("/verify/{key}", h.Verify)
			r.Post("/register", h.Register)
			r.Get("/settings", h.GetSettings)
		})

		r.With(h.login.Middleware()).Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.With(middleware.RequireAuth).Get("/auth/me", h.Me)

		// Record keeping: Admin and Staff
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff(cfg.Events))

			r.Get("/seniors", h.ListSeniors)
			r.Post("/seniors", h.CreateSenior)
			r.Get("/seniors/export.xlsx", h.ExportSeniors)
			r.Get("/seniors/{key}", h.GetSenior)
			r.Put("/seniors/{key}", h.UpdateSenior)
			r.Get("/seniors/{key}/card", h.SeniorCard)

			r.Get("/applications", h.ListApplications)
			r.Get("/applications/{id}", h.GetApplication)
			r.Put("/applications/{id}", h.UpdateApplication)
			r.Delete("/applications/{id}", h.DeleteApplication)
			r.Post("/applications/{id}/approve", h.ApproveApplication)
			r.Post("/applications/{id}/reject", h.RejectApplication)

			r.Get("/stats", h.Stats)
		})

		// Administration
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.Events))

			r.Delete("/seniors/{key}", h.DeleteSenior)

			r.Get("/users", h.ListUsers)
			r.Post("/users", h.SaveUser)
			r.Delete("/users/{id}", h.DeleteUser)

			r.Put("/settings", h.UpdateSettings)

			r.Get("/backup", h.Backup)
			r.Post("/restore", h.Restore)

			r.Get("/jobs", h.ListJobs)
			r.Post("/jobs/{name}/run", h.RunJob)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}
