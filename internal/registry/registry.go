// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package registry implements the senior citizen registry: records, the
// registration application workflow, user accounts, login sessions and site
// settings. Every operation validates its input and returns typed errors.
package registry

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/seniorid/internal/cache"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
	"github.com/olegiv/seniorid/internal/util"
)

// SessionSlot holds the logged-in user for the client behind ctx.
type SessionSlot interface {
	Put(ctx context.Context, userID string) error
	UserID(ctx context.Context) string
	Clear(ctx context.Context) error
}

// AuditLogger records audit events.
type AuditLogger interface {
	LogEvent(ctx context.Context, level, category, message, userID string, metadata map[string]any) error
}

// Notifier publishes domain events to external subscribers.
type Notifier interface {
	Dispatch(ctx context.Context, event string, data any)
}

// ImageNormalizer cleans up photo and signature data URLs before storage.
type ImageNormalizer interface {
	NormalizePhoto(src string) (string, error)
	NormalizeSignature(src string) (string, error)
}

// Config holds the collaborators of a Registry. Only Sessions is required
// for Login, Logout and CurrentSession; the rest default to no-ops.
type Config struct {
	Sessions    SessionSlot
	Cache       cache.Cache
	SettingsTTL time.Duration
	Events      AuditLogger
	Notifier    Notifier
	Images      ImageNormalizer
	Logger      *slog.Logger
	Now         func() time.Time
}

// Registry is the registry store.
type Registry struct {
	db       *sql.DB
	queries  *store.Queries
	sessions SessionSlot
	settings *cache.TypedCache[model.SiteSettings]
	events   AuditLogger
	notifier Notifier
	images   ImageNormalizer
	logger   *slog.Logger
	clock    func() time.Time
}

// New creates a Registry over a migrated database.
func New(db *sql.DB, cfg Config) *Registry {
	r := &Registry{
		db:       db,
		queries:  store.New(db),
		sessions: cfg.Sessions,
		events:   cfg.Events,
		notifier: cfg.Notifier,
		images:   cfg.Images,
		logger:   cfg.Logger,
		clock:    cfg.Now,
	}
	if r.events == nil {
		r.events = nopAudit{}
	}
	if r.notifier == nil {
		r.notifier = nopNotifier{}
	}
	if r.images == nil {
		r.images = passthroughImages{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.clock == nil {
		r.clock = time.Now
	}

	c := cfg.Cache
	if c == nil {
		c = cache.NewMemoryCache(time.Hour, 0)
	}
	ttl := cfg.SettingsTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	r.settings = cache.NewTypedCache[model.SiteSettings](c, ttl)

	return r
}

// now returns the current time at the millisecond precision timestamps are stored with.
func (r *Registry) now() time.Time {
	return r.clock().UTC().Truncate(time.Millisecond)
}

type actorKey struct{}

// WithActor attaches the id of the user performing an operation to ctx.
// Audit entries written during the operation are attributed to that user.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFromContext returns the user id set by WithActor, or "".
func ActorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// audit writes an audit entry attributed to the actor in ctx. Failures are
// logged by the audit logger and otherwise ignored.
func (r *Registry) audit(ctx context.Context, level, category, message string, metadata map[string]any) {
	_ = r.events.LogEvent(ctx, level, category, message, ActorFromContext(ctx), metadata)
}

// cleanPerson strips markup and surrounding whitespace from free-text fields.
func cleanPerson(p *model.Person) {
	for _, f := range []*string{
		&p.FirstName, &p.MiddleName, &p.LastName, &p.Suffix, &p.Address,
		&p.ContactNumber, &p.EmergencyContact, &p.EmergencyPhone,
	} {
		*f = util.CleanText(*f)
	}
	p.DOB = strings.TrimSpace(p.DOB)
	p.Photo = strings.TrimSpace(p.Photo)
	p.Signature = strings.TrimSpace(p.Signature)
}

func (r *Registry) normalizeImages(p *model.Person) error {
	photo, err := r.images.NormalizePhoto(p.Photo)
	if err != nil {
		return fieldError("photo", err.Error())
	}
	signature, err := r.images.NormalizeSignature(p.Signature)
	if err != nil {
		return fieldError("signature", err.Error())
	}
	p.Photo, p.Signature = photo, signature
	return nil
}

type nopAudit struct{}

func (nopAudit) LogEvent(context.Context, string, string, string, string, map[string]any) error {
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(context.Context, string, any) {}

type passthroughImages struct{}

func (passthroughImages) NormalizePhoto(src string) (string, error)     { return src, nil }
func (passthroughImages) NormalizeSignature(src string) (string, error) { return src, nil }
