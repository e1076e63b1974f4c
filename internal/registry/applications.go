// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
)

// ListApplications returns applications in insertion order. An empty status
// returns all of them.
func (r *Registry) ListApplications(ctx context.Context, status model.ApplicationStatus) ([]model.Application, error) {
	var (
		items []model.Application
		err   error
	)
	switch {
	case status == "":
		items, err = r.queries.ListApplications(ctx)
	case status.IsValid():
		items, err = r.queries.ListApplicationsByStatus(ctx, status)
	default:
		return nil, fieldError("status", "must be Pending, Approved or Rejected")
	}
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return items, nil
}

// GetApplication returns the application with the given id.
func (r *Registry) GetApplication(ctx context.Context, id string) (model.Application, error) {
	a, err := r.queries.GetApplication(ctx, id)
	if store.IsNoRows(err) {
		return model.Application{}, ErrNotFound
	}
	if err != nil {
		return model.Application{}, fmt.Errorf("loading application: %w", err)
	}
	return a, nil
}

// registrationRequired lists the fields a public registration must fill in
// beyond the general record validation.
var registrationRequired = []struct {
	field string
	value func(*model.Person) string
}{
	{"contact_number", func(p *model.Person) string { return p.ContactNumber }},
	{"address", func(p *model.Person) string { return p.Address }},
	{"emergency_contact", func(p *model.Person) string { return p.EmergencyContact }},
	{"emergency_phone", func(p *model.Person) string { return p.EmergencyPhone }},
	{"photo", func(p *model.Person) string { return p.Photo }},
	{"signature", func(p *model.Person) string { return p.Signature }},
}

// SaveApplication records a public self-registration. Whatever the caller
// sends, the application starts Pending and unreviewed with a fresh id and
// application reference. Photo and signature are required.
func (r *Registry) SaveApplication(ctx context.Context, a model.Application) (model.Application, error) {
	cleanPerson(&a.Person)
	a.ID = newID()
	a.ApplicationID = r.GenerateApplicationID()
	a.Status = model.ApplicationPending
	a.ReviewedBy = ""
	a.ReviewedAt = nil
	a.CreatedAt = r.now()
	a.Version = 1

	errs := model.FieldErrors(a)
	for _, req := range registrationRequired {
		if req.value(&a.Person) == "" {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs[req.field] = "is required"
		}
	}
	if errs != nil {
		return model.Application{}, &ValidationError{Fields: errs}
	}
	if err := r.normalizeImages(&a.Person); err != nil {
		return model.Application{}, err
	}

	if err := r.queries.InsertApplication(ctx, a); err != nil {
		return model.Application{}, fmt.Errorf("saving application: %w", err)
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategoryApplication, "Registration application submitted",
		map[string]any{"application_id": a.ApplicationID, "id": a.ID})
	r.notifier.Dispatch(ctx, model.EventApplicationSubmitted, a)
	return a, nil
}

// UpdateApplication inserts a, or replaces the application with the same id.
// Status changes must follow the review state machine, and approval must go
// through ApproveApplication so that the senior record is created with it.
// A non-zero a.Version must match the stored version.
func (r *Registry) UpdateApplication(ctx context.Context, a model.Application) (model.Application, error) {
	cleanPerson(&a.Person)
	a.ID = strings.TrimSpace(a.ID)
	if a.Status == "" {
		a.Status = model.ApplicationPending
	}
	if errs := model.FieldErrors(a); errs != nil {
		return model.Application{}, &ValidationError{Fields: errs}
	}
	if err := r.normalizeImages(&a.Person); err != nil {
		return model.Application{}, err
	}

	now := r.now()
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		if a.ID == "" {
			a.ID = newID()
		}

		existing, err := q.GetApplication(ctx, a.ID)
		if store.IsNoRows(err) {
			// New applications always start unreviewed.
			a.Status = model.ApplicationPending
			a.ReviewedBy = ""
			a.ReviewedAt = nil
			if a.ApplicationID == "" {
				a.ApplicationID = r.GenerateApplicationID()
			}
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			a.Version = 1
			return q.InsertApplication(ctx, a)
		}
		if err != nil {
			return fmt.Errorf("loading application: %w", err)
		}

		if a.Version != 0 && a.Version != existing.Version {
			return ErrVersionConflict
		}
		if !existing.Status.CanTransitionTo(a.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, existing.Status, a.Status)
		}
		if existing.Status != a.Status {
			if a.Status == model.ApplicationApproved {
				return fmt.Errorf("%w: use approve to accept an application", ErrInvalidTransition)
			}
			a.ReviewedBy = ActorFromContext(ctx)
			a.ReviewedAt = &now
		} else {
			a.ReviewedBy = existing.ReviewedBy
			a.ReviewedAt = existing.ReviewedAt
		}
		if a.ApplicationID == "" {
			a.ApplicationID = existing.ApplicationID
		}
		a.CreatedAt = existing.CreatedAt
		a.Version = existing.Version + 1
		if _, err := q.UpdateApplication(ctx, a); err != nil {
			return fmt.Errorf("updating application: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Application{}, err
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategoryApplication, "Application updated",
		map[string]any{"id": a.ID, "app_status": a.Status})
	return a, nil
}

// DeleteApplication permanently removes a reviewed application. Pending
// applications must be approved or rejected first.
func (r *Registry) DeleteApplication(ctx context.Context, id string) error {
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		a, err := q.GetApplication(ctx, id)
		if store.IsNoRows(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading application: %w", err)
		}
		if a.Status == model.ApplicationPending {
			return ErrApplicationNotDeletable
		}
		if _, err := q.DeleteApplication(ctx, id); err != nil {
			return fmt.Errorf("deleting application: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategoryApplication, "Application deleted", map[string]any{"id": id})
	r.notifier.Dispatch(ctx, model.EventApplicationDeleted, map[string]string{"id": id})
	return nil
}

// ApproveApplication marks a pending application Approved by reviewerID and,
// in the same transaction, creates an Active senior record with the
// application's id and a new control number. Nothing changes on error.
func (r *Registry) ApproveApplication(ctx context.Context, id, reviewerID string) (model.Senior, error) {
	now := r.now()
	var (
		app    model.Application
		senior model.Senior
	)
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		var err error
		app, err = r.review(ctx, q, id, reviewerID, model.ApplicationApproved)
		if err != nil {
			return err
		}

		if _, err := q.GetSeniorByID(ctx, app.ID); err == nil {
			return ErrDuplicateID
		} else if !store.IsNoRows(err) {
			return fmt.Errorf("checking senior id: %w", err)
		}

		senior = app.ToSenior(r.GenerateControlNumber(), now)
		senior.Version = 1
		if err := q.InsertSenior(ctx, senior); err != nil {
			return fmt.Errorf("creating senior: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Senior{}, err
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategoryApplication, "Application approved",
		map[string]any{"id": app.ID, "application_id": app.ApplicationID, "control_number": senior.ControlNumber, "reviewed_by": reviewerID})
	r.notifier.Dispatch(ctx, model.EventApplicationApproved, app)
	r.notifier.Dispatch(ctx, model.EventSeniorCreated, senior)
	return senior, nil
}

// RejectApplication marks a pending application Rejected by reviewerID.
func (r *Registry) RejectApplication(ctx context.Context, id, reviewerID string) (model.Application, error) {
	var app model.Application
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		var err error
		app, err = r.review(ctx, q, id, reviewerID, model.ApplicationRejected)
		return err
	})
	if err != nil {
		return model.Application{}, err
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategoryApplication, "Application rejected",
		map[string]any{"id": app.ID, "application_id": app.ApplicationID, "reviewed_by": reviewerID})
	r.notifier.Dispatch(ctx, model.EventApplicationRejected, app)
	return app, nil
}

// review moves a pending application to a final status inside q's transaction.
func (r *Registry) review(ctx context.Context, q *store.Queries, id, reviewerID string, to model.ApplicationStatus) (model.Application, error) {
	app, err := q.GetApplication(ctx, id)
	if store.IsNoRows(err) {
		return model.Application{}, ErrNotFound
	}
	if err != nil {
		return model.Application{}, fmt.Errorf("loading application: %w", err)
	}
	if app.Status != model.ApplicationPending {
		return model.Application{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, app.Status, to)
	}

	now := r.now()
	app.Status = to
	app.ReviewedBy = reviewerID
	app.ReviewedAt = &now
	app.Version++
	if _, err := q.UpdateApplication(ctx, app); err != nil {
		return model.Application{}, fmt.Errorf("updating application: %w", err)
	}
	return app, nil
}
