// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
	"github.com/olegiv/seniorid/internal/util"
)

// ListSeniors returns all senior records in insertion order.
func (r *Registry) ListSeniors(ctx context.Context) ([]model.Senior, error) {
	items, err := r.queries.ListSeniors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing seniors: %w", err)
	}
	return items, nil
}

// SearchSeniors returns seniors whose "first last" name or control number
// contains query, ignoring case and accents. An empty query lists everyone.
func (r *Registry) SearchSeniors(ctx context.Context, query string) ([]model.Senior, error) {
	folded := util.FoldText(query)
	if folded == "" {
		return r.ListSeniors(ctx)
	}
	pattern := util.LikeContains(folded)
	items, err := r.queries.SearchSeniors(ctx, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching seniors: %w", err)
	}
	return items, nil
}

// GetSenior looks a senior up by id, then by control number. With duplicate
// control numbers the earliest inserted record wins.
func (r *Registry) GetSenior(ctx context.Context, key string) (model.Senior, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.Senior{}, ErrNotFound
	}

	s, err := r.queries.GetSeniorByID(ctx, key)
	if err == nil {
		return s, nil
	}
	if !store.IsNoRows(err) {
		return model.Senior{}, fmt.Errorf("loading senior: %w", err)
	}

	s, err = r.queries.GetSeniorByControlNumber(ctx, key)
	if store.IsNoRows(err) {
		return model.Senior{}, ErrNotFound
	}
	if err != nil {
		return model.Senior{}, fmt.Errorf("loading senior: %w", err)
	}
	return s, nil
}

// SaveSenior inserts s, or replaces the record with the same id in place.
//
// A new record gets an id, a control number and a creation time when they are
// empty. An update keeps the stored creation time, and when s.Version is
// non-zero it must match the stored version or ErrVersionConflict is
// returned. The saved record is returned.
func (r *Registry) SaveSenior(ctx context.Context, s model.Senior) (model.Senior, error) {
	cleanPerson(&s.Person)
	s.ID = strings.TrimSpace(s.ID)
	s.ControlNumber = strings.TrimSpace(s.ControlNumber)
	if s.Status == "" {
		s.Status = model.SeniorActive
	}
	if errs := model.FieldErrors(s); errs != nil {
		return model.Senior{}, &ValidationError{Fields: errs}
	}
	if err := r.normalizeImages(&s.Person); err != nil {
		return model.Senior{}, err
	}

	now := r.now()
	created := false
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		if s.ID == "" {
			s.ID = newID()
		}

		existing, err := q.GetSeniorByID(ctx, s.ID)
		if store.IsNoRows(err) {
			created = true
			if s.ControlNumber == "" {
				s.ControlNumber = r.GenerateControlNumber()
			}
			if s.CreatedAt.IsZero() {
				s.CreatedAt = now
			}
			s.CreatedAt = s.CreatedAt.UTC().Truncate(time.Millisecond)
			s.UpdatedAt = now
			s.Version = 1
			return q.InsertSenior(ctx, s)
		}
		if err != nil {
			return fmt.Errorf("loading senior: %w", err)
		}

		if s.Version != 0 && s.Version != existing.Version {
			return ErrVersionConflict
		}
		if s.ControlNumber == "" {
			s.ControlNumber = existing.ControlNumber
		}
		s.CreatedAt = existing.CreatedAt
		s.UpdatedAt = now
		s.Version = existing.Version + 1
		if _, err := q.UpdateSenior(ctx, s); err != nil {
			return fmt.Errorf("updating senior: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Senior{}, err
	}

	meta := map[string]any{"senior_id": s.ID, "control_number": s.ControlNumber}
	if created {
		r.audit(ctx, model.EventLevelInfo, model.EventCategorySenior, "Senior record created", meta)
		r.notifier.Dispatch(ctx, model.EventSeniorCreated, s)
	} else {
		r.audit(ctx, model.EventLevelInfo, model.EventCategorySenior, "Senior record updated", meta)
		r.notifier.Dispatch(ctx, model.EventSeniorUpdated, s)
	}
	return s, nil
}

// DeleteSenior permanently removes the senior with the given id.
func (r *Registry) DeleteSenior(ctx context.Context, id string) error {
	n, err := r.queries.DeleteSenior(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting senior: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategorySenior, "Senior record deleted", map[string]any{"senior_id": id})
	r.notifier.Dispatch(ctx, model.EventSeniorDeleted, map[string]string{"id": id})
	return nil
}
