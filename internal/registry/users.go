// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/olegiv/seniorid/internal/auth"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
)

// ListUsers returns all accounts in insertion order. When there are none the
// default Admin account is created first.
func (r *Registry) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := r.ensureAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// GetUser returns the account with the given id.
func (r *Registry) GetUser(ctx context.Context, id string) (model.User, error) {
	u, err := r.queries.GetUserByID(ctx, id)
	if store.IsNoRows(err) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	return u, nil
}

func (r *Registry) ensureAdmin(ctx context.Context) error {
	var (
		admin  model.User
		seeded bool
	)
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		var err error
		admin, seeded, err = store.SeedDefaultAdmin(ctx, q, r.now())
		return err
	})
	if err != nil {
		return fmt.Errorf("seeding default admin: %w", err)
	}
	if seeded {
		r.logger.Warn("created default admin account, change its password",
			"category", model.EventCategoryUser, "username", admin.Username)
	}
	return nil
}

// SaveUser inserts u, or replaces the account with the same id. The username
// is lowercased and must not belong to another account. A new account needs
// a password; for an existing one an empty password keeps the current hash.
func (r *Registry) SaveUser(ctx context.Context, u model.User, password string) (model.User, error) {
	u.ID = strings.TrimSpace(u.ID)
	u.Username = model.NormalizeUsername(u.Username)
	if errs := model.FieldErrors(u); errs != nil {
		return model.User{}, &ValidationError{Fields: errs}
	}

	var hash string
	if password != "" {
		if err := auth.ValidatePassword(password); err != nil {
			return model.User{}, fieldError("password", err.Error())
		}
		h, err := auth.HashPassword(password)
		if err != nil {
			return model.User{}, fmt.Errorf("hashing password: %w", err)
		}
		hash = h
	}

	created := false
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		if u.ID == "" {
			u.ID = newID()
		}

		others, err := q.ListUsersByUsername(ctx, u.Username)
		if err != nil {
			return fmt.Errorf("checking username: %w", err)
		}
		for _, o := range others {
			if o.ID != u.ID {
				return fieldError("username", "is already taken")
			}
		}

		existing, err := q.GetUserByID(ctx, u.ID)
		if store.IsNoRows(err) {
			if hash == "" {
				return fieldError("password", "is required")
			}
			u.PasswordHash = hash
			if u.CreatedAt.IsZero() {
				u.CreatedAt = r.now()
			}
			u.LastLoginAt = nil
			created = true
			return q.InsertUser(ctx, u)
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}

		if existing.Role == model.RoleAdmin && u.Role != model.RoleAdmin {
			n, err := q.CountUsersByRole(ctx, model.RoleAdmin)
			if err != nil {
				return fmt.Errorf("counting admins: %w", err)
			}
			if n <= 1 {
				return ErrLastAdmin
			}
		}

		u.PasswordHash = existing.PasswordHash
		if hash != "" {
			u.PasswordHash = hash
		}
		u.CreatedAt = existing.CreatedAt
		u.LastLoginAt = existing.LastLoginAt
		if _, err := q.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("updating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	meta := map[string]any{"id": u.ID, "username": u.Username, "role": u.Role}
	if created {
		r.audit(ctx, model.EventLevelInfo, model.EventCategoryUser, "User created", meta)
		r.notifier.Dispatch(ctx, model.EventUserCreated, u)
	} else {
		r.audit(ctx, model.EventLevelInfo, model.EventCategoryUser, "User updated", meta)
	}
	return u, nil
}

// DeleteUser removes the account id on behalf of actingUserID. Users cannot
// delete themselves, and the last Admin cannot be deleted.
func (r *Registry) DeleteUser(ctx context.Context, id, actingUserID string) error {
	if id == actingUserID {
		return ErrSelfDelete
	}

	var deleted model.User
	err := store.InTx(ctx, r.db, func(q *store.Queries) error {
		u, err := q.GetUserByID(ctx, id)
		if store.IsNoRows(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}
		if u.Role == model.RoleAdmin {
			n, err := q.CountUsersByRole(ctx, model.RoleAdmin)
			if err != nil {
				return fmt.Errorf("counting admins: %w", err)
			}
			if n <= 1 {
				return ErrLastAdmin
			}
		}
		if _, err := q.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		deleted = u
		return nil
	})
	if err != nil {
		return err
	}

	r.audit(ctx, model.EventLevelInfo, model.EventCategoryUser, "User deleted",
		map[string]any{"id": deleted.ID, "username": deleted.Username})
	r.notifier.Dispatch(ctx, model.EventUserDeleted, map[string]string{"id": deleted.ID, "username": deleted.Username})
	return nil
}

