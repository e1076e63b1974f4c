// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"fmt"

	"github.com/olegiv/seniorid/internal/auth"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/store"
)

// Login checks the credentials and, on success, stores the user in the
// session slot of ctx. The username is matched case-insensitively. Any
// failure returns ErrInvalidCredentials without saying which part was wrong.
func (r *Registry) Login(ctx context.Context, username, password string) (model.User, error) {
	if r.sessions == nil {
		return model.User{}, errNoSessions
	}
	if err := r.ensureAdmin(ctx); err != nil {
		return model.User{}, err
	}

	username = model.NormalizeUsername(username)
	candidates, err := r.queries.ListUsersByUsername(ctx, username)
	if err != nil {
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	if len(candidates) == 0 {
		auth.BurnVerify(password)
	}

	var user *model.User
	for i := range candidates {
		ok, err := auth.CheckPassword(password, candidates[i].PasswordHash)
		if err != nil {
			r.logger.Warn("unreadable password hash", "category", model.EventCategoryAuth,
				"user_id", candidates[i].ID, "error", err)
			continue
		}
		if ok {
			user = &candidates[i]
			break
		}
	}
	if user == nil {
		r.audit(ctx, model.EventLevelWarning, model.EventCategoryAuth, "Failed login attempt",
			map[string]any{"username": username})
		return model.User{}, ErrInvalidCredentials
	}

	now := r.now()
	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := r.queries.UpdateUserPassword(ctx, user.ID, hash); err != nil {
				r.logger.Error("failed to upgrade password hash", "user_id", user.ID, "error", err)
			} else {
				user.PasswordHash = hash
			}
		}
	}
	if err := r.queries.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		return model.User{}, fmt.Errorf("recording login: %w", err)
	}
	user.LastLoginAt = &now

	if err := r.sessions.Put(ctx, user.ID); err != nil {
		return model.User{}, fmt.Errorf("storing session: %w", err)
	}

	ctx = WithActor(ctx, user.ID)
	r.audit(ctx, model.EventLevelInfo, model.EventCategoryAuth, "User logged in",
		map[string]any{"username": user.Username})
	return *user, nil
}

// Logout empties the session slot of ctx.
func (r *Registry) Logout(ctx context.Context) error {
	if r.sessions == nil {
		return errNoSessions
	}
	userID := r.sessions.UserID(ctx)
	if err := r.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	if userID != "" {
		r.audit(WithActor(ctx, userID), model.EventLevelInfo, model.EventCategoryAuth, "User logged out", nil)
	}
	return nil
}

// CurrentSession returns the user stored in the session slot of ctx, or nil.
// A slot that refers to a deleted account is cleared.
func (r *Registry) CurrentSession(ctx context.Context) (*model.User, error) {
	if r.sessions == nil {
		return nil, nil
	}
	id := r.sessions.UserID(ctx)
	if id == "" {
		return nil, nil
	}
	u, err := r.queries.GetUserByID(ctx, id)
	if store.IsNoRows(err) {
		if err := r.sessions.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clearing session: %w", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session user: %w", err)
	}
	return &u, nil
}
