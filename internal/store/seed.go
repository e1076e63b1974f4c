// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/olegiv/seniorid/internal/auth"
	"github.com/olegiv/seniorid/internal/model"
)

// Default admin credentials, created when the users table is empty.
const (
	DefaultAdminID       = "1"
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "password123"
)

// SeedDefaultAdmin creates the default Admin account if no users exist.
// It reports whether an account was created. Run it inside a transaction so
// two concurrent first requests cannot both seed.
func SeedDefaultAdmin(ctx context.Context, q *Queries, now time.Time) (model.User, bool, error) {
	n, err := q.CountUsers(ctx)
	if err != nil {
		return model.User{}, false, fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return model.User{}, false, nil
	}

	hash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return model.User{}, false, fmt.Errorf("hashing password: %w", err)
	}

	admin := model.User{
		ID:           DefaultAdminID,
		Username:     DefaultAdminUsername,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
	}
	if err := q.InsertUser(ctx, admin); err != nil {
		return model.User{}, false, fmt.Errorf("creating admin user: %w", err)
	}
	return admin, true, nil
}
