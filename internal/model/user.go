// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// Role is a user account's role. Roles gate which API routes a user may call.
type Role string

// User roles.
const (
	RoleAdmin     Role = "Admin"
	RoleStaff     Role = "Staff"
	RoleQRChecker Role = "QR Checker Staff"
)

// Roles lists all roles.
var Roles = []Role{RoleAdmin, RoleStaff, RoleQRChecker}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleQRChecker:
		return true
	}
	return false
}

// User is a staff account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username" validate:"required,max=64"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	Role         Role       `json:"role" validate:"required,role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has the Admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageRecords returns true for roles allowed to edit seniors and review applications.
func (u *User) CanManageRecords() bool {
	return u.Role == RoleAdmin || u.Role == RoleStaff
}

// NormalizeUsername lowercases and trims a username for storage and comparison.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
