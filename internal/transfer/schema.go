// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer provides backup and restore of the registry data.
package transfer

import (
	"errors"
	"time"

	"github.com/olegiv/seniorid/internal/model"
)

// BackupVersion is the current version of the backup format.
const BackupVersion = "2"

// Legacy browser storage keys. A backup without a version field is read as a
// dump of these keys.
const (
	legacySeniorsKey      = "senior_citizen_db"
	legacyApplicationsKey = "senior_system_applications"
	legacyUsersKey        = "senior_system_users"
	legacySettingsKey     = "senior_system_settings"
)

const (
	// MaxBackupBytes bounds the size of a backup read by Importer.Parse.
	MaxBackupBytes = 512 << 20

	backupZipEntryName = "backup.json"
)

var (
	// ErrUnsupportedVersion is returned for a backup whose version is unknown.
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	// ErrUnrecognizedFormat is returned for input that is neither a versioned
	// backup nor a legacy storage dump.
	ErrUnrecognizedFormat = errors.New("unrecognized backup format")
	// ErrBackupTooLarge is returned when the input exceeds MaxBackupBytes.
	ErrBackupTooLarge = errors.New("backup too large")
	// ErrValidationFailed is returned by Restore when the backup contents are
	// invalid. The ImportResult lists the problems.
	ErrValidationFailed = errors.New("backup validation failed")
)

// Backup is the complete backup document.
type Backup struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	Seniors      []model.Senior      `json:"seniors"`
	Applications []model.Application `json:"applications"`
	Users        []BackupUser        `json:"users"`
	Settings     *model.SiteSettings `json:"settings,omitempty"`
}

// BackupUser is a user account including its password hash.
type BackupUser struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	Role         model.Role `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func backupUser(u model.User) BackupUser {
	return BackupUser{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
		LastLoginAt:  u.LastLoginAt,
	}
}

// User converts b back to an account.
func (b BackupUser) User() model.User {
	return model.User{
		ID:           b.ID,
		Username:     b.Username,
		PasswordHash: b.PasswordHash,
		Role:         b.Role,
		CreatedAt:    b.CreatedAt,
		LastLoginAt:  b.LastLoginAt,
	}
}

// ImportError describes a problem with one record of a backup.
type ImportError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// ImportOptions configures a restore.
type ImportOptions struct {
	// DryRun validates and counts without writing anything.
	DryRun bool `json:"dry_run"`
}

// ImportResult reports the outcome of a restore.
type ImportResult struct {
	Success bool           `json:"success"`
	DryRun  bool           `json:"dry_run"`
	Legacy  bool           `json:"legacy"`
	Counts  map[string]int `json:"counts"`
	Errors  []ImportError  `json:"errors,omitempty"`
}

// NewImportResult creates an empty successful result.
func NewImportResult(dryRun bool) *ImportResult {
	return &ImportResult{
		Success: true,
		DryRun:  dryRun,
		Counts:  make(map[string]int),
	}
}

// AddError records a record problem and marks the result failed.
func (r *ImportResult) AddError(entity, id, message string) {
	r.Errors = append(r.Errors, ImportError{Entity: entity, ID: id, Message: message})
	r.Success = false
}

// Total returns the number of records restored.
func (r *ImportResult) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}
