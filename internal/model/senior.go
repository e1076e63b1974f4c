// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// SeniorStatus is the standing of a registered senior citizen.
type SeniorStatus string

// Senior statuses.
const (
	SeniorActive    SeniorStatus = "Active"
	SeniorInactive  SeniorStatus = "Inactive"
	SeniorSuspended SeniorStatus = "Suspended"
)

// IsValid reports whether s is a known senior status.
func (s SeniorStatus) IsValid() bool {
	switch s {
	case SeniorActive, SeniorInactive, SeniorSuspended:
		return true
	}
	return false
}

// Senior is a registered senior citizen.
//
// ID is the opaque identifier encoded in the ID card's QR code.
// ControlNumber is the human-facing number printed on the card; staff may
// edit it and the store does not enforce its uniqueness.
type Senior struct {
	ID            string `json:"id"`
	ControlNumber string `json:"control_number" validate:"max=32"`
	Person
	Status    SeniorStatus `json:"status" validate:"required,senior_status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Version   int64        `json:"version"`
}

// IsActive returns true if the senior's ID card should verify as valid.
func (s *Senior) IsActive() bool {
	return s.Status == SeniorActive
}
