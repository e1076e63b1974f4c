// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// ApplicationStatus is the review state of a registration application.
type ApplicationStatus string

// Application statuses.
const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationApproved ApplicationStatus = "Approved"
	ApplicationRejected ApplicationStatus = "Rejected"
)

// ApplicationStatuses lists every status in review-queue order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationApproved,
	ApplicationRejected,
}

// IsValid reports whether s is a known application status.
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// IsFinal returns true once an application has been reviewed.
func (s ApplicationStatus) IsFinal() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// CanTransitionTo reports whether an application may move from s to next.
// Only Pending moves, and only forward. Staying in the same state is allowed.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	if s == next {
		return true
	}
	return s == ApplicationPending && next.IsFinal()
}

// Application is a public self-registration submission awaiting review.
type Application struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	Person
	Status     ApplicationStatus `json:"app_status" validate:"required,app_status"`
	CreatedAt  time.Time         `json:"created_at"`
	ReviewedBy string            `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time        `json:"reviewed_at,omitempty"`
	Version    int64             `json:"version"`
}

// ToSenior builds the senior record produced by approving a.
// The record reuses the application's ID and starts out Active.
func (a *Application) ToSenior(controlNumber string, now time.Time) Senior {
	return Senior{
		ID:            a.ID,
		ControlNumber: controlNumber,
		Person:        a.Person,
		Status:        SeniorActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
