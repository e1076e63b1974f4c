// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"context"
	"time"

	"github.com/olegiv/seniorid/internal/model"
)

// Verification is the public view of a senior record shown when an ID card's
// QR code is scanned. The signature is not included.
type Verification struct {
	ID               string             `json:"id"`
	ControlNumber    string             `json:"control_number"`
	FirstName        string             `json:"first_name"`
	MiddleName       string             `json:"middle_name"`
	LastName         string             `json:"last_name"`
	Suffix           string             `json:"suffix"`
	FullName         string             `json:"full_name"`
	DOB              string             `json:"dob"`
	Gender           string             `json:"gender"`
	Address          string             `json:"address"`
	ContactNumber    string             `json:"contact_number"`
	EmergencyContact string             `json:"emergency_contact"`
	EmergencyPhone   string             `json:"emergency_phone"`
	Photo            string             `json:"photo,omitempty"`
	Status           model.SeniorStatus `json:"status"`
	Active           bool               `json:"active"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Verify looks up a senior by id or control number for public verification.
func (r *Registry) Verify(ctx context.Context, key string) (Verification, error) {
	s, err := r.GetSenior(ctx, key)
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		ID:               s.ID,
		ControlNumber:    s.ControlNumber,
		FirstName:        s.FirstName,
		MiddleName:       s.MiddleName,
		LastName:         s.LastName,
		Suffix:           s.Suffix,
		FullName:         s.FullName(),
		DOB:              s.DOB,
		Gender:           s.Gender,
		Address:          s.Address,
		ContactNumber:    s.ContactNumber,
		EmergencyContact: s.EmergencyContact,
		EmergencyPhone:   s.EmergencyPhone,
		Photo:            s.Photo,
		Status:           s.Status,
		Active:           s.IsActive(),
		CreatedAt:        s.CreatedAt,
	}, nil
}
