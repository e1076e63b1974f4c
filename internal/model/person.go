// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the registry's domain types: senior citizen records,
// registration applications, user accounts and site settings.
package model

import "strings"

// Gender values accepted on records and applications.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// IsValidGender checks if g is one of the accepted gender values.
func IsValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Person holds the personal details shared by senior records and
// registration applications. Photo and Signature carry image data as
// data URLs.
type Person struct {
	FirstName        string `json:"first_name" validate:"required,max=100"`
	MiddleName       string `json:"middle_name" validate:"max=100"`
	LastName         string `json:"last_name" validate:"required,max=100"`
	Suffix           string `json:"suffix" validate:"max=20"`
	DOB              string `json:"dob" validate:"required,datetime=2006-01-02"`
	Gender           string `json:"gender" validate:"required,gender"`
	Address          string `json:"address" validate:"required,max=500"`
	ContactNumber    string `json:"contact_number" validate:"max=30"`
	EmergencyContact string `json:"emergency_contact" validate:"max=200"`
	EmergencyPhone   string `json:"emergency_phone" validate:"max=30"`
	Photo            string `json:"photo,omitempty" validate:"omitempty,datauri|url"`
	Signature        string `json:"signature,omitempty" validate:"omitempty,datauri"`
}

// FullName returns "first middle last suffix" with empty parts skipped.
func (p Person) FullName() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName, p.Suffix} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// DisplayName returns "first last", the form used by the dashboard search.
func (p Person) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
