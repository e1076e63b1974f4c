// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
)

func validSenior() Senior {
	return Senior{
		ID:            "s1",
		ControlNumber: "PLN-2025-10001",
		Person: Person{
			FirstName: "Maria",
			LastName:  "Santos",
			DOB:       "1950-06-15",
			Gender:    GenderFemale,
			Address:   "Brgy. Poblacion, Paluan",
		},
		Status: SeniorActive,
	}
}

func TestFieldErrorsValidSenior(t *testing.T) {
	s := validSenior()
	if errs := FieldErrors(s); errs != nil {
		t.Fatalf("FieldErrors() = %v, want nil", errs)
	}
}

func TestFieldErrorsSenior(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Senior)
		field  string
	}{
		{"missing first name", func(s *Senior) { s.FirstName = "" }, "first_name"},
		{"missing last name", func(s *Senior) { s.LastName = "" }, "last_name"},
		{"bad dob", func(s *Senior) { s.DOB = "15/06/1950" }, "dob"},
		{"bad gender", func(s *Senior) { s.Gender = "unknown" }, "gender"},
		{"bad status", func(s *Senior) { s.Status = "Deceased" }, "status"},
		{"bad photo", func(s *Senior) { s.Photo = "not an image" }, "photo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSenior()
			tt.mutate(&s)
			errs := FieldErrors(s)
			if _, ok := errs[tt.field]; !ok {
				t.Errorf("FieldErrors() = %v, want error for %q", errs, tt.field)
			}
		})
	}
}

func TestFieldErrorsSettings(t *testing.T) {
	if errs := FieldErrors(DefaultSiteSettings()); errs != nil {
		t.Fatalf("defaults invalid: %v", errs)
	}

	s := DefaultSiteSettings()
	s.PrimaryColor = "green"
	errs := FieldErrors(s)
	if errs["primary_color"] == "" {
		t.Errorf("FieldErrors() = %v, want primary_color error", errs)
	}
}

func TestFieldErrorsUserRole(t *testing.T) {
	u := User{Username: "clerk", Role: RoleQRChecker}
	if errs := FieldErrors(u); errs != nil {
		t.Fatalf("FieldErrors() = %v, want nil", errs)
	}

	u.Role = "Guest"
	if errs := FieldErrors(u); errs["role"] == "" {
		t.Errorf("FieldErrors() = %v, want role error", errs)
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  Admin "); got != "admin" {
		t.Errorf("NormalizeUsername() = %q, want %q", got, "admin")
	}
}
