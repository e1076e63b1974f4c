// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olegiv/seniorid/internal/auth"
	"github.com/olegiv/seniorid/internal/model"
)

// Records as the browser client kept them: camelCase keys, millisecond
// timestamps and plaintext passwords.

type legacyPerson struct {
	FirstName        string `json:"firstName"`
	MiddleName       string `json:"middleName"`
	LastName         string `json:"lastName"`
	Suffix           string `json:"suffix"`
	DOB              string `json:"dob"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	ContactNumber    string `json:"contactNumber"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`
	PhotoURL         string `json:"photoUrl"`
	SignatureURL     string `json:"signatureUrl"`
}

func (p legacyPerson) person() model.Person {
	return model.Person{
		FirstName:        p.FirstName,
		MiddleName:       p.MiddleName,
		LastName:         p.LastName,
		Suffix:           p.Suffix,
		DOB:              p.DOB,
		Gender:           p.Gender,
		Address:          p.Address,
		ContactNumber:    p.ContactNumber,
		EmergencyContact: p.EmergencyContact,
		EmergencyPhone:   p.EmergencyPhone,
		Photo:            p.PhotoURL,
		Signature:        p.SignatureURL,
	}
}

type legacySenior struct {
	legacyPerson
	ID        string `json:"id"`
	SeniorID  string `json:"seniorId"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
}

type legacyApplication struct {
	legacyPerson
	ID            string `json:"id"`
	ApplicationID string `json:"applicationId"`
	AppStatus     string `json:"appStatus"`
	ReviewedBy    string `json:"reviewedBy"`
	ReviewedAt    *int64 `json:"reviewedAt"`
	CreatedAt     int64  `json:"createdAt"`
}

type legacyUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt"`
}

type legacySettings struct {
	Title        string `json:"title"`
	LogoURL      string `json:"logoUrl"`
	PrimaryColor string `json:"primaryColor"`
	IsDarkMode   bool   `json:"isDarkMode"`
}

// isLegacyDump reports whether doc carries any of the legacy storage keys.
func isLegacyDump(doc map[string]json.RawMessage) bool {
	for _, k := range []string{legacySeniorsKey, legacyApplicationsKey, legacyUsersKey, legacySettingsKey} {
		if _, ok := doc[k]; ok {
			return true
		}
	}
	return false
}

// decodeStorageValue decodes one legacy storage entry. Browser storage holds
// strings, so an entry may be the JSON text itself or a string containing it.
func decodeStorageValue(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		raw = []byte(s)
	}
	return json.Unmarshal(raw, v)
}

func fromLegacyMillis(ms int64, fallback time.Time) time.Time {
	if ms <= 0 {
		return fallback
	}
	return time.UnixMilli(ms).UTC()
}

// migrateLegacy converts a legacy storage dump to the current format.
// Plaintext passwords are hashed. Records missing a creation time get now.
func migrateLegacy(doc map[string]json.RawMessage, now time.Time) (*Backup, error) {
	var (
		seniors  []legacySenior
		apps     []legacyApplication
		users    []legacyUser
		settings *legacySettings
	)
	if err := decodeStorageValue(doc[legacySeniorsKey], &seniors); err != nil {
		return nil, fmt.Errorf("reading %s: %w", legacySeniorsKey, err)
	}
	if err := decodeStorageValue(doc[legacyApplicationsKey], &apps); err != nil {
		return nil, fmt.Errorf("reading %s: %w", legacyApplicationsKey, err)
	}
	if err := decodeStorageValue(doc[legacyUsersKey], &users); err != nil {
		return nil, fmt.Errorf("reading %s: %w", legacyUsersKey, err)
	}
	if err := decodeStorageValue(doc[legacySettingsKey], &settings); err != nil {
		return nil, fmt.Errorf("reading %s: %w", legacySettingsKey, err)
	}

	b := &Backup{
		Version:      BackupVersion,
		ExportedAt:   now,
		Seniors:      make([]model.Senior, 0, len(seniors)),
		Applications: make([]model.Application, 0, len(apps)),
		Users:        make([]BackupUser, 0, len(users)),
	}

	for _, ls := range seniors {
		created := fromLegacyMillis(ls.CreatedAt, now)
		b.Seniors = append(b.Seniors, model.Senior{
			ID:            ls.ID,
			ControlNumber: ls.SeniorID,
			Person:        ls.person(),
			Status:        model.SeniorStatus(ls.Status),
			CreatedAt:     created,
			UpdatedAt:     created,
			Version:       1,
		})
	}

	for _, la := range apps {
		a := model.Application{
			ID:            la.ID,
			ApplicationID: la.ApplicationID,
			Person:        la.person(),
			Status:        model.ApplicationStatus(la.AppStatus),
			CreatedAt:     fromLegacyMillis(la.CreatedAt, now),
			ReviewedBy:    la.ReviewedBy,
			Version:       1,
		}
		if la.ReviewedAt != nil && *la.ReviewedAt > 0 {
			t := time.UnixMilli(*la.ReviewedAt).UTC()
			a.ReviewedAt = &t
		}
		b.Applications = append(b.Applications, a)
	}

	for _, lu := range users {
		hash := lu.Password
		if !auth.IsHash(hash) {
			h, err := auth.HashPassword(lu.Password)
			if err != nil {
				return nil, fmt.Errorf("hashing password of user %q: %w", lu.ID, err)
			}
			hash = h
		}
		b.Users = append(b.Users, BackupUser{
			ID:           lu.ID,
			Username:     model.NormalizeUsername(lu.Username),
			PasswordHash: hash,
			Role:         model.Role(lu.Role),
			CreatedAt:    fromLegacyMillis(lu.CreatedAt, now),
		})
	}

	if settings != nil {
		b.Settings = &model.SiteSettings{
			Title:        settings.Title,
			Logo:         settings.LogoURL,
			PrimaryColor: settings.PrimaryColor,
			DarkMode:     settings.IsDarkMode,
		}
	}
	return b, nil
}
