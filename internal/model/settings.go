// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Default site settings, used until an admin saves their own.
const (
	DefaultSiteTitle    = "Paluan SeniorID"
	DefaultSiteLogo     = "https://upload.wikimedia.org/wikipedia/commons/e/e0/Paluan_Seal.png"
	DefaultPrimaryColor = "#065f46"
)

// SiteSettings is the singleton branding record.
type SiteSettings struct {
	Title        string `json:"title" validate:"required,max=120"`
	Logo         string `json:"logo" validate:"omitempty,datauri|url"`
	PrimaryColor string `json:"primary_color" validate:"required,hexcolor"`
	DarkMode     bool   `json:"dark_mode"`
}

// DefaultSiteSettings returns the built-in settings.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		Title:        DefaultSiteTitle,
		Logo:         DefaultSiteLogo,
		PrimaryColor: DefaultPrimaryColor,
		DarkMode:     false,
	}
}
