// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth        = "auth"
	EventCategorySenior      = "senior"
	EventCategoryApplication = "application"
	EventCategoryUser        = "user"
	EventCategorySettings    = "settings"
	EventCategoryBackup      = "backup"
	EventCategoryWebhook     = "webhook"
	EventCategorySystem      = "system"
)

// Event is an audit log entry.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	UserID    string    `json:"user_id,omitempty"`
	Metadata  string    `json:"metadata"` // JSON string
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
