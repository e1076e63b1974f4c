// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"slices"
)

// Webhook event types
const (
	EventApplicationSubmitted = "application.submitted"
	EventApplicationApproved  = "application.approved"
	EventApplicationRejected  = "application.rejected"
	EventApplicationDeleted   = "application.deleted"
	EventSeniorCreated        = "senior.created"
	EventSeniorUpdated        = "senior.updated"
	EventSeniorDeleted        = "senior.deleted"
	EventUserCreated          = "user.created"
	EventUserDeleted          = "user.deleted"
	EventDataRestored         = "data.restored"
)

// WebhookEventInfo contains event type and description.
type WebhookEventInfo struct {
	Type        string
	Description string
}

// AllWebhookEvents returns all available webhook event types with descriptions.
func AllWebhookEvents() []WebhookEventInfo {
	return []WebhookEventInfo{
		{EventApplicationSubmitted, "When a public registration is submitted"},
		{EventApplicationApproved, "When an application is approved"},
		{EventApplicationRejected, "When an application is rejected"},
		{EventApplicationDeleted, "When a reviewed application is deleted"},
		{EventSeniorCreated, "When a senior record is created"},
		{EventSeniorUpdated, "When a senior record is updated"},
		{EventSeniorDeleted, "When a senior record is deleted"},
		{EventUserCreated, "When a user is created"},
		{EventUserDeleted, "When a user is deleted"},
		{EventDataRestored, "When a backup is restored"},
	}
}

// IsWebhookEvent reports whether event is a known webhook event type.
func IsWebhookEvent(event string) bool {
	return slices.ContainsFunc(AllWebhookEvents(), func(info WebhookEventInfo) bool {
		return info.Type == event
	})
}

// Webhook is a configured delivery endpoint. An empty Events list subscribes
// to every event.
type Webhook struct {
	URL    string   `json:"url"`
	Secret string   `json:"-"` // Never expose in JSON
	Events []string `json:"events"`
}

// HasEvent checks if the webhook is subscribed to a specific event.
func (w *Webhook) HasEvent(event string) bool {
	if len(w.Events) == 0 {
		return true
	}
	return slices.Contains(w.Events, event)
}

// GenerateWebhookSecret generates a random secret for webhook signing.
func GenerateWebhookSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
