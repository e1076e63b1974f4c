// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook provides webhook event dispatching and delivery.
package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/seniorid/internal/model"
)

// Event represents a webhook event to be dispatched.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new webhook event. Records are reduced to the summary
// types below, so image data and password hashes never leave the server.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      eventData(data),
	}
}

// SeniorEventData contains data for senior record events.
type SeniorEventData struct {
	ID            string `json:"id"`
	ControlNumber string `json:"control_number"`
	Name          string `json:"name"`
	Status        string `json:"status"`
}

// ApplicationEventData contains data for application events.
type ApplicationEventData struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"application_id"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
}

// UserEventData contains data for user account events.
type UserEventData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func eventData(data any) any {
	switch d := data.(type) {
	case model.Senior:
		return SeniorEventData{ID: d.ID, ControlNumber: d.ControlNumber, Name: d.FullName(), Status: string(d.Status)}
	case *model.Senior:
		return eventData(*d)
	case model.Application:
		return ApplicationEventData{
			ID: d.ID, ApplicationID: d.ApplicationID, Name: d.FullName(),
			Status: string(d.Status), ReviewedBy: d.ReviewedBy, ReviewedAt: d.ReviewedAt,
		}
	case *model.Application:
		return eventData(*d)
	case model.User:
		return UserEventData{ID: d.ID, Username: d.Username, Role: string(d.Role)}
	case *model.User:
		return eventData(*d)
	}
	return data
}

// entityID returns the id of the record an event is about, or "".
func entityID(data any) string {
	switch d := data.(type) {
	case SeniorEventData:
		return d.ID
	case ApplicationEventData:
		return d.ID
	case UserEventData:
		return d.ID
	case map[string]string:
		return d["id"]
	case map[string]any:
		id, _ := d["id"].(string)
		return id
	}
	return ""
}
