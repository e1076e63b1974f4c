// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/seniorid/internal/model"
)

// CreateEventParams holds the columns of a new audit event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string
	IpAddress string
	CreatedAt time.Time
}

const createEvent = `INSERT INTO events (level, category, message, user_id, metadata, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// CreateEvent inserts an event and returns its id.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	if arg.Metadata == "" {
		arg.Metadata = "{}"
	}
	res, err := q.db.ExecContext(ctx, createEvent,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.IpAddress, Millis(arg.CreatedAt))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listEvents = `SELECT id, level, category, message, user_id, metadata, ip_address, created_at
FROM events ORDER BY id DESC LIMIT ? OFFSET ?`

// ListEvents returns events newest first.
func (q *Queries) ListEvents(ctx context.Context, limit, offset int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Event{}
	for rows.Next() {
		var (
			e         model.Event
			userID    sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &userID, &e.Metadata, &e.IPAddress, &createdAt); err != nil {
			return nil, err
		}
		e.UserID = userID.String
		e.CreatedAt = FromMillis(createdAt)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore removes events created before cutoff and returns how many were removed.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteEventsBefore, Millis(cutoff)))
}
