// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/seniorid/internal/model"
)

const getSettings = `SELECT title, logo, primary_color, dark_mode FROM settings WHERE id = 1`

// GetSettings returns sql.ErrNoRows until settings have been saved once.
func (q *Queries) GetSettings(ctx context.Context) (model.SiteSettings, error) {
	var s model.SiteSettings
	err := q.db.QueryRowContext(ctx, getSettings).Scan(&s.Title, &s.Logo, &s.PrimaryColor, &s.DarkMode)
	return s, err
}

const upsertSettings = `INSERT INTO settings (id, title, logo, primary_color, dark_mode, updated_at)
VALUES (1, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	logo = excluded.logo,
	primary_color = excluded.primary_color,
	dark_mode = excluded.dark_mode,
	updated_at = excluded.updated_at`

func (q *Queries) UpsertSettings(ctx context.Context, s model.SiteSettings, at time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertSettings, s.Title, s.Logo, s.PrimaryColor, s.DarkMode, Millis(at))
	return err
}

// DeleteSettings reverts to defaults. Used by restore.
func (q *Queries) DeleteSettings(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM settings`)
	return err
}
