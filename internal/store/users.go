// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/seniorid/internal/model"
)

const userColumns = `id, username, password_hash, role, created_at, last_login_at`

func scanUser(row rowScanner) (model.User, error) {
	var (
		u         model.User
		role      string
		createdAt int64
		lastLogin sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &createdAt, &lastLogin); err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.CreatedAt = FromMillis(createdAt)
	u.LastLoginAt = fromNullMillis(lastLogin)
	return u, nil
}

func (q *Queries) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY seq`

func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	return q.queryUsers(ctx, listUsers)
}

const listUsersByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ? ORDER BY seq`

// ListUsersByUsername returns every account with the (already normalized) username.
// Usernames are not unique in storage, so login checks each candidate in order.
func (q *Queries) ListUsersByUsername(ctx context.Context, username string) ([]model.User, error) {
	return q.queryUsers(ctx, listUsersByUsername, username)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const insertUser = `INSERT INTO users (id, username, password_hash, role, created_at, last_login_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertUser(ctx context.Context, u model.User) error {
	_, err := q.db.ExecContext(ctx, insertUser,
		u.ID, u.Username, u.PasswordHash, string(u.Role), Millis(u.CreatedAt), nullMillis(u.LastLoginAt))
	return err
}

const updateUser = `UPDATE users SET username = ?, password_hash = ?, role = ?, created_at = ?, last_login_at = ?
WHERE id = ?`

func (q *Queries) UpdateUser(ctx context.Context, u model.User) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateUser,
		u.Username, u.PasswordHash, string(u.Role), Millis(u.CreatedAt), nullMillis(u.LastLoginAt), u.ID))
}

const updateUserPassword = `UPDATE users SET password_hash = ? WHERE id = ?`

func (q *Queries) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, id)
	return err
}

const updateUserLastLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

func (q *Queries) UpdateUserLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, Millis(at), id)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteUser, id))
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

const countUsersByRole = `SELECT COUNT(*) FROM users WHERE role = ?`

func (q *Queries) CountUsersByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsersByRole, string(role)).Scan(&n)
	return n, err
}

// DeleteAllUsers empties the table. Used by restore.
func (q *Queries) DeleteAllUsers(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users`)
	return err
}
