// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"

	"github.com/olegiv/seniorid/internal/model"
)

const applicationColumns = `id, application_id, first_name, middle_name, last_name, suffix, dob, gender,
	address, contact_number, emergency_contact, emergency_phone, photo, signature,
	app_status, reviewed_by, reviewed_at, created_at, version`

func scanApplication(row rowScanner) (model.Application, error) {
	var (
		a          model.Application
		status     string
		reviewedAt sql.NullInt64
		createdAt  int64
	)
	err := row.Scan(
		&a.ID, &a.ApplicationID,
		&a.FirstName, &a.MiddleName, &a.LastName, &a.Suffix, &a.DOB, &a.Gender,
		&a.Address, &a.ContactNumber, &a.EmergencyContact, &a.EmergencyPhone,
		&a.Photo, &a.Signature,
		&status, &a.ReviewedBy, &reviewedAt, &createdAt, &a.Version,
	)
	if err != nil {
		return model.Application{}, err
	}
	a.Status = model.ApplicationStatus(status)
	a.ReviewedAt = fromNullMillis(reviewedAt)
	a.CreatedAt = FromMillis(createdAt)
	return a, nil
}

func (q *Queries) queryApplications(ctx context.Context, query string, args ...any) ([]model.Application, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listApplications = `SELECT ` + applicationColumns + ` FROM applications ORDER BY seq`

// ListApplications returns every application in insertion order.
func (q *Queries) ListApplications(ctx context.Context) ([]model.Application, error) {
	return q.queryApplications(ctx, listApplications)
}

const listApplicationsByStatus = `SELECT ` + applicationColumns + ` FROM applications
WHERE app_status = ? ORDER BY seq`

// ListApplicationsByStatus returns applications with the given status in insertion order.
func (q *Queries) ListApplicationsByStatus(ctx context.Context, status model.ApplicationStatus) ([]model.Application, error) {
	return q.queryApplications(ctx, listApplicationsByStatus, string(status))
}

const getApplication = `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`

// GetApplication returns sql.ErrNoRows when no application has the id.
func (q *Queries) GetApplication(ctx context.Context, id string) (model.Application, error) {
	return scanApplication(q.db.QueryRowContext(ctx, getApplication, id))
}

const insertApplication = `INSERT INTO applications (
	id, application_id, first_name, middle_name, last_name, suffix, dob, gender,
	address, contact_number, emergency_contact, emergency_phone, photo, signature,
	app_status, reviewed_by, reviewed_at, created_at, version
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertApplication(ctx context.Context, a model.Application) error {
	_, err := q.db.ExecContext(ctx, insertApplication,
		a.ID, a.ApplicationID,
		a.FirstName, a.MiddleName, a.LastName, a.Suffix, a.DOB, a.Gender,
		a.Address, a.ContactNumber, a.EmergencyContact, a.EmergencyPhone,
		a.Photo, a.Signature,
		string(a.Status), a.ReviewedBy, nullMillis(a.ReviewedAt), Millis(a.CreatedAt), a.Version,
	)
	return err
}

const updateApplication = `UPDATE applications SET
	application_id = ?, first_name = ?, middle_name = ?, last_name = ?, suffix = ?,
	dob = ?, gender = ?, address = ?, contact_number = ?, emergency_contact = ?,
	emergency_phone = ?, photo = ?, signature = ?, app_status = ?, reviewed_by = ?,
	reviewed_at = ?, created_at = ?, version = ?
WHERE id = ?`

// UpdateApplication overwrites the application with a.ID in place.
func (q *Queries) UpdateApplication(ctx context.Context, a model.Application) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateApplication,
		a.ApplicationID, a.FirstName, a.MiddleName, a.LastName, a.Suffix,
		a.DOB, a.Gender, a.Address, a.ContactNumber, a.EmergencyContact,
		a.EmergencyPhone, a.Photo, a.Signature, string(a.Status), a.ReviewedBy,
		nullMillis(a.ReviewedAt), Millis(a.CreatedAt), a.Version,
		a.ID,
	))
}

const deleteApplication = `DELETE FROM applications WHERE id = ?`

func (q *Queries) DeleteApplication(ctx context.Context, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteApplication, id))
}

const countApplicationsByStatus = `SELECT COUNT(*) FROM applications WHERE app_status = ?`

func (q *Queries) CountApplicationsByStatus(ctx context.Context, status model.ApplicationStatus) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countApplicationsByStatus, string(status)).Scan(&n)
	return n, err
}

// DeleteAllApplications empties the table. Used by restore.
func (q *Queries) DeleteAllApplications(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM applications`)
	return err
}
