// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/util"
)

const seniorColumns = `id, control_number, first_name, middle_name, last_name, suffix, dob, gender,
	address, contact_number, emergency_contact, emergency_phone, photo, signature,
	status, created_at, updated_at, version`

func scanSenior(row rowScanner) (model.Senior, error) {
	var (
		s                    model.Senior
		status               string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&s.ID, &s.ControlNumber,
		&s.FirstName, &s.MiddleName, &s.LastName, &s.Suffix, &s.DOB, &s.Gender,
		&s.Address, &s.ContactNumber, &s.EmergencyContact, &s.EmergencyPhone,
		&s.Photo, &s.Signature,
		&status, &createdAt, &updatedAt, &s.Version,
	)
	if err != nil {
		return model.Senior{}, err
	}
	s.Status = model.SeniorStatus(status)
	s.CreatedAt = FromMillis(createdAt)
	s.UpdatedAt = FromMillis(updatedAt)
	return s, nil
}

func (q *Queries) querySeniors(ctx context.Context, query string, args ...any) ([]model.Senior, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []model.Senior{}
	for rows.Next() {
		s, err := scanSenior(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listSeniors = `SELECT ` + seniorColumns + ` FROM seniors ORDER BY seq`

// ListSeniors returns every senior in insertion order.
func (q *Queries) ListSeniors(ctx context.Context) ([]model.Senior, error) {
	return q.querySeniors(ctx, listSeniors)
}

const searchSeniors = `SELECT ` + seniorColumns + ` FROM seniors
WHERE search_name LIKE ? ESCAPE '\' OR lower(control_number) LIKE ? ESCAPE '\'
ORDER BY seq`

// SearchSeniors returns seniors whose folded name or lowercased control
// number matches the given LIKE patterns.
func (q *Queries) SearchSeniors(ctx context.Context, namePattern, controlPattern string) ([]model.Senior, error) {
	return q.querySeniors(ctx, searchSeniors, namePattern, controlPattern)
}

const getSeniorByID = `SELECT ` + seniorColumns + ` FROM seniors WHERE id = ?`

// GetSeniorByID returns sql.ErrNoRows when no senior has the id.
func (q *Queries) GetSeniorByID(ctx context.Context, id string) (model.Senior, error) {
	return scanSenior(q.db.QueryRowContext(ctx, getSeniorByID, id))
}

const getSeniorByControlNumber = `SELECT ` + seniorColumns + ` FROM seniors
WHERE control_number = ? ORDER BY seq LIMIT 1`

// GetSeniorByControlNumber returns the earliest inserted senior with the control number.
func (q *Queries) GetSeniorByControlNumber(ctx context.Context, controlNumber string) (model.Senior, error) {
	return scanSenior(q.db.QueryRowContext(ctx, getSeniorByControlNumber, controlNumber))
}

const insertSenior = `INSERT INTO seniors (
	id, control_number, first_name, middle_name, last_name, suffix, dob, gender,
	address, contact_number, emergency_contact, emergency_phone, photo, signature,
	status, search_name, created_at, updated_at, version
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// searchName is the folded "first last" form matched by SearchSeniors.
func searchName(s model.Senior) string {
	return util.FoldText(s.DisplayName())
}

// InsertSenior appends a senior.
func (q *Queries) InsertSenior(ctx context.Context, s model.Senior) error {
	_, err := q.db.ExecContext(ctx, insertSenior,
		s.ID, s.ControlNumber,
		s.FirstName, s.MiddleName, s.LastName, s.Suffix, s.DOB, s.Gender,
		s.Address, s.ContactNumber, s.EmergencyContact, s.EmergencyPhone,
		s.Photo, s.Signature,
		string(s.Status), searchName(s), Millis(s.CreatedAt), Millis(s.UpdatedAt), s.Version,
	)
	return err
}

const updateSenior = `UPDATE seniors SET
	control_number = ?, first_name = ?, middle_name = ?, last_name = ?, suffix = ?,
	dob = ?, gender = ?, address = ?, contact_number = ?, emergency_contact = ?,
	emergency_phone = ?, photo = ?, signature = ?, status = ?, search_name = ?,
	created_at = ?, updated_at = ?, version = ?
WHERE id = ?`

// UpdateSenior overwrites the senior with s.ID in place, keeping its position.
// It returns the number of rows changed.
func (q *Queries) UpdateSenior(ctx context.Context, s model.Senior) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateSenior,
		s.ControlNumber, s.FirstName, s.MiddleName, s.LastName, s.Suffix,
		s.DOB, s.Gender, s.Address, s.ContactNumber, s.EmergencyContact,
		s.EmergencyPhone, s.Photo, s.Signature, string(s.Status), searchName(s),
		Millis(s.CreatedAt), Millis(s.UpdatedAt), s.Version,
		s.ID,
	))
}

const deleteSenior = `DELETE FROM seniors WHERE id = ?`

// DeleteSenior returns the number of rows removed.
func (q *Queries) DeleteSenior(ctx context.Context, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteSenior, id))
}

const countSeniors = `SELECT COUNT(*) FROM seniors`

func (q *Queries) CountSeniors(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countSeniors).Scan(&n)
	return n, err
}

const countSeniorsByStatus = `SELECT COUNT(*) FROM seniors WHERE status = ?`

func (q *Queries) CountSeniorsByStatus(ctx context.Context, status model.SeniorStatus) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countSeniorsByStatus, string(status)).Scan(&n)
	return n, err
}

// DeleteAllSeniors empties the table. Used by restore.
func (q *Queries) DeleteAllSeniors(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM seniors`)
	return err
}

// IsNoRows reports whether err is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
