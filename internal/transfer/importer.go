// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/olegiv/seniorid/internal/auth"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/registry"
	"github.com/olegiv/seniorid/internal/store"
)

// Importer restores backups, replacing the whole dataset.
type Importer struct {
	db        *sql.DB
	logger    *slog.Logger
	events    registry.AuditLogger
	onRestore []func(context.Context)
	maxBytes  int64
	now       func() time.Time
}

// NewImporter creates a new Importer instance.
func NewImporter(db *sql.DB, logger *slog.Logger) *Importer {
	return &Importer{
		db:       db,
		logger:   logger,
		maxBytes: MaxBackupBytes,
		now:      time.Now,
	}
}

// SetAuditLogger sets where successful restores are recorded.
func (i *Importer) SetAuditLogger(events registry.AuditLogger) {
	i.events = events
}

// OnRestore registers fn to run after every committed restore, for example
// to drop cached settings.
func (i *Importer) OnRestore(fn func(context.Context)) {
	i.onRestore = append(i.onRestore, fn)
}

// Parse reads a backup from r. It accepts the current JSON format, the same
// JSON inside a zip archive, and legacy browser storage dumps, which are
// migrated. The second result reports whether the input was a legacy dump.
func (i *Importer) Parse(r io.Reader) (*Backup, bool, error) {
	raw, err := io.ReadAll(io.LimitReader(r, i.maxBytes+1))
	if err != nil {
		return nil, false, fmt.Errorf("reading backup: %w", err)
	}
	if int64(len(raw)) > i.maxBytes {
		return nil, false, ErrBackupTooLarge
	}
	if bytes.HasPrefix(raw, []byte("PK\x03\x04")) {
		if raw, err = readZipEntry(raw, i.maxBytes); err != nil {
			return nil, false, err
		}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	rawVersion, ok := doc["version"]
	if !ok {
		if !isLegacyDump(doc) {
			return nil, false, ErrUnrecognizedFormat
		}
		b, err := migrateLegacy(doc, i.now().UTC().Truncate(time.Millisecond))
		if err != nil {
			return nil, true, err
		}
		return b, true, nil
	}

	var version string
	if err := json.Unmarshal(rawVersion, &version); err != nil || version != BackupVersion {
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedVersion, bytes.TrimSpace(rawVersion))
	}

	var b Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, false, fmt.Errorf("decoding backup: %w", err)
	}
	return &b, false, nil
}

func readZipEntry(raw []byte, maxBytes int64) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != backupZipEntryName {
			continue
		}
		if f.UncompressedSize64 > uint64(maxBytes) {
			return nil, ErrBackupTooLarge
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		defer func() { _ = rc.Close() }()

		data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		if int64(len(data)) > maxBytes {
			return nil, ErrBackupTooLarge
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: zip has no %s", ErrUnrecognizedFormat, backupZipEntryName)
}

// Validate checks every record of b. Ids must be present and unique within
// their collection, fields must pass the usual validation, and users must
// carry a password hash.
func (i *Importer) Validate(b *Backup) []ImportError {
	var errs []ImportError
	add := func(entity, id string, fields map[string]string) {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			errs = append(errs, ImportError{Entity: entity, ID: id, Message: k + " " + fields[k]})
		}
	}
	checkID := func(entity, id string, seen map[string]bool) {
		switch {
		case id == "":
			errs = append(errs, ImportError{Entity: entity, Message: "id is required"})
		case seen[id]:
			errs = append(errs, ImportError{Entity: entity, ID: id, Message: "duplicate id"})
		}
		seen[id] = true
	}

	seen := make(map[string]bool)
	for _, s := range b.Seniors {
		checkID("senior", s.ID, seen)
		add("senior", s.ID, model.FieldErrors(s))
	}

	seen = make(map[string]bool)
	for _, a := range b.Applications {
		checkID("application", a.ID, seen)
		add("application", a.ID, model.FieldErrors(a))
	}

	seen = make(map[string]bool)
	for _, u := range b.Users {
		checkID("user", u.ID, seen)
		add("user", u.ID, model.FieldErrors(u.User()))
		if !auth.IsHash(u.PasswordHash) {
			errs = append(errs, ImportError{Entity: "user", ID: u.ID, Message: "password_hash is not a valid hash"})
		}
	}

	if b.Settings != nil {
		add("settings", "", model.FieldErrors(*b.Settings))
	}
	return errs
}

// Restore replaces all seniors, applications, users and settings with the
// contents of b in a single transaction. On any error nothing changes.
func (i *Importer) Restore(ctx context.Context, b *Backup, opts ImportOptions) (*ImportResult, error) {
	result := NewImportResult(opts.DryRun)

	if errs := i.Validate(b); len(errs) > 0 {
		for _, e := range errs {
			result.AddError(e.Entity, e.ID, e.Message)
		}
		return result, ErrValidationFailed
	}

	result.Counts["seniors"] = len(b.Seniors)
	result.Counts["applications"] = len(b.Applications)
	result.Counts["users"] = len(b.Users)
	if b.Settings != nil {
		result.Counts["settings"] = 1
	}
	if opts.DryRun {
		return result, nil
	}

	now := i.now().UTC().Truncate(time.Millisecond)
	err := store.InTx(ctx, i.db, func(q *store.Queries) error {
		if err := q.DeleteAllSeniors(ctx); err != nil {
			return fmt.Errorf("clearing seniors: %w", err)
		}
		if err := q.DeleteAllApplications(ctx); err != nil {
			return fmt.Errorf("clearing applications: %w", err)
		}
		if err := q.DeleteAllUsers(ctx); err != nil {
			return fmt.Errorf("clearing users: %w", err)
		}
		if err := q.DeleteSettings(ctx); err != nil {
			return fmt.Errorf("clearing settings: %w", err)
		}

		for _, s := range b.Seniors {
			if s.Version < 1 {
				s.Version = 1
			}
			if s.UpdatedAt.IsZero() {
				s.UpdatedAt = s.CreatedAt
			}
			if err := q.InsertSenior(ctx, s); err != nil {
				return fmt.Errorf("restoring senior %q: %w", s.ID, err)
			}
		}
		for _, a := range b.Applications {
			if a.Version < 1 {
				a.Version = 1
			}
			if err := q.InsertApplication(ctx, a); err != nil {
				return fmt.Errorf("restoring application %q: %w", a.ID, err)
			}
		}
		for _, u := range b.Users {
			user := u.User()
			user.Username = model.NormalizeUsername(user.Username)
			if err := q.InsertUser(ctx, user); err != nil {
				return fmt.Errorf("restoring user %q: %w", u.ID, err)
			}
		}
		if b.Settings != nil {
			if err := q.UpsertSettings(ctx, *b.Settings, now); err != nil {
				return fmt.Errorf("restoring settings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		result.AddError("backup", "", err.Error())
		return result, err
	}

	for _, fn := range i.onRestore {
		fn(ctx)
	}

	i.logger.Info("backup restored",
		"seniors", len(b.Seniors),
		"applications", len(b.Applications),
		"users", len(b.Users))
	if i.events != nil {
		_ = i.events.LogEvent(ctx, model.EventLevelWarning, model.EventCategoryBackup, "Data restored from backup",
			registry.ActorFromContext(ctx), map[string]any{
				"seniors":      len(b.Seniors),
				"applications": len(b.Applications),
				"users":        len(b.Users),
			})
	}
	return result, nil
}

// RestoreFromReader parses r and restores it.
func (i *Importer) RestoreFromReader(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	b, legacy, err := i.Parse(r)
	if err != nil {
		return nil, err
	}
	result, err := i.Restore(ctx, b, opts)
	if result != nil {
		result.Legacy = legacy
	}
	return result, err
}

// RestoreFromFile parses the backup at path and restores it.
func (i *Importer) RestoreFromFile(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}
	defer func() { _ = f.Close() }()

	return i.RestoreFromReader(ctx, f, opts)
}
