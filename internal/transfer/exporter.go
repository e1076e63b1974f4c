// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/olegiv/seniorid/internal/store"
)

// Exporter writes backups of the registry data.
type Exporter struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates a new Exporter instance.
func NewExporter(db *sql.DB, logger *slog.Logger) *Exporter {
	return &Exporter{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Export reads every collection in one transaction, so the backup is a
// consistent snapshot.
func (e *Exporter) Export(ctx context.Context) (*Backup, error) {
	data := &Backup{
		Version:    BackupVersion,
		ExportedAt: e.now().UTC().Truncate(time.Millisecond),
	}

	err := store.InTx(ctx, e.db, func(q *store.Queries) error {
		var err error
		if data.Seniors, err = q.ListSeniors(ctx); err != nil {
			return fmt.Errorf("exporting seniors: %w", err)
		}
		if data.Applications, err = q.ListApplications(ctx); err != nil {
			return fmt.Errorf("exporting applications: %w", err)
		}

		users, err := q.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("exporting users: %w", err)
		}
		data.Users = make([]BackupUser, 0, len(users))
		for _, u := range users {
			data.Users = append(data.Users, backupUser(u))
		}

		settings, err := q.GetSettings(ctx)
		switch {
		case err == nil:
			data.Settings = &settings
		case !store.IsNoRows(err):
			return fmt.Errorf("exporting settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ExportToWriter writes the backup as indented JSON to w.
func (e *Exporter) ExportToWriter(ctx context.Context, w io.Writer) error {
	data, err := e.Export(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}

	e.logger.Info("backup exported",
		"seniors", len(data.Seniors),
		"applications", len(data.Applications),
		"users", len(data.Users))
	return nil
}

// ExportZip writes the backup as a zip archive holding a single JSON file.
func (e *Exporter) ExportZip(ctx context.Context, w io.Writer) error {
	zw := zip.NewWriter(w)
	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     backupZipEntryName,
		Method:   zip.Deflate,
		Modified: e.now(),
	})
	if err != nil {
		return fmt.Errorf("creating zip entry: %w", err)
	}
	if err := e.ExportToWriter(ctx, entry); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing zip: %w", err)
	}
	return nil
}

// ExportToFile writes a backup to path. Paths ending in ".zip" get a zip
// archive, anything else plain JSON. The file is written next to path and
// renamed into place, so a failed export never leaves a partial backup.
func (e *Exporter) ExportToFile(ctx context.Context, path string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if filepath.Ext(path) == ".zip" {
		err = e.ExportZip(ctx, tmp)
	} else {
		err = e.ExportToWriter(ctx, tmp)
	}
	if err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing backup file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing backup file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("setting backup file mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving backup file into place: %w", err)
	}
	return nil
}
