// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olegiv/seniorid/internal/util"
)

// Job names used by the server.
const (
	JobBackup      = "backup"
	JobPruneEvents = "prune-events"
	JobReloadGeoIP = "reload-geoip"
)

const (
	backupPrefix     = "seniorid-"
	backupExt        = ".zip"
	backupTimeLayout = "20060102-150405"
)

// BackupWriter writes a full backup to a file.
type BackupWriter interface {
	ExportToFile(ctx context.Context, path string) error
}

// Reloader reloads a file-backed resource when it has changed.
type Reloader interface {
	Reload() error
}

// EventPruner removes old audit log entries.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// BackupJob returns a job writing a timestamped zip backup into dir and
// keeping only the newest retain files. A retain of zero keeps everything.
func BackupJob(w BackupWriter, dir string, retain int, logger *slog.Logger) JobFunc {
	return backupJob(w, dir, retain, logger, time.Now)
}

func backupJob(w BackupWriter, dir string, retain int, logger *slog.Logger, now func() time.Time) JobFunc {
	return func(ctx context.Context) error {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating backup directory: %w", err)
		}

		name := backupPrefix + now().UTC().Format(backupTimeLayout) + backupExt
		path, err := util.SafeJoinPath(dir, name)
		if err != nil {
			return err
		}
		if err := w.ExportToFile(ctx, path); err != nil {
			return fmt.Errorf("writing backup: %w", err)
		}
		logger.Info("backup written", "path", path)

		removed, err := pruneBackups(dir, retain)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Info("old backups removed", "count", removed)
		}
		return nil
	}
}

// pruneBackups deletes the oldest backup files in dir beyond retain.
// Timestamped names sort chronologically.
func pruneBackups(dir string, retain int) (int, error) {
	if retain <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading backup directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), backupExt) {
			names = append(names, e.Name())
		}
	}
	if len(names) <= retain {
		return 0, nil
	}

	sort.Strings(names)
	removed := 0
	for _, name := range names[:len(names)-retain] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("removing old backup %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// PruneEventsJob returns a job deleting audit log entries older than
// retentionDays.
func PruneEventsJob(p EventPruner, retentionDays int, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		if retentionDays <= 0 {
			return nil
		}
		n, err := p.DeleteOldEvents(ctx, time.Duration(retentionDays)*24*time.Hour)
		if err != nil {
			return fmt.Errorf("pruning events: %w", err)
		}
		if n > 0 {
			logger.Info("old events pruned", "count", n, "retention_days", retentionDays)
		}
		return nil
	}
}

// ReloadJob returns a job calling r.Reload.
func ReloadJob(r Reloader) JobFunc {
	return func(context.Context) error {
		return r.Reload()
	}
}
