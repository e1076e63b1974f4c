// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/seniorid/internal/cache"
	"github.com/olegiv/seniorid/internal/config"
	"github.com/olegiv/seniorid/internal/geoip"
	"github.com/olegiv/seniorid/internal/handler"
	"github.com/olegiv/seniorid/internal/handler/api"
	"github.com/olegiv/seniorid/internal/imaging"
	"github.com/olegiv/seniorid/internal/logging"
	"github.com/olegiv/seniorid/internal/middleware"
	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/registry"
	"github.com/olegiv/seniorid/internal/scheduler"
	"github.com/olegiv/seniorid/internal/service"
	"github.com/olegiv/seniorid/internal/session"
	"github.com/olegiv/seniorid/internal/store"
	"github.com/olegiv/seniorid/internal/transfer"
	"github.com/olegiv/seniorid/internal/util"
	"github.com/olegiv/seniorid/internal/version"
	"github.com/olegiv/seniorid/internal/webhook"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	backupPath := flag.String("backup", "", "Write a backup to `FILE` and exit (.zip for a zip archive)")
	restorePath := flag.String("restore", "", "Restore the backup in `FILE` and exit, replacing all data")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "SeniorID - senior citizen registry\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_DB_PATH           SQLite database path (default: ./data/seniorid.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_PUBLIC_URL        Base URL encoded in ID card QR codes\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_REDIS_URL         Redis URL for the settings cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_WEBHOOK_URLS      Comma-separated webhook endpoints (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_BACKUP_SCHEDULE   Cron schedule for backups (default: 0 2 * * *)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SENIORID_GEOIP_DB_PATH     GeoLite2-Country database for login audit entries (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info, *backupPath, *restorePath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info, backupPath, restorePath string) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR logs also go to the audit log.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	events := service.NewEventService(db, logger)

	countries, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip lookups disabled", "error", err)
		countries, _ = geoip.Open("")
	}
	defer func() { _ = countries.Close() }()
	events.SetCountryLookup(countries)
	exporter := transfer.NewExporter(db, logger)
	importer := transfer.NewImporter(db, logger)
	importer.SetAuditLogger(events)

	ctx := context.Background()

	switch {
	case backupPath != "":
		return runBackup(ctx, exporter, backupPath)
	case restorePath != "":
		return runRestore(ctx, importer, restorePath)
	}

	settingsCache := cache.New(ctx, cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      time.Duration(cfg.CacheTTL) * time.Second,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = settingsCache.Close() }()

	sessionManager := session.New(db, cfg.SessionLifetime, 5*time.Minute, cfg.IsDevelopment())

	var notifier registry.Notifier
	if cfg.WebhooksEnabled() {
		hooks := make([]model.Webhook, 0, len(cfg.WebhookURLs))
		for _, u := range cfg.WebhookURLs {
			if !cfg.WebhookAllowPrivate {
				if err := util.ValidateOutboundURL(ctx, u); err != nil {
					slog.Warn("skipping webhook endpoint", "url", u, "error", err)
					continue
				}
			}
			hooks = append(hooks, model.Webhook{URL: u, Secret: cfg.WebhookSecret, Events: cfg.WebhookEvents})
		}
		dispatcher := webhook.NewDispatcher(hooks, logger, webhook.Config{
			Workers:              cfg.WebhookWorkers,
			QueueSize:            webhook.DefaultConfig().QueueSize,
			UserAgent:            info.UserAgent(),
			AllowPrivateNetworks: cfg.WebhookAllowPrivate,
		})
		dispatcher.Start(ctx)
		defer dispatcher.Stop()

		debounce := webhook.DefaultDebounceConfig()
		if cfg.WebhookDebounceDelay > 0 {
			debounce.Interval = cfg.WebhookDebounceDelay
			debounce.MaxWait = max(debounce.MaxWait, 2*cfg.WebhookDebounceDelay)
		}
		debouncer := webhook.NewDebouncer(dispatcher, debounce)
		// Stops before the dispatcher so pending events are flushed into it.
		defer debouncer.Stop()

		notifier = debouncer
		slog.Info("webhook dispatcher initialized", "endpoints", len(hooks))
	}

	reg := registry.New(db, registry.Config{
		Sessions:    session.NewSlot(sessionManager),
		Cache:       settingsCache,
		SettingsTTL: time.Duration(cfg.CacheTTL) * time.Second,
		Events:      events,
		Notifier:    notifier,
		Images:      imaging.NewProcessor(),
		Logger:      logger,
	})

	importer.OnRestore(func(ctx context.Context) {
		reg.InvalidateSettings(ctx)
		if notifier != nil {
			notifier.Dispatch(ctx, model.EventDataRestored, map[string]string{"actor": registry.ActorFromContext(ctx)})
		}
	})

	sched := scheduler.New(logger)
	if cfg.BackupSchedule != "" {
		if err := sched.AddJob(scheduler.JobBackup, "Write a zip backup to "+cfg.BackupDir, cfg.BackupSchedule,
			scheduler.BackupJob(exporter, cfg.BackupDir, cfg.BackupRetention, logger)); err != nil {
			return fmt.Errorf("scheduling backups: %w", err)
		}
	}
	if cfg.EventRetentionDays > 0 && cfg.EventPruneSchedule != "" {
		if err := sched.AddJob(scheduler.JobPruneEvents, "Delete audit events older than the retention period", cfg.EventPruneSchedule,
			scheduler.PruneEventsJob(events, cfg.EventRetentionDays, logger)); err != nil {
			return fmt.Errorf("scheduling event pruning: %w", err)
		}
	}
	if countries.Enabled() && cfg.GeoIPReloadSchedule != "" {
		if err := sched.AddJob(scheduler.JobReloadGeoIP, "Reload the GeoIP database if it changed", cfg.GeoIPReloadSchedule,
			scheduler.ReloadJob(countries)); err != nil {
			return fmt.Errorf("scheduling geoip reload: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	login := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer login.Stop()

	var cachePinger handler.Pinger
	if p, ok := settingsCache.(handler.Pinger); ok {
		cachePinger = p
	}

	csrf := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret)[:32], cfg.PublicURL, cfg.IsDevelopment())

	router := api.NewRouter(api.RouterConfig{
		Handler: api.NewHandler(api.Config{
			Registry:  reg,
			Exporter:  exporter,
			Importer:  importer,
			Jobs:      sched,
			Login:     login,
			Events:    events,
			PublicURL: cfg.PublicURL,
			Logger:    logger,
		}),
		Health:         handler.NewHealthHandler(db, cachePinger, cfg.BackupDir, info),
		Sessions:       sessionManager,
		Events:         events,
		CSRF:           &csrf,
		IsDev:          cfg.IsDevelopment(),
		AccessLog:      true,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runBackup(ctx context.Context, exporter *transfer.Exporter, path string) error {
	if err := exporter.ExportToFile(ctx, path); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	slog.Info("backup written", "path", path)
	return nil
}

func runRestore(ctx context.Context, importer *transfer.Importer, path string) error {
	result, err := importer.RestoreFromFile(ctx, path, transfer.ImportOptions{})
	if result != nil {
		for _, e := range result.Errors {
			slog.Error("backup record rejected", "entity", e.Entity, "id", e.ID, "error", e.Message)
		}
	}
	if err != nil {
		return fmt.Errorf("restoring backup: %w", err)
	}
	slog.Info("backup restored", "path", path, "records", result.Total(), "legacy", result.Legacy)
	return nil
}
