// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the server configuration from SENIORID_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"DB_PATH" envDefault:"./data/seniorid.db"`
	SessionSecret string `env:"SESSION_SECRET,required"`
	ServerHost    string `env:"SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	Env           string `env:"ENV" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// PublicURL is the externally visible base URL. QR codes on ID cards
	// encode <PublicURL>/verify/<id>.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"12h"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`

	// Cache configuration
	RedisURL    string `env:"REDIS_URL"`                           // Optional Redis URL for the settings cache
	CachePrefix string `env:"CACHE_PREFIX" envDefault:"seniorid:"` // Redis key prefix
	CacheTTL    int    `env:"CACHE_TTL" envDefault:"3600"`         // Settings cache TTL in seconds

	// Webhook configuration
	WebhookURLs          []string      `env:"WEBHOOK_URLS" envSeparator:","`
	WebhookSecret        string        `env:"WEBHOOK_SECRET"`
	WebhookEvents        []string      `env:"WEBHOOK_EVENTS" envSeparator:","` // Empty subscribes to all events
	WebhookWorkers       int           `env:"WEBHOOK_WORKERS" envDefault:"3"`
	WebhookAllowPrivate  bool          `env:"WEBHOOK_ALLOW_PRIVATE" envDefault:"false"`
	WebhookDebounceDelay time.Duration `env:"WEBHOOK_DEBOUNCE" envDefault:"2s"`

	// Maintenance jobs
	BackupDir          string `env:"BACKUP_DIR" envDefault:"./data/backups"`
	BackupSchedule     string `env:"BACKUP_SCHEDULE" envDefault:"0 2 * * *"` // Empty disables scheduled backups
	BackupRetention    int    `env:"BACKUP_RETENTION" envDefault:"14"`
	EventRetentionDays int    `env:"EVENT_RETENTION_DAYS" envDefault:"90"`
	EventPruneSchedule string `env:"EVENT_PRUNE_SCHEDULE" envDefault:"30 3 * * *"`

	// GeoIP tagging of login events
	GeoIPDBPath         string `env:"GEOIP_DB_PATH"` // GeoLite2-Country .mmdb file; empty disables lookups
	GeoIPReloadSchedule string `env:"GEOIP_RELOAD_SCHEDULE" envDefault:"0 4 * * 0"`
}

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "SENIORID_"

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// WebhooksEnabled returns true if at least one webhook URL is configured.
func (c Config) WebhooksEnabled() bool {
	return len(c.WebhookURLs) > 0
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn(EnvPrefix + "SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("%sSESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			EnvPrefix, MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New(EnvPrefix + "SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("%sSERVER_PORT must be between 1 and 65535, got %d", EnvPrefix, c.ServerPort)
	}

	u, err := url.Parse(c.PublicURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%sPUBLIC_URL must be an absolute http(s) URL, got %q", EnvPrefix, c.PublicURL)
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")

	if c.WebhooksEnabled() && c.WebhookSecret == "" {
		return errors.New(EnvPrefix + "WEBHOOK_SECRET is required when webhook URLs are configured")
	}
	if c.BackupRetention < 0 {
		return fmt.Errorf("%sBACKUP_RETENTION must not be negative", EnvPrefix)
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
