// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"BLOGO_DB_PATH" envDefault:"./data/blogo.db"`
	SessionSecret string `env:"BLOGO_SESSION_SECRET,required"`
	ServerHost    string `env:"BLOGO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"BLOGO_SERVER_PORT" envDefault:"8080"`
	BaseURL       string `env:"BLOGO_BASE_URL" envDefault:"http://localhost:8080"`
	Env           string `env:"BLOGO_ENV" envDefault:"development"`
	LogLevel      string `env:"BLOGO_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"BLOGO_UPLOADS_DIR" envDefault:"./uploads"`

	// Cache configuration
	RedisURL    string `env:"BLOGO_REDIS_URL"`                       // Optional Redis URL for distributed caching
	CachePrefix string `env:"BLOGO_CACHE_PREFIX" envDefault:"blogo:"` // Redis key prefix
	CacheTTL    int    `env:"BLOGO_CACHE_TTL" envDefault:"3600"`     // Default cache TTL in seconds

	// Mail configuration. Mail is disabled when SMTPHost is empty; sends
	// are then logged instead of delivered.
	SMTPHost     string `env:"BLOGO_SMTP_HOST"`
	SMTPPort     int    `env:"BLOGO_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"BLOGO_SMTP_USERNAME"`
	SMTPPassword string `env:"BLOGO_SMTP_PASSWORD"`
	MailSender   string `env:"BLOGO_MAIL_SENDER" envDefault:"Blogo <blogo@example.com>"`

	// Administrator bootstrap. When AdminEmail is set an administrator
	// account is ensured on startup; AdminEmail also receives
	// contact-form mail.
	AdminEmail    string `env:"BLOGO_ADMIN_EMAIL"`
	AdminPassword string `env:"BLOGO_ADMIN_PASSWORD"`

	// Pagination sizes
	PostsPerPage     int `env:"BLOGO_POSTS_PER_PAGE" envDefault:"9"`
	CommentsPerPage  int `env:"BLOGO_COMMENTS_PER_PAGE" envDefault:"10"`
	FollowersPerPage int `env:"BLOGO_FOLLOWERS_PER_PAGE" envDefault:"10"`
	UsersPerPage     int `env:"BLOGO_USERS_PER_PAGE" envDefault:"9"`

	// Seeding configuration
	DoSeed bool `env:"BLOGO_DO_SEED" envDefault:"false"` // Enable demo data seeding
}

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

// MailEnabled returns true if SMTP delivery is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("BLOGO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("BLOGO_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		return nil, fmt.Errorf("BLOGO_ADMIN_PASSWORD is required when BLOGO_ADMIN_EMAIL is set")
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("BLOGO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
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
