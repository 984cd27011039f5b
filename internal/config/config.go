// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package config loads TeamForge settings.
//
// Sources are layered with koanf, later ones winning: compiled defaults, an
// optional YAML file, TEAMFORGE_* environment variables and finally command
// line flags that were explicitly set.
package config

import (
	"time"

	"github.com/samber/oops"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// MinSigningSecretBytes mirrors the requirement of the auth service.
const MinSigningSecretBytes = 32

// Config is the fully resolved configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Auth     AuthConfig     `koanf:"auth"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// TrustProxy enables proxy headers as the client address. Only set it
	// behind a proxy that overwrites them.
	TrustProxy bool `koanf:"trust_proxy"`
}

// MetricsConfig controls the metrics and health listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig points at PostgreSQL.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string `koanf:"driver"`
}

// AuthConfig holds token and login settings.
type AuthConfig struct {
	SigningSecret      string        `koanf:"signing_secret"`
	Issuer             string        `koanf:"issuer"`
	AccessTokenTTL     time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `koanf:"refresh_token_ttl"`
	LoginRatePerMinute int           `koanf:"login_rate_per_minute"`
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	errb := oops.Code("CONFIG_INVALID")

	switch c.Log.Format {
	case "json", "text":
	default:
		return errb.With("key", "log.format").Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.HTTP.Addr == "" {
		return errb.With("key", "http.addr").Errorf("http address is required")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return errb.With("key", "http.shutdown_timeout").Errorf("shutdown timeout must be positive")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			return errb.With("key", "database.url").Errorf("database url is required for the postgres driver")
		}
		if c.Database.ConnectTimeout <= 0 {
			return errb.With("key", "database.connect_timeout").Errorf("connect timeout must be positive")
		}
	default:
		return errb.With("key", "store.driver").Errorf("unknown store driver %q", c.Store.Driver)
	}

	if len(c.Auth.SigningSecret) < MinSigningSecretBytes {
		return errb.With("key", "auth.signing_secret", "min_bytes", MinSigningSecretBytes).
			Errorf("signing secret is too short")
	}
	if c.Auth.Issuer == "" {
		return errb.With("key", "auth.issuer").Errorf("issuer is required")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return errb.With("key", "auth.access_token_ttl").Errorf("access token ttl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return errb.With("key", "auth.refresh_token_ttl").Errorf("refresh token ttl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return errb.With("key", "auth.refresh_token_ttl").Errorf("refresh token ttl must exceed access token ttl")
	}
	if c.Auth.LoginRatePerMinute < 0 {
		return errb.With("key", "auth.login_rate_per_minute").Errorf("login rate cannot be negative")
	}
	return nil
}
