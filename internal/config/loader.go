// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package config

import (
	"errors"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "TEAMFORGE_"

// Defaults returns the compiled-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"log.format":                 "json",
		"log.level":                  "info",
		"http.addr":                  "127.0.0.1:8080",
		"http.shutdown_timeout":      "10s",
		"http.trust_proxy":           false,
		"metrics.addr":               "127.0.0.1:9100",
		"database.url":               "",
		"database.connect_timeout":   "30s",
		"store.driver":               DriverPostgres,
		"auth.signing_secret":        "",
		"auth.issuer":                "teamforge",
		"auth.access_token_ttl":      "15m",
		"auth.refresh_token_ttl":     "720h",
		"auth.login_rate_per_minute": 10,
	}
}

// keys lists every recognised key. Environment variables are matched
// against it because keys contain underscores themselves.
var keys = func() map[string]string {
	m := make(map[string]string)
	for k := range Defaults() {
		m[EnvPrefix+strings.ToUpper(strings.NewReplacer(".", "_").Replace(k))] = k
	}
	return m
}()

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"log-format":    "log.format",
	"log-level":     "log.level",
	"http-addr":     "http.addr",
	"metrics-addr":  "metrics.addr",
	"database-url":  "database.url",
	"store-driver":  "store.driver",
	"auth-issuer":   "auth.issuer",
	"access-ttl":    "auth.access_token_ttl",
	"refresh-ttl":   "auth.refresh_token_ttl",
	"login-rate":    "auth.login_rate_per_minute",
	"shutdown-wait": "http.shutdown_timeout",
	"trust-proxy":   "http.trust_proxy",
}

// RegisterFlags adds the overridable settings to fs. Flag defaults are
// empty; unset flags never shadow lower layers.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log-format", "", "log format (json or text)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("http-addr", "", "API listen address")
	fs.String("metrics-addr", "", "metrics/health listen address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("store-driver", "", "persistence driver (postgres or memory)")
	fs.String("auth-issuer", "", "access token issuer")
	fs.Duration("access-ttl", 0, "access token lifetime")
	fs.Duration("refresh-ttl", 0, "refresh token lifetime")
	fs.Int("login-rate", 0, "login attempts per minute per client IP (0 = unlimited)")
	fs.Duration("shutdown-wait", 0, "graceful shutdown timeout")
	fs.Bool("trust-proxy", false, "take client addresses from X-Forwarded-For/X-Real-IP")
}

// Options select the optional sources.
type Options struct {
	// File is a YAML file path. Empty skips the file layer.
	File string
	// Flags are parsed command line flags registered with RegisterFlags.
	Flags *pflag.FlagSet
	// Environ defaults to os.Environ.
	Environ func() []string
}

// Load resolves and validates the configuration.
func Load(opts Options) (*Config, error) {
	cfg, err := Resolve(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve merges all sources without validating the result, for commands
// that only need part of the configuration.
func Resolve(opts Options) (*Config, error) {
	ko := koanf.New(".")

	if err := ko.Load(mapProvider(Defaults()), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if opts.File != "" {
		if err := ko.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file", "path", opts.File).Wrap(err)
		}
	}

	if err := ko.Load(envProvider(opts.Environ), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		cb := func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}
		if err := ko.Load(posflag.ProviderWithFlag(opts.Flags, ".", ko, cb), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := ko.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// envProvider reads TEAMFORGE_* variables from environ. Unknown variables
// are ignored.
func envProvider(environ func() []string) koanf.Provider {
	if environ == nil {
		return env.Provider(EnvPrefix, ".", func(s string) string { return keys[s] })
	}
	m := make(map[string]any)
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if key, known := keys[name]; known {
			m[key] = value
		}
	}
	return mapProvider(m)
}

var errReadBytes = errors.New("map provider does not support ReadBytes")

// mapProvider loads a flat dotted-key map.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) { return nil, errReadBytes }

func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		setNested(out, strings.Split(k, "."), v)
	}
	return out, nil
}

func setNested(m map[string]any, path []string, v any) {
	if len(path) == 1 {
		m[path[0]] = v
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		m[path[0]] = child
	}
	setNested(child, path[1:], v)
}

