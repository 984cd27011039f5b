// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/auth/accesstoken"
	"github.com/teamforge/teamforge/internal/auth/memstore"
	"github.com/teamforge/teamforge/internal/auth/postgres"
	"github.com/teamforge/teamforge/internal/config"
	"github.com/teamforge/teamforge/internal/store"
)

// readinessTimeout bounds the database ping behind /healthz/readiness.
const readinessTimeout = 2 * time.Second

// ports groups the storage implementations selected by store.driver.
type ports struct {
	users  auth.UserRepository
	tokens auth.RefreshTokenStore
	resets auth.PasswordResetRepository
	tx     auth.Transactor
	ready  func() bool
	close  func()
}

// app holds the wired services of one process.
type app struct {
	auth     *auth.Service
	rotation *auth.RotationService
	resets   *auth.PasswordResetService
	users    auth.UserRepository
	ready    func() bool
	close    func()
}

// openPorts connects the storage selected by cfg.Store.Driver.
func openPorts(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*ports, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		db := memstore.New()
		logger.Warn("using in-memory store; all data is lost on exit")
		return &ports{
			users:  db.Users(),
			tokens: db.Tokens(),
			resets: db.Resets(),
			tx:     db,
			ready:  func() bool { return true },
			close:  func() {},
		}, nil

	case config.DriverPostgres:
		opts := store.DefaultConnectOptions
		opts.Timeout = cfg.Database.ConnectTimeout
		opts.Logger = logger
		pool, err := store.Connect(ctx, cfg.Database.URL, opts)
		if err != nil {
			return nil, err
		}
		return &ports{
			users:  postgres.NewUserRepository(pool),
			tokens: postgres.NewRefreshTokenRepository(pool),
			resets: postgres.NewPasswordResetRepository(pool),
			tx:     postgres.NewTransactor(pool),
			ready: func() bool {
				pingCtx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
				defer cancel()
				return pool.Ping(pingCtx) == nil
			},
			close: pool.Close,
		}, nil

	default:
		return nil, oops.Code("CONFIG_INVALID").With("key", "store.driver").
			Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newApp wires the auth services on top of p.
func newApp(cfg *config.Config, p *ports, logger *slog.Logger) (*app, error) {
	rotation, err := auth.NewRotationService(p.tokens, p.tx, nil, cfg.Auth.RefreshTokenTTL, logger)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewArgon2idHasher()
	svc, err := auth.NewService(auth.Deps{
		Users:          p.users,
		Rotation:       rotation,
		Hasher:         hasher,
		Signer:         accesstoken.New(cfg.Auth.Issuer),
		SigningSecret:  []byte(cfg.Auth.SigningSecret),
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	resets, err := auth.NewPasswordResetService(p.users, p.resets, hasher, rotation, nil, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		auth:     svc,
		rotation: rotation,
		resets:   resets,
		users:    p.users,
		ready:    p.ready,
		close:    p.close,
	}, nil
}

// openApp connects storage and wires the services. The caller must call
// close on the result.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	p, err := openPorts(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, p, logger)
	if err != nil {
		p.close()
		return nil, err
	}
	return a, nil
}
