// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package web exposes the authentication use cases over HTTP.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/internal/observability"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/result"
)

// AuthService is the subset of auth.Service the HTTP boundary needs.
type AuthService interface {
	Login(ctx context.Context, req auth.LoginRequest) result.Result[auth.TokenPair, *domainerr.Error]
	RefreshToken(ctx context.Context, req auth.RefreshRequest) result.Result[auth.TokenPair, *domainerr.Error]
	Logout(ctx context.Context, tokenID id.RefreshTokenID) result.Result[struct{}, *domainerr.Error]
	VerifySession(ctx context.Context, accessToken string) result.Result[bool, *domainerr.Error]
}

var _ AuthService = (*auth.Service)(nil)

// RouterDeps are the collaborators of NewRouter.
type RouterDeps struct {
	Auth AuthService

	// LoginLimiter throttles POST /v1/auth/login. Nil disables throttling.
	LoginLimiter *RateLimiter

	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Off, the socket peer address is used.
	TrustProxy bool

	// Metrics are optional.
	Metrics *observability.Metrics

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewRouter builds the API router.
//
// Middleware order: RequestID → RealIP (when TrustProxy) → access
// log/metrics → recovery.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{auth: deps.Auth, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(accessLog(logger, deps.Metrics))
	r.Use(recovery(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, logger, domainerr.NotFound("route", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, logger, domainerr.Validation("method", r.Method, "method not allowed"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.LoginLimiter != nil {
			r.With(deps.LoginLimiter.Middleware).Post("/login", h.login)
		} else {
			r.Post("/login", h.login)
		}
		r.Post("/refresh", h.refresh)
		r.Post("/logout", h.logout)
		r.Get("/session", h.session)
	})

	return r
}
