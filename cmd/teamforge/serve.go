// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/observability"
	"github.com/teamforge/teamforge/internal/web"
	"github.com/teamforge/teamforge/pkg/domainerr"
)

// readHeaderTimeout bounds how long a client may take to send headers.
const readHeaderTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var bootstrap string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API together with the metrics and health server.
The process shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, bootstrap)
		},
	}

	cmd.Flags().StringVar(&bootstrap, "bootstrap-admin", "",
		"create an admin user at startup, as username:password (for the memory driver)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, bootstrap string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting teamforge",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"store_driver", cfg.Store.Driver,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return oops.Code("SERVE_INIT_FAILED").With("operation", "open app").Wrap(err)
	}
	defer a.close()

	if bootstrap != "" {
		if err := bootstrapAdmin(ctx, a.auth, bootstrap, logger); err != nil {
			return err
		}
	}

	var (
		obsServer *observability.Server
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, a.ready)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVE_INIT_FAILED").With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	var limiter *web.RateLimiter
	if cfg.Auth.LoginRatePerMinute > 0 {
		limiter = web.NewRateLimiter(cfg.Auth.LoginRatePerMinute, logger)
		defer limiter.Stop()
	}

	httpServer := &http.Server{
		Handler: web.NewRouter(web.RouterDeps{
			Auth:         a.auth,
			LoginLimiter: limiter,
			TrustProxy:   cfg.HTTP.TrustProxy,
			Metrics:      metrics,
			Logger:       logger,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	listener, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("SERVE_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpErrChan := make(chan error, 1)
	go func() {
		defer close(httpErrChan)
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			httpErrChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("TeamForge API listening on", listener.Addr().String())
	logger.Info("teamforge ready", "http_addr", listener.Addr().String())

	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-httpErrChan:
		if ok {
			serveErr = oops.Code("SERVE_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	stopObservability(obsServer, logger)

	logger.Info("shutdown complete")
	return serveErr
}

func stopObservability(s *observability.Server, logger *slog.Logger) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}
}

// bootstrapAdmin registers the admin described by spec ("user:password").
// An existing user with that name is left untouched.
func bootstrapAdmin(ctx context.Context, svc *auth.Service, spec string, logger *slog.Logger) error {
	username, password, ok := strings.Cut(spec, ":")
	if !ok || username == "" || password == "" {
		return oops.Code("CONFIG_INVALID").With("flag", "bootstrap-admin").
			Errorf("bootstrap admin must be username:password")
	}

	_, err := svc.Register(ctx, auth.RegisterRequest{
		Username: username,
		Password: password,
		Role:     auth.RoleAdmin,
	}).Unpack()
	switch {
	case err == nil:
		logger.Info("bootstrap admin created", "username", username)
	case domainerr.CategoryOf(err) == domainerr.CategoryDuplicated:
		logger.Info("bootstrap admin already exists", "username", username)
	default:
		return oops.Code("SERVE_INIT_FAILED").With("operation", "bootstrap admin").Wrap(err)
	}
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
