// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/teamforge/teamforge/internal/config"
)

// NewTokensCmd creates the tokens command.
func NewTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain stored tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge-expired",
		Short: "Delete expired refresh tokens and password reset requests",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			tokens, err := a.rotation.PurgeExpired(ctx).Unpack()
			if err != nil {
				return err
			}
			resets, err := a.resets.PurgeExpired(ctx).Unpack()
			if err != nil {
				return err
			}
			cmd.Printf("Purged %d refresh token(s) and %d password reset(s)\n", tokens, resets)
			return nil
		}),
	})

	return cmd
}

// withApp loads the configuration, wires the services and runs fn.
// Maintenance commands are meaningless against a fresh in-memory store, so
// they require the postgres driver.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Store.Driver != config.DriverPostgres {
			return oops.Code("CONFIG_INVALID").With("key", "store.driver").
				Errorf("%s requires the postgres store driver", cmd.CommandPath())
		}
		logger, err := setupLogging(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, cmd, a, args)
	}
}
