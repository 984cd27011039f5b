// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teamforge/teamforge/internal/config"
	"github.com/teamforge/teamforge/internal/logging"
	"github.com/teamforge/teamforge/internal/xdg"
)

// serviceName tags every log record.
const serviceName = "teamforge"

// NewRootCmd creates the root command for the TeamForge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teamforge",
		Short: "TeamForge - team workspace identity service",
		Long: `TeamForge authenticates users and issues short-lived access tokens
backed by single-use, rotating refresh tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: XDG_CONFIG_HOME/teamforge/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewTokensCmd())
	cmd.AddCommand(NewUsersCmd())

	return cmd
}

// configOptions uses --config when given, else the per-user config file
// if one exists.
func configOptions(cmd *cobra.Command) config.Options {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}
	if path == "" {
		path, _ = xdg.FindConfigFile()
	}
	return config.Options{File: path, Flags: cmd.Flags()}
}

// loadConfig resolves and validates the full configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configOptions(cmd))
}

// setupLogging installs the configured handler as the slog default.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	return logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
}
