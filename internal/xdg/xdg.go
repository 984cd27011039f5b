// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package xdg resolves XDG Base Directory paths for TeamForge.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "teamforge"

// configFileName is looked up inside ConfigDir.
const configFileName = "config.yaml"

// ConfigDir returns the XDG config directory for teamforge.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", oops.Code("XDG_HOME_UNKNOWN").Wrap(err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigFile returns the path of the per-user config file, whether
// or not it exists.
func DefaultConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// FindConfigFile returns DefaultConfigFile when it names a regular file.
func FindConfigFile() (string, bool) {
	path, err := DefaultConfigFile()
	if err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}
