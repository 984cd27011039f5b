// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDir_EnvVar(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/teamforge", got)
}

func TestConfigDir_Default(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/testuser")
	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/testuser/.config/teamforge", got)
}

func TestDefaultConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	got, err := DefaultConfigFile()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/teamforge/config.yaml", got)
}

func TestFindConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	_, ok := FindConfigFile()
	assert.False(t, ok, "missing file")

	dir := filepath.Join(base, appName)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, configFileName), 0o700))
	_, ok = FindConfigFile()
	assert.False(t, ok, "directory is not a config file")

	require.NoError(t, os.Remove(filepath.Join(dir, configFileName)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("log:\n  level: debug\n"), 0o600))
	got, ok := FindConfigFile()
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, configFileName), got)
}
