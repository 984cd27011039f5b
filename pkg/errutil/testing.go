// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamforge/teamforge/pkg/domainerr"
)

// AssertErrorCode asserts that err carries the given code, either as a
// domain error or as an oops error.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	if de, ok := domainerr.As(err); ok {
		assert.Equal(t, code, de.Code())
		return
	}
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected domain or oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertCategory asserts that err is a domain error of category c.
func AssertCategory(t *testing.T, err error, c domainerr.Category) {
	t.Helper()
	de, ok := domainerr.As(err)
	require.True(t, ok, "expected domain error, got %T", err)
	assert.Equal(t, c, de.Category())
}
