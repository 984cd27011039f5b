// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
)

func TestGenerateResetToken(t *testing.T) {
	token1, hash1, err := auth.GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, token1, 64)
	assert.Len(t, hash1, 64)
	assert.NotEqual(t, token1, hash1)

	token2, hash2, err := auth.GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token1, token2)
	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyResetToken(t *testing.T) {
	token, hash, err := auth.GenerateResetToken()
	require.NoError(t, err)

	assert.True(t, auth.VerifyResetToken(token, hash))
	assert.False(t, auth.VerifyResetToken("wrong", hash))
	assert.False(t, auth.VerifyResetToken("", hash))
	assert.False(t, auth.VerifyResetToken(token, ""))
}

func TestNewPasswordReset(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	userID := id.Random[id.User]()

	t.Run("valid", func(t *testing.T) {
		r, err := auth.NewPasswordReset(userID, "hash", now.Add(time.Hour), now).Unpack()
		require.NoError(t, err)
		assert.False(t, r.ID.IsZero())
		assert.Equal(t, userID, r.UserID)
		assert.Equal(t, now, r.CreatedAt)
		assert.False(t, r.IsExpiredAt(now))
		assert.True(t, r.IsExpiredAt(now.Add(time.Hour)))
	})

	tests := []struct {
		name      string
		userID    id.UserID
		hash      string
		expiresAt time.Time
		field     string
	}{
		{name: "zero user", hash: "hash", expiresAt: now.Add(time.Hour), field: "user"},
		{name: "empty hash", userID: userID, expiresAt: now.Add(time.Hour), field: "token_hash"},
		{name: "past expiry", userID: userID, hash: "hash", expiresAt: now, field: "expires_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, isErr := auth.NewPasswordReset(tt.userID, tt.hash, tt.expiresAt, now).Error()
			require.True(t, isErr)
			assert.Equal(t, tt.field, e.Metadata()["field"])
		})
	}
}
