// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"crypto/subtle"
	"time"

	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/result"
)

// Reset token configuration.
const (
	ResetTokenBytes  = 32 // 64 hex chars
	ResetTokenExpiry = time.Hour
)

// PasswordReset represents a password reset request.
type PasswordReset struct {
	ID        id.PasswordResetID
	UserID    id.UserID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewPasswordReset creates a validated PasswordReset.
func NewPasswordReset(userID id.UserID, tokenHash string, expiresAt, now time.Time) result.Result[*PasswordReset, *domainerr.Error] {
	if userID.IsZero() {
		return result.Err[*PasswordReset](domainerr.Validation("user", "", "user id cannot be empty"))
	}
	if tokenHash == "" {
		return result.Err[*PasswordReset](domainerr.Validation("token_hash", "", "token hash cannot be empty"))
	}
	if !expiresAt.After(now) {
		return result.Err[*PasswordReset](domainerr.Validation("expires_at", expiresAt.Format(time.RFC3339), "expiry must be in the future"))
	}
	return result.Ok[*PasswordReset, *domainerr.Error](&PasswordReset{
		ID:        id.Random[id.PasswordReset](),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})
}

// IsExpiredAt reports whether the reset is expired at now.
func (r *PasswordReset) IsExpiredAt(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// GenerateResetToken creates a secure random token and its hash.
// The plaintext token is sent to the user; the hash is stored.
func GenerateResetToken() (token, hash string, err error) {
	return generateSecret(ResetTokenBytes)
}

// VerifyResetToken checks if the plaintext token matches the stored hash
// using a constant-time comparison.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hashSecret(token)), []byte(hash)) == 1
}
