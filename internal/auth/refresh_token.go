// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/result"
)

// Refresh token configuration.
const (
	RefreshTokenBytes      = 32 // 64 hex chars on the wire
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// RefreshToken is a long-lived, single-use credential exchanged for a new
// access token and a replacement refresh token.
//
// A token moves from issued to exactly one of expired, rotated or revoked.
// Rotation and revocation both delete the record; a deleted token can no
// longer be found and is rejected as invalid.
type RefreshToken struct {
	ID        id.RefreshTokenID
	UserID    id.UserID
	TokenHash string

	// Secret is the opaque value handed to the client. Only set on tokens
	// returned from NewRefreshToken; stores never persist or return it.
	Secret string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewRefreshToken creates a token for userID issued at now and valid for ttl.
func NewRefreshToken(userID id.UserID, now time.Time, ttl time.Duration) result.Result[*RefreshToken, *domainerr.Error] {
	if userID.IsZero() {
		return result.Err[*RefreshToken](domainerr.Validation("user", "", "user id cannot be empty"))
	}
	if ttl <= 0 {
		return result.Err[*RefreshToken](domainerr.Validation("ttl", ttl.String(), "refresh token ttl must be positive"))
	}

	secret, hash, err := generateSecret(RefreshTokenBytes)
	if err != nil {
		return result.Err[*RefreshToken](domainerr.Internal(CodeEntropyFailed, err))
	}

	return result.Ok[*RefreshToken, *domainerr.Error](&RefreshToken{
		ID:        id.Random[id.RefreshToken](),
		UserID:    userID,
		TokenHash: hash,
		Secret:    secret,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
}

// IsExpiredAt reports whether the token is expired at now. A token whose
// expiry equals now is already expired.
func (t *RefreshToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// HashRefreshToken computes the SHA256 hash stored in place of a secret.
func HashRefreshToken(secret string) string {
	return hashSecret(secret)
}

// VerifyRefreshToken checks if the plaintext secret matches the stored hash
// using a constant-time comparison.
func VerifyRefreshToken(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hashSecret(secret)), []byte(hash)) == 1
}

// generateSecret creates a random hex secret of n bytes and its hash.
func generateSecret(n int) (secret, hash string, err error) {
	b := make([]byte, n)
	if _, err = rand.Read(b); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", n).
			Wrap(err)
	}
	secret = hex.EncodeToString(b)
	return secret, hashSecret(secret), nil
}

func hashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}
