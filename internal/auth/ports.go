// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"context"
	"time"

	"github.com/teamforge/teamforge/internal/id"
)

// RefreshTokenStore manages refresh token persistence. Tokens are looked up
// by the hash of their secret; the secret itself is never stored.
type RefreshTokenStore interface {
	// FindByTokenHash returns the token with the given hash, or ErrNotFound.
	FindByTokenHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Insert stores a new token. Returns ErrDuplicate on an id or hash clash.
	Insert(ctx context.Context, token *RefreshToken) error

	// DeleteByID removes a token and reports how many rows were removed.
	// Rotation relies on this count being truthful: zero means another
	// request already consumed the token.
	DeleteByID(ctx context.Context, tokenID id.RefreshTokenID) (int64, error)

	// DeleteByUser removes every token belonging to a user.
	DeleteByUser(ctx context.Context, userID id.UserID) (int64, error)

	// DeleteExpired removes tokens whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Transactor runs fn atomically. Store calls made with the context handed to
// fn take part in the transaction; a non-nil return rolls it back.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicate if the username or
	// email is taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, userID id.UserID) (*User, error)

	// GetByUsername retrieves a user by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists lockout bookkeeping, role and password hash.
	Update(ctx context.Context, user *User) error

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, userID id.UserID, passwordHash string) error
}

// PasswordResetRepository manages password reset persistence.
type PasswordResetRepository interface {
	// Create stores a new password reset request.
	Create(ctx context.Context, reset *PasswordReset) error

	// GetByTokenHash retrieves a reset request by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*PasswordReset, error)

	// DeleteByUser removes all reset requests for a user.
	DeleteByUser(ctx context.Context, userID id.UserID) (int64, error)

	// DeleteExpired removes reset requests whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces an encoded hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash should be re-encoded.
	NeedsUpgrade(hash string) bool
}

// Claims is what an access token asserts about its bearer.
type Claims struct {
	UserID id.UserID
	Role   Role
}

// TokenSigner mints and checks access tokens.
type TokenSigner interface {
	// Sign returns a token for claims valid for ttl, and its expiry.
	Sign(claims Claims, secret []byte, ttl time.Duration) (string, time.Time, error)

	// Verify checks signature and expiry. Tokens that fail either check
	// produce an error wrapping ErrInvalidAccessToken; any other error means
	// the signer itself could not do its job.
	Verify(token string, secret []byte) (Claims, error)
}
