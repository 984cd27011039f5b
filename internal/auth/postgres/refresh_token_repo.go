// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
)

// RefreshTokenRepository implements auth.RefreshTokenStore using PostgreSQL.
type RefreshTokenRepository struct {
	pool Pool
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(pool Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

// FindByTokenHash retrieves a token by the hash of its secret.
func (r *RefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, token_hash, issued_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash)

	token, err := scanRefreshToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REFRESH_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REFRESH_TOKEN_FIND_FAILED").
			With("operation", "find refresh token by hash").
			Wrap(err)
	}
	return token, nil
}

// Insert stores a new token. The plaintext secret is not persisted.
func (r *RefreshTokenRepository) Insert(ctx context.Context, token *auth.RefreshToken) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		token.ID.String(),
		token.UserID.String(),
		token.TokenHash,
		token.IssuedAt,
		token.ExpiresAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("REFRESH_TOKEN_DUPLICATE").
			With("id", token.ID.String()).
			Wrap(auth.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("REFRESH_TOKEN_INSERT_FAILED").
			With("operation", "insert refresh token").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return nil
}

// DeleteByID removes a token and reports how many rows were removed.
func (r *RefreshTokenRepository) DeleteByID(ctx context.Context, tokenID id.RefreshTokenID) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, tokenID.String())
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_DELETE_FAILED").
			With("operation", "delete refresh token").
			With("id", tokenID.String()).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByUser removes every token belonging to a user.
func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID id.UserID) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID.String())
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_DELETE_BY_USER_FAILED").
			With("operation", "delete refresh tokens by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteExpired removes tokens whose expiry is at or before now.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired refresh tokens").
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// scanRefreshToken scans a single row into a RefreshToken.
// Callers are responsible for handling pgx.ErrNoRows.
func scanRefreshToken(row pgx.Row) (*auth.RefreshToken, error) {
	var (
		idStr     string
		userIDStr string
		token     auth.RefreshToken
	)
	if err := row.Scan(&idStr, &userIDStr, &token.TokenHash, &token.IssuedAt, &token.ExpiresAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}

	var err error
	if token.ID, err = parseID[id.RefreshToken](idStr); err != nil {
		return nil, err
	}
	if token.UserID, err = parseID[id.User](userIDStr); err != nil {
		return nil, err
	}
	token.IssuedAt = token.IssuedAt.UTC()
	token.ExpiresAt = token.ExpiresAt.UTC()
	return &token, nil
}

// Compile-time interface check.
var _ auth.RefreshTokenStore = (*RefreshTokenRepository)(nil)
