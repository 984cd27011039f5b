// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/errutil"
)

var userRowColumns = []string{
	"id", "username", "email", "password_hash", "role",
	"failed_attempts", "locked_until", "created_at", "updated_at",
}

func newUser(t *testing.T) *auth.User {
	t.Helper()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	user, err := auth.NewUser("alice", "alice@example.com", "$argon2id$hash", auth.RoleMember, now).Unpack()
	require.NoError(t, err)
	return user
}

func userRow(u *auth.User, role string) *pgxmock.Rows {
	return pgxmock.NewRows(userRowColumns).AddRow(
		u.ID.String(), u.Username, u.Email, u.PasswordHash, role,
		u.FailedAttempts, u.LockedUntil, u.CreatedAt, u.UpdatedAt,
	)
}

func TestUserRepository_Create(t *testing.T) {
	user := newUser(t)

	tests := []struct {
		name     string
		execErr  error
		wantErr  error
		wantCode string
	}{
		{name: "success"},
		{
			name:     "username taken",
			execErr:  &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_lower_idx"},
			wantErr:  auth.ErrDuplicate,
			wantCode: "USER_DUPLICATE",
		},
		{
			name:     "database error",
			execErr:  errors.New("connection refused"),
			wantCode: "USER_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			exp := mock.ExpectExec(`INSERT INTO users`).
				WithArgs(user.ID.String(), "alice", user.Email, user.PasswordHash, "member",
					0, user.LockedUntil, user.CreatedAt, user.UpdatedAt)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			err := NewUserRepository(mock).Create(context.Background(), user)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, tt.wantCode)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	user := newUser(t)

	t.Run("by id", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(user.ID.String()).
			WillReturnRows(userRow(user, "member"))

		got, err := NewUserRepository(mock).GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("by username is case-insensitive", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`WHERE LOWER\(username\) = LOWER\(\$1\)`).
			WithArgs("ALICE").
			WillReturnRows(userRow(user, "member"))

		got, err := NewUserRepository(mock).GetByUsername(ctx, "ALICE")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("by email not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`WHERE LOWER\(email\) = LOWER\(\$1\)`).
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows(userRowColumns))

		_, err := NewUserRepository(mock).GetByEmail(ctx, "nobody@example.com")
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorContext(t, err, "email", "nobody@example.com")
	})

	t.Run("unknown role is corrupt", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(user.ID.String()).
			WillReturnRows(userRow(user, "superuser"))

		_, err := NewUserRepository(mock).GetByID(ctx, user.ID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorContext(t, err, "role", "superuser")
	})

	t.Run("query error", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM users`).
			WithArgs("alice").
			WillReturnError(errors.New("connection refused"))

		_, err := NewUserRepository(mock).GetByUsername(ctx, "alice")
		errutil.AssertErrorCode(t, err, "USER_GET_FAILED")
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	user := newUser(t)
	locked := user.CreatedAt.Add(15 * time.Minute)
	user.FailedAttempts = 7
	user.LockedUntil = &locked

	t.Run("persists lockout state", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE users SET`).
			WithArgs(user.ID.String(), user.Email, user.PasswordHash, "member", 7, user.LockedUntil, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewUserRepository(mock).Update(ctx, user))
	})

	t.Run("missing row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE users SET`).
			WithArgs(user.ID.String(), user.Email, user.PasswordHash, "member", 7, user.LockedUntil, user.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewUserRepository(mock).Update(ctx, user)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("password only", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE users SET password_hash = \$2`).
			WithArgs(user.ID.String(), "$argon2id$new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, NewUserRepository(mock).UpdatePassword(ctx, user.ID, "$argon2id$new"))
	})

	t.Run("password for unknown user", func(t *testing.T) {
		mock := newMock(t)
		unknown := id.Random[id.User]()
		mock.ExpectExec(`UPDATE users SET password_hash`).
			WithArgs(unknown.String(), "$argon2id$new").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := NewUserRepository(mock).UpdatePassword(ctx, unknown, "$argon2id$new")
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})
}
