// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/auth/memstore"
	"github.com/teamforge/teamforge/internal/id"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *memstore.DB, username, email string) *auth.User {
	t.Helper()
	u, err := auth.NewUser(username, email, "$argon2id$hash", auth.RoleMember, now).Unpack()
	require.NoError(t, err)
	require.NoError(t, db.Users().Create(context.Background(), u))
	return u
}

func newToken(t *testing.T, userID id.UserID, ttl time.Duration) *auth.RefreshToken {
	t.Helper()
	tok, err := auth.NewRefreshToken(userID, now, ttl).Unpack()
	require.NoError(t, err)
	return tok
}

func TestRefreshTokenStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	tokens := db.Tokens()
	user := seedUser(t, db, "alice", "")

	tok := newToken(t, user.ID, time.Hour)
	require.NoError(t, tokens.Insert(ctx, tok))

	got, err := tokens.FindByTokenHash(ctx, tok.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
	assert.Equal(t, tok.UserID, got.UserID)
	assert.Empty(t, got.Secret, "secrets are never stored")

	err = tokens.Insert(ctx, tok)
	assert.ErrorIs(t, err, auth.ErrDuplicate)

	n, err := tokens.DeleteByID(ctx, tok.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = tokens.DeleteByID(ctx, tok.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "second delete reports no rows")

	_, err = tokens.FindByTokenHash(ctx, tok.TokenHash)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestRefreshTokenStore_BulkDeletes(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	tokens := db.Tokens()
	alice := seedUser(t, db, "alice", "")
	bob := seedUser(t, db, "bob", "")

	require.NoError(t, tokens.Insert(ctx, newToken(t, alice.ID, time.Minute)))
	require.NoError(t, tokens.Insert(ctx, newToken(t, alice.ID, time.Hour)))
	require.NoError(t, tokens.Insert(ctx, newToken(t, bob.ID, time.Hour)))

	n, err := tokens.DeleteExpired(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "expiry equal to now counts as expired")

	n, err = tokens.DeleteByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, tokens.ListByUser(alice.ID))
	assert.Len(t, tokens.ListByUser(bob.ID), 1)
}

func TestInTransaction_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	tokens := db.Tokens()
	user := seedUser(t, db, "alice", "")

	committed := newToken(t, user.ID, time.Hour)
	require.NoError(t, db.InTransaction(ctx, func(txCtx context.Context) error {
		return tokens.Insert(txCtx, committed)
	}))
	_, err := tokens.FindByTokenHash(ctx, committed.TokenHash)
	require.NoError(t, err)

	rolledBack := newToken(t, user.ID, time.Hour)
	boom := errors.New("boom")
	err = db.InTransaction(ctx, func(txCtx context.Context) error {
		n, err := tokens.DeleteByID(txCtx, committed.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
		require.NoError(t, tokens.Insert(txCtx, rolledBack))

		_, err = tokens.FindByTokenHash(txCtx, rolledBack.TokenHash)
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = tokens.FindByTokenHash(ctx, committed.TokenHash)
	assert.NoError(t, err, "rolled back delete leaves the token")
	_, err = tokens.FindByTokenHash(ctx, rolledBack.TokenHash)
	assert.ErrorIs(t, err, auth.ErrNotFound, "rolled back insert leaves nothing")
}

func TestInTransaction_CancelledContextRollsBack(t *testing.T) {
	db := memstore.New()
	tokens := db.Tokens()
	user := seedUser(t, db, "alice", "")
	tok := newToken(t, user.ID, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	err := db.InTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, tokens.Insert(txCtx, tok))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tokens.ListByUser(user.ID))
}

func TestInTransaction_Nested(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	tokens := db.Tokens()
	user := seedUser(t, db, "alice", "")
	tok := newToken(t, user.ID, time.Hour)

	require.NoError(t, db.InTransaction(ctx, func(outer context.Context) error {
		return db.InTransaction(outer, func(inner context.Context) error {
			return tokens.Insert(inner, tok)
		})
	}))
	assert.Len(t, tokens.ListByUser(user.ID), 1)
}

func TestSetFault(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	tokens := db.Tokens()
	user := seedUser(t, db, "alice", "")

	injected := errors.New("disk on fire")
	db.SetFault(memstore.OpTokenInsert, injected)
	err := tokens.Insert(ctx, newToken(t, user.ID, time.Hour))
	require.ErrorIs(t, err, injected)

	db.SetFault(memstore.OpTokenInsert, nil)
	require.NoError(t, tokens.Insert(ctx, newToken(t, user.ID, time.Hour)))
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	users := db.Users()
	alice := seedUser(t, db, "Alice", "alice@example.com")

	t.Run("lookups are case-insensitive", func(t *testing.T) {
		got, err := users.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		got, err = users.GetByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("duplicate username or email", func(t *testing.T) {
		dupName, err := auth.NewUser("ALICE", "", "h", "", now).Unpack()
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dupName), auth.ErrDuplicate)

		dupEmail, err := auth.NewUser("alice2", "Alice@Example.com", "h", "", now).Unpack()
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dupEmail), auth.ErrDuplicate)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		*got.Email = "mallory@example.com"

		again, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", *again.Email)
	})

	t.Run("update and update password", func(t *testing.T) {
		got, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		got.RecordFailure(now)
		require.NoError(t, users.Update(ctx, got))
		require.NoError(t, users.UpdatePassword(ctx, alice.ID, "new-hash"))

		again, err := users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, again.FailedAttempts)
		assert.Equal(t, "new-hash", again.PasswordHash)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := users.GetByID(ctx, id.Random[id.User]())
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.ErrorIs(t, users.UpdatePassword(ctx, id.Random[id.User](), "h"), auth.ErrNotFound)
	})
}

func TestPasswordResetRepository(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	resets := db.Resets()
	user := seedUser(t, db, "alice", "alice@example.com")

	_, hash, err := auth.GenerateResetToken()
	require.NoError(t, err)
	reset, err := auth.NewPasswordReset(user.ID, hash, now.Add(time.Hour), now).Unpack()
	require.NoError(t, err)
	require.NoError(t, resets.Create(ctx, reset))

	got, err := resets.GetByTokenHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, reset.ID, got.ID)

	n, err := resets.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = resets.DeleteByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = resets.GetByTokenHash(ctx, hash)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
