// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/errutil"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		mock.Close()
	})
	return mock
}

func TestTransactor_CommitsOnSuccess(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE id`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	repo := NewRefreshTokenRepository(mock)
	err := NewTransactor(mock).InTransaction(context.Background(), func(ctx context.Context) error {
		n, err := repo.DeleteByID(ctx, id.Random[id.RefreshToken]())
		assert.EqualValues(t, 1, n)
		return err
	})
	require.NoError(t, err)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("force rollback")
	err := NewTransactor(mock).InTransaction(context.Background(), func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestTransactor_BeginFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := NewTransactor(mock).InTransaction(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	errutil.AssertErrorCode(t, err, "TX_BEGIN_FAILED")
	assert.False(t, called)
}

func TestTransactor_CommitFailure(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := NewTransactor(mock).InTransaction(context.Background(), func(context.Context) error { return nil })
	errutil.AssertErrorCode(t, err, "TX_COMMIT_FAILED")
}

func TestTransactor_NestedJoinsOuter(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tx := NewTransactor(mock)
	err := tx.InTransaction(context.Background(), func(ctx context.Context) error {
		return tx.InTransaction(ctx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
}

func TestParseID_CorruptRow(t *testing.T) {
	_, err := parseID[id.User]("not-a-ulid")
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CORRUPT_ROW", oopsErr.Code())
	errutil.AssertCategory(t, err, domainerr.CategoryValidation)
}
