// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package memstore is an in-memory implementation of the auth storage ports.
//
// All repositories share one DB. Transactions are copy-on-write: InTransaction
// stages a clone of the whole state, holds the DB lock for the duration of
// fn, and swaps the clone in only when fn succeeds. Repository calls made
// with the transaction's context read and write the staged clone.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
)

// Op names a repository operation for fault injection.
type Op string

// Operations that can be made to fail with SetFault.
const (
	OpTokenFind          Op = "token.find"
	OpTokenInsert        Op = "token.insert"
	OpTokenDelete        Op = "token.delete"
	OpTokenDeleteByUser  Op = "token.delete_by_user"
	OpTokenDeleteExpired Op = "token.delete_expired"
	OpUserCreate         Op = "user.create"
	OpUserGet            Op = "user.get"
	OpUserUpdate         Op = "user.update"
	OpResetCreate        Op = "reset.create"
	OpResetGet           Op = "reset.get"
	OpResetDelete        Op = "reset.delete"
)

type state struct {
	users  map[id.UserID]auth.User
	tokens map[id.RefreshTokenID]auth.RefreshToken
	resets map[id.PasswordResetID]auth.PasswordReset
}

func (s *state) clone() *state {
	return &state{
		users:  maps.Clone(s.users),
		tokens: maps.Clone(s.tokens),
		resets: maps.Clone(s.resets),
	}
}

// DB holds the shared state of all memstore repositories.
type DB struct {
	mu     sync.Mutex
	st     *state
	faults map[Op]error
}

var _ auth.Transactor = (*DB)(nil)

// New creates an empty DB.
func New() *DB {
	return &DB{
		st: &state{
			users:  make(map[id.UserID]auth.User),
			tokens: make(map[id.RefreshTokenID]auth.RefreshToken),
			resets: make(map[id.PasswordResetID]auth.PasswordReset),
		},
		faults: make(map[Op]error),
	}
}

// Tokens returns the refresh token store.
func (db *DB) Tokens() *RefreshTokenStore { return &RefreshTokenStore{db: db} }

// Users returns the user repository.
func (db *DB) Users() *UserRepository { return &UserRepository{db: db} }

// Resets returns the password reset repository.
func (db *DB) Resets() *PasswordResetRepository { return &PasswordResetRepository{db: db} }

// SetFault makes every later call of op fail with err. A nil err clears it.
func (db *DB) SetFault(op Op, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.faults, op)
		return
	}
	db.faults[op] = err
}

type txKey struct{}

type txState struct {
	db *DB
	st *state
}

// InTransaction implements auth.Transactor. Nested calls join the outer
// transaction.
func (db *DB) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.db == db {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	staged := db.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, &txState{db: db, st: staged})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("MEMSTORE_COMMIT_FAILED").With("operation", "commit").Wrap(err)
	}
	db.st = staged
	return nil
}

// do runs fn against the transaction's staged state when ctx carries one,
// and against the committed state under the lock otherwise. An injected
// fault for op short-circuits fn.
func (db *DB) do(ctx context.Context, op Op, fn func(st *state) error) error {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.db == db {
		if err := db.faults[op]; err != nil {
			return oops.Code("MEMSTORE_FAULT").With("op", string(op)).Wrap(err)
		}
		return fn(tx.st)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.faults[op]; err != nil {
		return oops.Code("MEMSTORE_FAULT").With("op", string(op)).Wrap(err)
	}
	return fn(db.st)
}
