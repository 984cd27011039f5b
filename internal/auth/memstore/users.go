// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package memstore

import (
	"context"
	"strings"

	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
)

// UserRepository implements auth.UserRepository.
type UserRepository struct {
	db *DB
}

var _ auth.UserRepository = (*UserRepository)(nil)

// copyUser detaches pointer fields so callers cannot mutate stored state.
func copyUser(u auth.User) auth.User {
	if u.Email != nil {
		e := *u.Email
		u.Email = &e
	}
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		u.LockedUntil = &t
	}
	return u
}

func sameEmail(a, b *string) bool {
	return a != nil && b != nil && strings.EqualFold(*a, *b)
}

// Create implements auth.UserRepository.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	return r.db.do(ctx, OpUserCreate, func(st *state) error {
		for _, u := range st.users {
			if u.ID == user.ID || strings.EqualFold(u.Username, user.Username) || sameEmail(u.Email, user.Email) {
				return oops.Code("USER_DUPLICATE").With("username", user.Username).Wrap(auth.ErrDuplicate)
			}
		}
		st.users[user.ID] = copyUser(*user)
		return nil
	})
}

func (r *UserRepository) find(ctx context.Context, match func(auth.User) bool, key string) (*auth.User, error) {
	var out *auth.User
	err := r.db.do(ctx, OpUserGet, func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				found := copyUser(u)
				out = &found
				return nil
			}
		}
		return oops.Code("USER_NOT_FOUND").With("lookup", key).Wrap(auth.ErrNotFound)
	})
	return out, err
}

// GetByID implements auth.UserRepository.
func (r *UserRepository) GetByID(ctx context.Context, userID id.UserID) (*auth.User, error) {
	return r.find(ctx, func(u auth.User) bool { return u.ID == userID }, "id")
}

// GetByUsername implements auth.UserRepository.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return r.find(ctx, func(u auth.User) bool { return strings.EqualFold(u.Username, username) }, "username")
}

// GetByEmail implements auth.UserRepository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.find(ctx, func(u auth.User) bool { return sameEmail(u.Email, &email) }, "email")
}

// Update implements auth.UserRepository.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	return r.db.do(ctx, OpUserUpdate, func(st *state) error {
		if _, ok := st.users[user.ID]; !ok {
			return oops.Code("USER_NOT_FOUND").With("user_id", user.ID.String()).Wrap(auth.ErrNotFound)
		}
		st.users[user.ID] = copyUser(*user)
		return nil
	})
}

// UpdatePassword implements auth.UserRepository.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID id.UserID, passwordHash string) error {
	return r.db.do(ctx, OpUserUpdate, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return oops.Code("USER_NOT_FOUND").With("user_id", userID.String()).Wrap(auth.ErrNotFound)
		}
		u.PasswordHash = passwordHash
		st.users[userID] = u
		return nil
	})
}
