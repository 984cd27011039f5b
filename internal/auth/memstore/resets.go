// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package memstore

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
)

// PasswordResetRepository implements auth.PasswordResetRepository.
type PasswordResetRepository struct {
	db *DB
}

var _ auth.PasswordResetRepository = (*PasswordResetRepository)(nil)

// Create implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) Create(ctx context.Context, reset *auth.PasswordReset) error {
	return r.db.do(ctx, OpResetCreate, func(st *state) error {
		if _, ok := st.users[reset.UserID]; !ok {
			return oops.Code("RESET_USER_NOT_FOUND").With("user_id", reset.UserID.String()).Wrap(auth.ErrNotFound)
		}
		st.resets[reset.ID] = *reset
		return nil
	})
}

// GetByTokenHash implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.PasswordReset, error) {
	var out *auth.PasswordReset
	err := r.db.do(ctx, OpResetGet, func(st *state) error {
		for _, reset := range st.resets {
			if reset.TokenHash == tokenHash {
				found := reset
				out = &found
				return nil
			}
		}
		return oops.Code("RESET_NOT_FOUND").Wrap(auth.ErrNotFound)
	})
	return out, err
}

// DeleteByUser implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) DeleteByUser(ctx context.Context, userID id.UserID) (int64, error) {
	var n int64
	err := r.db.do(ctx, OpResetDelete, func(st *state) error {
		for k, reset := range st.resets {
			if reset.UserID == userID {
				delete(st.resets, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

// DeleteExpired implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.do(ctx, OpResetDelete, func(st *state) error {
		for k, reset := range st.resets {
			if reset.IsExpiredAt(now) {
				delete(st.resets, k)
				n++
			}
		}
		return nil
	})
	return n, err
}
