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

// RefreshTokenStore implements auth.RefreshTokenStore.
type RefreshTokenStore struct {
	db *DB
}

var _ auth.RefreshTokenStore = (*RefreshTokenStore)(nil)

// FindByTokenHash implements auth.RefreshTokenStore.
func (s *RefreshTokenStore) FindByTokenHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var out *auth.RefreshToken
	err := s.db.do(ctx, OpTokenFind, func(st *state) error {
		for _, t := range st.tokens {
			if t.TokenHash == tokenHash {
				found := t
				out = &found
				return nil
			}
		}
		return oops.Code("REFRESH_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	})
	return out, err
}

// Insert implements auth.RefreshTokenStore. The secret is not stored.
func (s *RefreshTokenStore) Insert(ctx context.Context, token *auth.RefreshToken) error {
	return s.db.do(ctx, OpTokenInsert, func(st *state) error {
		if _, ok := st.tokens[token.ID]; ok {
			return oops.Code("REFRESH_TOKEN_DUPLICATE").With("refresh_token_id", token.ID.String()).Wrap(auth.ErrDuplicate)
		}
		for _, t := range st.tokens {
			if t.TokenHash == token.TokenHash {
				return oops.Code("REFRESH_TOKEN_DUPLICATE").With("field", "token_hash").Wrap(auth.ErrDuplicate)
			}
		}
		stored := *token
		stored.Secret = ""
		st.tokens[token.ID] = stored
		return nil
	})
}

// DeleteByID implements auth.RefreshTokenStore.
func (s *RefreshTokenStore) DeleteByID(ctx context.Context, tokenID id.RefreshTokenID) (int64, error) {
	var n int64
	err := s.db.do(ctx, OpTokenDelete, func(st *state) error {
		if _, ok := st.tokens[tokenID]; ok {
			delete(st.tokens, tokenID)
			n = 1
		}
		return nil
	})
	return n, err
}

// DeleteByUser implements auth.RefreshTokenStore.
func (s *RefreshTokenStore) DeleteByUser(ctx context.Context, userID id.UserID) (int64, error) {
	var n int64
	err := s.db.do(ctx, OpTokenDeleteByUser, func(st *state) error {
		for k, t := range st.tokens {
			if t.UserID == userID {
				delete(st.tokens, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

// DeleteExpired implements auth.RefreshTokenStore.
func (s *RefreshTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.db.do(ctx, OpTokenDeleteExpired, func(st *state) error {
		for k, t := range st.tokens {
			if t.IsExpiredAt(now) {
				delete(st.tokens, k)
				n++
			}
		}
		return nil
	})
	return n, err
}

// ListByUser returns copies of a user's stored tokens. Not part of the port;
// tests use it to inspect state.
func (s *RefreshTokenStore) ListByUser(userID id.UserID) []auth.RefreshToken {
	var out []auth.RefreshToken
	//nolint:errcheck // the callback never fails
	s.db.do(context.Background(), "", func(st *state) error {
		for _, t := range st.tokens {
			if t.UserID == userID {
				out = append(out, t)
			}
		}
		return nil
	})
	return out
}
