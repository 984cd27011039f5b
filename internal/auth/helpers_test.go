// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/auth/memstore"
)

// newTestHasher returns an argon2id hasher cheap enough for unit tests.
func newTestHasher() *auth.Argon2idHasher {
	return auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    1,
		Memory:  1024,
		Threads: 1,
		SaltLen: 16,
		KeyLen:  32,
	})
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// hookedStore decorates a RefreshTokenStore to simulate interleavings.
type hookedStore struct {
	auth.RefreshTokenStore
	afterFind    func(ctx context.Context, tok *auth.RefreshToken)
	beforeInsert func(ctx context.Context)
}

func (s *hookedStore) FindByTokenHash(ctx context.Context, hash string) (*auth.RefreshToken, error) {
	tok, err := s.RefreshTokenStore.FindByTokenHash(ctx, hash)
	if err == nil && s.afterFind != nil {
		s.afterFind(ctx, tok)
	}
	return tok, err
}

func (s *hookedStore) Insert(ctx context.Context, tok *auth.RefreshToken) error {
	if s.beforeInsert != nil {
		s.beforeInsert(ctx)
	}
	return s.RefreshTokenStore.Insert(ctx, tok)
}

// syncBuffer is a log sink safe for concurrent handlers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	db       *memstore.DB
	tokens   *memstore.RefreshTokenStore
	clock    *fakeClock
	rotation *auth.RotationService
	logs     *syncBuffer
}

const testRefreshTTL = 24 * time.Hour

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore builds a fixture whose rotation service talks to
// wrap(store) instead of the memstore directly.
func newFixtureWithStore(t *testing.T, wrap func(auth.RefreshTokenStore) auth.RefreshTokenStore) *fixture {
	t.Helper()
	f := &fixture{db: memstore.New(), clock: newFakeClock(), logs: &syncBuffer{}}
	f.tokens = f.db.Tokens()

	var store auth.RefreshTokenStore = f.tokens
	if wrap != nil {
		store = wrap(store)
	}
	rotation, err := auth.NewRotationService(store, f.db, f.clock, testRefreshTTL, f.logger())
	require.NoError(t, err)
	f.rotation = rotation
	return f
}

func (f *fixture) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (f *fixture) seedUser(t *testing.T, username, password string) *auth.User {
	t.Helper()
	hash, err := newTestHasher().Hash(password)
	require.NoError(t, err)
	email := username + "@example.com"
	u, err := auth.NewUser(username, email, hash, auth.RoleMember, f.clock.Now()).Unpack()
	require.NoError(t, err)
	require.NoError(t, f.db.Users().Create(context.Background(), u))
	return u
}
