// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package accesstoken signs and verifies short-lived HS256 JWT access tokens.
package accesstoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
)

// DefaultLeeway tolerates small clock skew between issuer and verifier.
const DefaultLeeway = 5 * time.Second

// ErrUnconfigured is returned when the signer is used without a secret.
// It does not wrap auth.ErrInvalidAccessToken: the token may be fine.
var ErrUnconfigured = errors.New("access token signer has no secret")

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Signer implements auth.TokenSigner.
type Signer struct {
	issuer string
	leeway time.Duration
	clock  auth.Clock
}

var _ auth.TokenSigner = (*Signer)(nil)

// Option configures a Signer.
type Option func(*Signer)

// WithClock sets the time source for issue and expiry checks.
func WithClock(c auth.Clock) Option {
	return func(s *Signer) { s.clock = c }
}

// WithLeeway overrides DefaultLeeway.
func WithLeeway(d time.Duration) Option {
	return func(s *Signer) { s.leeway = d }
}

// New creates a Signer that stamps and requires issuer.
func New(issuer string, opts ...Option) *Signer {
	s := &Signer{issuer: issuer, leeway: DefaultLeeway, clock: auth.SystemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign implements auth.TokenSigner.
func (s *Signer) Sign(claims auth.Claims, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, oops.Code("ACCESS_TOKEN_SIGN_FAILED").Wrap(ErrUnconfigured)
	}
	if claims.UserID.IsZero() {
		return "", time.Time{}, oops.Code("ACCESS_TOKEN_SIGN_FAILED").Errorf("subject cannot be empty")
	}
	if ttl <= 0 {
		return "", time.Time{}, oops.Code("ACCESS_TOKEN_SIGN_FAILED").With("ttl", ttl).Errorf("ttl must be positive")
	}

	// JWT NumericDate has second precision; report the expiry the token carries.
	now := s.clock.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Role: string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, oops.Code("ACCESS_TOKEN_SIGN_FAILED").With("user_id", claims.UserID.String()).Wrap(err)
	}
	return signed, expiresAt, nil
}

// Verify implements auth.TokenSigner. Every rejection of the token itself
// wraps auth.ErrInvalidAccessToken.
func (s *Signer) Verify(token string, secret []byte) (auth.Claims, error) {
	if len(secret) == 0 {
		return auth.Claims{}, oops.Code("ACCESS_TOKEN_VERIFY_FAILED").Wrap(ErrUnconfigured)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, parserOpts...)
	if err != nil {
		return auth.Claims{}, invalid(err, "parse")
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, invalid(nil, "claims")
	}

	userID, err := id.Parse[id.User](claims.Subject).Unpack()
	if err != nil {
		return auth.Claims{}, invalid(err, "subject")
	}
	role := auth.Role(claims.Role)
	if !role.Valid() {
		return auth.Claims{}, invalid(nil, "role")
	}

	return auth.Claims{UserID: userID, Role: role}, nil
}

func invalid(cause error, stage string) error {
	b := oops.Code("ACCESS_TOKEN_INVALID").With("stage", stage)
	if cause != nil {
		b = b.With("reason", cause.Error())
	}
	return b.Wrap(auth.ErrInvalidAccessToken)
}
