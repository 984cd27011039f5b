// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/errutil"
	"github.com/teamforge/teamforge/pkg/result"
)

// Access token defaults.
const (
	DefaultAccessTokenTTL = 15 * time.Minute
	MinSigningSecretBytes = 32
)

// LoginRequest carries credentials for Login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token secret to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest carries the fields for a new user.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// TokenPair is returned by Login and RefreshToken.
type TokenPair struct {
	AccessToken      string            `json:"access_token"`
	AccessExpiresAt  time.Time         `json:"access_expires_at"`
	RefreshToken     string            `json:"refresh_token"`
	RefreshTokenID   id.RefreshTokenID `json:"refresh_token_id"`
	RefreshExpiresAt time.Time         `json:"refresh_expires_at"`
	UserID           id.UserID         `json:"user_id"`
}

// Deps are the collaborators and settings of a Service.
type Deps struct {
	Users    UserRepository
	Rotation *RotationService
	Hasher   PasswordHasher
	Signer   TokenSigner

	// SigningSecret keys access tokens; at least MinSigningSecretBytes long.
	SigningSecret []byte

	// AccessTokenTTL defaults to DefaultAccessTokenTTL.
	AccessTokenTTL time.Duration

	// Clock defaults to SystemClock.
	Clock Clock

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Service implements the authentication use cases.
type Service struct {
	users     UserRepository
	rotation  *RotationService
	hasher    PasswordHasher
	signer    TokenSigner
	secret    []byte
	accessTTL time.Duration
	clock     Clock
	logger    *slog.Logger

	// dummyHash is verified against when the user does not exist so that
	// unknown usernames cost the same as wrong passwords.
	dummyHash string
}

// NewService validates deps and creates a Service.
func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Users == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("user repository is required")
	case deps.Rotation == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("rotation service is required")
	case deps.Hasher == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	case deps.Signer == nil:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token signer is required")
	case len(deps.SigningSecret) < MinSigningSecretBytes:
		return nil, oops.Code("AUTH_INVALID_CONFIG").
			With("min_bytes", MinSigningSecretBytes).
			Errorf("signing secret is too short")
	case deps.AccessTokenTTL < 0:
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("access token ttl must be positive")
	}

	s := &Service{
		users:     deps.Users,
		rotation:  deps.Rotation,
		hasher:    deps.Hasher,
		signer:    deps.Signer,
		secret:    append([]byte(nil), deps.SigningSecret...),
		accessTTL: deps.AccessTokenTTL,
		clock:     deps.Clock,
		logger:    deps.Logger,
	}
	if s.accessTTL == 0 {
		s.accessTTL = DefaultAccessTokenTTL
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	dummy, err := newDummyHash(s.hasher)
	if err != nil {
		return nil, err
	}
	s.dummyHash = dummy
	return s, nil
}

func newDummyHash(h PasswordHasher) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("AUTH_INVALID_CONFIG").With("operation", "dummy hash entropy").Wrap(err)
	}
	hash, err := h.Hash(hex.EncodeToString(b))
	if err != nil {
		return "", oops.Code("AUTH_INVALID_CONFIG").With("operation", "dummy hash").Wrap(err)
	}
	return hash, nil
}

// Register creates a user with a freshly hashed password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) result.Result[*User, *domainerr.Error] {
	if err := ValidateUsername(req.Username); err != nil {
		return result.Err[*User](err)
	}
	if err := ValidatePassword(req.Password); err != nil {
		return result.Err[*User](err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return result.Err[*User](domainerr.Internal(CodeRegisterFailed, err))
	}

	return result.AndThen(NewUser(req.Username, req.Email, hash, req.Role, s.clock.Now()),
		func(u *User) result.Result[*User, *domainerr.Error] {
			err := s.users.Create(ctx, u)
			switch {
			case errors.Is(err, ErrDuplicate):
				return result.Err[*User](domainerr.Duplicated("user", req.Username))
			case err != nil:
				de := domainerr.Internal(CodeRegisterFailed, err)
				errutil.LogError(ctx, s.logger, "failed to create user", de)
				return result.Err[*User](de)
			}
			s.logger.InfoContext(ctx, "user registered", "user_id", u.ID.String(), "role", string(u.Role))
			return result.Ok[*User, *domainerr.Error](u)
		})
}

// Login authenticates a user and issues an access and refresh token pair.
// Unknown usernames and wrong passwords are indistinguishable to the caller
// in both response and timing.
func (s *Service) Login(ctx context.Context, req LoginRequest) result.Result[TokenPair, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.login")
	defer span.End()

	r := s.login(ctx, req)
	observe(ctx, s.logger, span, loginsTotal, "login failed", r)
	return r
}

func (s *Service) login(ctx context.Context, req LoginRequest) result.Result[TokenPair, *domainerr.Error] {
	if req.Username == "" {
		return result.Err[TokenPair](domainerr.Validation("username", "", "username is required"))
	}
	if req.Password == "" {
		return result.Err[TokenPair](domainerr.Validation("password", nil, "password is required"))
	}

	user, lookupErr := s.users.GetByUsername(ctx, req.Username)

	var targetHash string
	exists := false
	switch {
	case lookupErr == nil:
		targetHash, exists = user.PasswordHash, true
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = s.dummyHash
	default:
		return result.Err[TokenPair](domainerr.Internal(CodeLoginFailed,
			oops.With("operation", "get user by username").Wrap(lookupErr)))
	}

	// Always verify, so a missing user costs the same as a wrong password.
	valid, verifyErr := s.hasher.Verify(req.Password, targetHash)
	if verifyErr != nil {
		if !exists {
			return result.Err[TokenPair](invalidCredentials())
		}
		return result.Err[TokenPair](domainerr.Internal(CodeLoginFailed,
			oops.With("operation", "verify password").Wrap(verifyErr)))
	}

	now := s.clock.Now()
	if !exists || !valid {
		if exists {
			user.RecordFailure(now)
			if err := s.users.Update(ctx, user); err != nil {
				s.logger.WarnContext(ctx, "failed to record login failure",
					"user_id", user.ID.String(), "error", err)
			}
		}
		return result.Err[TokenPair](invalidCredentials())
	}

	// Checked after verification to keep timing uniform.
	if lock := CheckLockout(user.LockedUntil, now); lock.Locked {
		return result.Err[TokenPair](
			domainerr.Authentication(CodeAccountLocked, "account is temporarily locked").
				WithMetadata("locked_until", user.LockedUntil.UTC().Format(time.RFC3339)).
				WithMetadata("retry_after_seconds", lock.RetryAfterSeconds()),
		)
	}

	user.RecordSuccess(now)
	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		if upgraded, err := s.hasher.Hash(req.Password); err == nil {
			user.PasswordHash = upgraded
		}
	}
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to persist login bookkeeping",
			"user_id", user.ID.String(), "error", err)
	}

	return result.AndThen(s.rotation.Issue(ctx, user.ID), func(rt *RefreshToken) result.Result[TokenPair, *domainerr.Error] {
		return s.pairFor(ctx, user, rt)
	})
}

// RefreshToken rotates the presented refresh token and signs a new access
// token for its owner. A token can be exchanged once; presenting it again
// fails with an authentication error.
func (s *Service) RefreshToken(ctx context.Context, req RefreshRequest) result.Result[TokenPair, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.refresh")
	defer span.End()

	r := result.AndThen(s.rotation.Refresh(ctx, req.RefreshToken), func(rt *RefreshToken) result.Result[TokenPair, *domainerr.Error] {
		user, err := s.users.GetByID(ctx, rt.UserID)
		switch {
		case errors.Is(err, ErrNotFound):
			s.discard(ctx, rt.ID)
			return result.Err[TokenPair](invalidRefreshToken())
		case err != nil:
			s.discard(ctx, rt.ID)
			return result.Err[TokenPair](domainerr.Internal(CodeRefreshFailed,
				oops.With("operation", "get user by id").With("user_id", rt.UserID.String()).Wrap(err)))
		}
		return s.pairFor(ctx, user, rt)
	})
	observe(ctx, s.logger, span, refreshTotal, "refresh failed", r)
	return r
}

// Logout revokes a refresh token. Revoking an unknown or already revoked
// token succeeds; only storage failures are reported.
func (s *Service) Logout(ctx context.Context, tokenID id.RefreshTokenID) result.Result[struct{}, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.logout")
	defer span.End()

	r := result.Map(s.rotation.Revoke(ctx, tokenID), func(removed bool) struct{} {
		if removed {
			logoutsTotal.Inc()
		} else {
			s.logger.DebugContext(ctx, "logout of unknown refresh token", "refresh_token_id", tokenID.String())
		}
		return struct{}{}
	})
	r.Match(func(struct{}) {}, func(e *domainerr.Error) {
		span.RecordError(e)
		span.SetStatus(codes.Error, e.Code())
		errutil.LogError(ctx, s.logger, "logout failed", e)
	})
	return r
}

// VerifySession reports whether accessToken is currently valid. Invalid and
// expired tokens are a normal false answer; an error means the signer itself
// failed and the answer is unknown.
func (s *Service) VerifySession(ctx context.Context, accessToken string) result.Result[bool, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.verify_session")
	defer span.End()

	if accessToken == "" {
		sessionVerifications.WithLabelValues("invalid").Inc()
		return result.Ok[bool, *domainerr.Error](false)
	}

	_, err := s.signer.Verify(accessToken, s.secret)
	switch {
	case err == nil:
		sessionVerifications.WithLabelValues("valid").Inc()
		return result.Ok[bool, *domainerr.Error](true)
	case errors.Is(err, ErrInvalidAccessToken):
		sessionVerifications.WithLabelValues("invalid").Inc()
		return result.Ok[bool, *domainerr.Error](false)
	default:
		sessionVerifications.WithLabelValues("error").Inc()
		de := domainerr.ExternalService(signerService, err)
		span.RecordError(de)
		span.SetStatus(codes.Error, de.Code())
		errutil.LogError(ctx, s.logger, "session verification failed", de)
		return result.Err[bool](de)
	}
}

// pairFor signs an access token for user and bundles it with rt. If signing
// fails rt is revoked, since the caller never learns its secret.
func (s *Service) pairFor(ctx context.Context, user *User, rt *RefreshToken) result.Result[TokenPair, *domainerr.Error] {
	access, expiresAt, err := s.signer.Sign(Claims{UserID: user.ID, Role: user.Role}, s.secret, s.accessTTL)
	if err != nil {
		s.discard(ctx, rt.ID)
		return result.Err[TokenPair](domainerr.ExternalService(signerService, err))
	}
	return result.Ok[TokenPair, *domainerr.Error](TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  expiresAt,
		RefreshToken:     rt.Secret,
		RefreshTokenID:   rt.ID,
		RefreshExpiresAt: rt.ExpiresAt,
		UserID:           user.ID,
	})
}

// discard revokes a refresh token whose secret never reaches the caller.
// A failure leaves a live but unreachable token behind, so it is logged.
func (s *Service) discard(ctx context.Context, tokenID id.RefreshTokenID) {
	ctx = context.WithoutCancel(ctx)
	s.rotation.Revoke(ctx, tokenID).Match(
		func(bool) {},
		func(e *domainerr.Error) {
			errutil.LogError(ctx, s.logger, "failed to revoke undelivered refresh token",
				e.WithMetadata("refresh_token_id", tokenID.String()))
		},
	)
}

// observe counts a use case outcome and records failures on span and log.
func observe[T any](ctx context.Context, logger *slog.Logger, span trace.Span, counter *prometheus.CounterVec, msg string, r result.Result[T, *domainerr.Error]) {
	e, failed := r.Error()
	if !failed {
		counter.WithLabelValues(outcomeLabel(nil)).Inc()
		return
	}
	counter.WithLabelValues(outcomeLabel(e)).Inc()
	span.RecordError(e)
	span.SetStatus(codes.Error, e.Code())
	errutil.LogError(ctx, logger, msg, e)
}
