// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/errutil"
	"github.com/teamforge/teamforge/pkg/result"
)

var tracer = otel.Tracer("teamforge/auth")

// maxIssueAttempts bounds retries when a freshly generated token clashes
// with an existing id or hash.
const maxIssueAttempts = 3

// errLostRace marks a rotation whose delete found nothing because a
// concurrent request consumed the token first.
var errLostRace = errors.New("refresh token consumed concurrently")

// RotationService owns the refresh token lifecycle: issue, single-use
// rotation, and revocation.
type RotationService struct {
	store  RefreshTokenStore
	tx     Transactor
	clock  Clock
	ttl    time.Duration
	logger *slog.Logger
}

// NewRotationService creates a RotationService. A nil clock defaults to
// SystemClock and a nil logger to slog.Default.
func NewRotationService(store RefreshTokenStore, tx Transactor, clock Clock, ttl time.Duration, logger *slog.Logger) (*RotationService, error) {
	if store == nil {
		return nil, oops.Code("ROTATION_INVALID_CONFIG").Errorf("refresh token store is required")
	}
	if tx == nil {
		return nil, oops.Code("ROTATION_INVALID_CONFIG").Errorf("transactor is required")
	}
	if ttl <= 0 {
		return nil, oops.Code("ROTATION_INVALID_CONFIG").With("ttl", ttl).Errorf("refresh token ttl must be positive")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RotationService{store: store, tx: tx, clock: clock, ttl: ttl, logger: logger}, nil
}

// Issue creates and stores a new refresh token for userID.
func (s *RotationService) Issue(ctx context.Context, userID id.UserID) result.Result[*RefreshToken, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.rotation.issue",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		created := NewRefreshToken(userID, s.clock.Now(), s.ttl)
		if de, failed := created.Error(); failed {
			return failSpan[*RefreshToken](span, de)
		}
		tok, _ := created.Value()

		err := s.store.Insert(ctx, tok)
		if err == nil {
			span.SetAttributes(attribute.String("refresh_token.id", tok.ID.String()))
			return result.Ok[*RefreshToken, *domainerr.Error](tok)
		}
		lastErr = err
		if !errors.Is(err, ErrDuplicate) {
			break
		}
		s.logger.WarnContext(ctx, "refresh token clashed on insert, regenerating", "attempt", attempt)
	}

	de := domainerr.Internal(CodeTokenIssueFailed, lastErr).WithMetadata("user_id", userID.String())
	errutil.LogError(ctx, s.logger, "failed to issue refresh token", de)
	return failSpan[*RefreshToken](span, de)
}

// Refresh exchanges a presented refresh token secret for a replacement.
//
// The presented token is consumed: its record is deleted and the
// replacement inserted in one transaction. When that transaction fails the
// presented token is burned anyway, so the caller is logged out rather than
// left holding a token that may or may not still work.
func (s *RotationService) Refresh(ctx context.Context, presented string) result.Result[*RefreshToken, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.rotation.refresh")
	defer span.End()

	if presented == "" {
		return failSpan[*RefreshToken](span, invalidRefreshToken())
	}

	current, err := s.store.FindByTokenHash(ctx, HashRefreshToken(presented))
	if errors.Is(err, ErrNotFound) {
		return failSpan[*RefreshToken](span, invalidRefreshToken())
	}
	if err != nil {
		de := domainerr.Internal(CodeTokenLookupFailed, err)
		errutil.LogError(ctx, s.logger, "refresh token lookup failed", de)
		return failSpan[*RefreshToken](span, de)
	}
	span.SetAttributes(
		attribute.String("user.id", current.UserID.String()),
		attribute.String("refresh_token.id", current.ID.String()),
	)

	now := s.clock.Now()
	if current.IsExpiredAt(now) {
		if _, delErr := s.store.DeleteByID(ctx, current.ID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove expired refresh token",
				"refresh_token_id", current.ID.String(), "error", delErr)
		}
		return failSpan[*RefreshToken](span, refreshTokenExpired())
	}

	created := NewRefreshToken(current.UserID, now, s.ttl)
	if de, failed := created.Error(); failed {
		return failSpan[*RefreshToken](span, de)
	}
	replacement, _ := created.Value()

	err = s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.store.DeleteByID(txCtx, current.ID)
		if err != nil {
			return oops.Code("TOKEN_DELETE_FAILED").With("refresh_token_id", current.ID.String()).Wrap(err)
		}
		if n == 0 {
			return errLostRace
		}
		if err := s.store.Insert(txCtx, replacement); err != nil {
			return oops.Code("TOKEN_INSERT_FAILED").With("refresh_token_id", replacement.ID.String()).Wrap(err)
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		return failSpan[*RefreshToken](span, invalidRefreshToken())
	}
	if err != nil {
		rotationFailures.Inc()
		s.burn(ctx, current.ID)
		de := domainerr.Internal(CodeTokenRotationFailed, err).
			WithMetadata("user_id", current.UserID.String()).
			WithMetadata("refresh_token_id", current.ID.String())
		errutil.LogError(ctx, s.logger, "refresh token rotation failed", de)
		return failSpan[*RefreshToken](span, de)
	}

	return result.Ok[*RefreshToken, *domainerr.Error](replacement)
}

// burn revokes a token after a failed rotation. It runs even when ctx was
// cancelled, since cancellation is one of the ways rotation fails.
func (s *RotationService) burn(ctx context.Context, tokenID id.RefreshTokenID) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.store.DeleteByID(ctx, tokenID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh token after rotation failure",
			"refresh_token_id", tokenID.String(), "error", err)
	}
}

// Revoke deletes one token. It reports whether a record was removed;
// revoking an unknown token is not an error.
func (s *RotationService) Revoke(ctx context.Context, tokenID id.RefreshTokenID) result.Result[bool, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.rotation.revoke",
		trace.WithAttributes(attribute.String("refresh_token.id", tokenID.String())))
	defer span.End()

	n, err := s.store.DeleteByID(ctx, tokenID)
	if err != nil {
		return failSpan[bool](span, domainerr.Internal(CodeTokenRevokeFailed, err))
	}
	return result.Ok[bool, *domainerr.Error](n > 0)
}

// RevokeAll deletes every token belonging to userID and returns the count.
func (s *RotationService) RevokeAll(ctx context.Context, userID id.UserID) result.Result[int64, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.rotation.revoke_all",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	n, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		return failSpan[int64](span, domainerr.Internal(CodeTokenRevokeFailed, err))
	}
	span.SetAttributes(attribute.Int64("refresh_token.revoked", n))
	return result.Ok[int64, *domainerr.Error](n)
}

// PurgeExpired deletes every token that is expired now.
func (s *RotationService) PurgeExpired(ctx context.Context) result.Result[int64, *domainerr.Error] {
	ctx, span := tracer.Start(ctx, "auth.rotation.purge_expired")
	defer span.End()

	n, err := s.store.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return failSpan[int64](span, domainerr.Internal(CodeTokenRevokeFailed, err))
	}
	span.SetAttributes(attribute.Int64("refresh_token.purged", n))
	return result.Ok[int64, *domainerr.Error](n)
}

// failSpan records err on span and returns it as a failed result.
func failSpan[T any](span trace.Span, err *domainerr.Error) result.Result[T, *domainerr.Error] {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Code())
	return result.Err[T](err)
}
