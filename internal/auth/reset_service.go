// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/errutil"
	"github.com/teamforge/teamforge/pkg/result"
)

// PasswordResetService handles password reset operations.
type PasswordResetService struct {
	users    UserRepository
	resets   PasswordResetRepository
	hasher   PasswordHasher
	rotation *RotationService
	clock    Clock
	logger   *slog.Logger
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(
	users UserRepository,
	resets PasswordResetRepository,
	hasher PasswordHasher,
	rotation *RotationService,
	clock Clock,
	logger *slog.Logger,
) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Code("RESET_INVALID_CONFIG").Errorf("user repository is required")
	}
	if resets == nil {
		return nil, oops.Code("RESET_INVALID_CONFIG").Errorf("reset repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("RESET_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if rotation == nil {
		return nil, oops.Code("RESET_INVALID_CONFIG").Errorf("rotation service is required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		users:    users,
		resets:   resets,
		hasher:   hasher,
		rotation: rotation,
		clock:    clock,
		logger:   logger,
	}, nil
}

// RequestReset requests a password reset for a user by email.
// Returns the plaintext token for delivery by the caller. For an unknown
// email it succeeds with an empty token so addresses cannot be enumerated.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) result.Result[string, *domainerr.Error] {
	if email == "" {
		return result.Err[string](domainerr.Validation("email", "", "email is required"))
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return result.Ok[string, *domainerr.Error]("")
	}
	if err != nil {
		return s.fail(ctx, "RESET_REQUEST_FAILED", oops.With("operation", "get user by email").Wrap(err))
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return s.fail(ctx, "RESET_REQUEST_FAILED", err)
	}

	now := s.clock.Now()
	return result.AndThen(NewPasswordReset(user.ID, hash, now.Add(ResetTokenExpiry), now),
		func(reset *PasswordReset) result.Result[string, *domainerr.Error] {
			if err := s.resets.Create(ctx, reset); err != nil {
				return s.fail(ctx, "RESET_REQUEST_FAILED", oops.With("operation", "create reset").Wrap(err))
			}
			return result.Ok[string, *domainerr.Error](token)
		})
}

// ValidateToken validates a reset token and returns the associated user ID.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) result.Result[id.UserID, *domainerr.Error] {
	if token == "" {
		return result.Err[id.UserID](invalidResetToken())
	}

	reset, err := s.resets.GetByTokenHash(ctx, hashSecret(token))
	if errors.Is(err, ErrNotFound) {
		return result.Err[id.UserID](invalidResetToken())
	}
	if err != nil {
		de := domainerr.Internal("RESET_VALIDATE_FAILED", err)
		errutil.LogError(ctx, s.logger, "reset token lookup failed", de)
		return result.Err[id.UserID](de)
	}

	if reset.IsExpiredAt(s.clock.Now()) {
		return result.Err[id.UserID](domainerr.Authentication(CodeResetTokenExpired, "reset token has expired"))
	}
	return result.Ok[id.UserID, *domainerr.Error](reset.UserID)
}

// ResetPassword sets a new password using a valid reset token. All reset
// requests and all refresh tokens of the user are revoked afterwards, so
// existing sessions cannot outlive the old password.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) result.Result[struct{}, *domainerr.Error] {
	if err := ValidatePassword(newPassword); err != nil {
		return result.Err[struct{}](err)
	}

	return result.AndThen(s.ValidateToken(ctx, token), func(userID id.UserID) result.Result[struct{}, *domainerr.Error] {
		hashed, err := s.hasher.Hash(newPassword)
		if err != nil {
			return s.failUnit(ctx, oops.With("operation", "hash password").Wrap(err))
		}
		if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
			return s.failUnit(ctx, oops.With("operation", "update password").With("user_id", userID.String()).Wrap(err))
		}

		// The password is already changed; cleanup failures are only logged.
		if _, err := s.resets.DeleteByUser(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete reset requests", "user_id", userID.String(), "error", err)
		}
		if e, failed := s.rotation.RevokeAll(ctx, userID).Error(); failed {
			errutil.LogError(ctx, s.logger, "failed to revoke refresh tokens after password reset", e)
		}

		s.logger.InfoContext(ctx, "password reset", "user_id", userID.String())
		return result.Ok[struct{}, *domainerr.Error](struct{}{})
	})
}

// PurgeExpired removes expired reset requests.
func (s *PasswordResetService) PurgeExpired(ctx context.Context) result.Result[int64, *domainerr.Error] {
	n, err := s.resets.DeleteExpired(ctx, s.clock.Now())
	return result.From(n, err, func(err error) *domainerr.Error {
		return domainerr.Internal("RESET_PURGE_FAILED", err)
	})
}

func (s *PasswordResetService) fail(ctx context.Context, code string, err error) result.Result[string, *domainerr.Error] {
	de := domainerr.Internal(code, err)
	errutil.LogError(ctx, s.logger, "password reset request failed", de)
	return result.Err[string](de)
}

func (s *PasswordResetService) failUnit(ctx context.Context, err error) result.Result[struct{}, *domainerr.Error] {
	de := domainerr.Internal(CodeResetFailed, err)
	errutil.LogError(ctx, s.logger, "password reset failed", de)
	return result.Err[struct{}](de)
}

func invalidResetToken() *domainerr.Error {
	return domainerr.Authentication(CodeInvalidResetToken, "invalid reset token")
}
