// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"errors"

	"github.com/teamforge/teamforge/pkg/domainerr"
)

// Storage sentinels. Adapters wrap these so callers can match with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert clashes with a unique key.
	ErrDuplicate = errors.New("duplicate")

	// ErrInvalidAccessToken is returned by token signers for tokens that are
	// malformed, forged or expired.
	ErrInvalidAccessToken = errors.New("invalid access token")
)

// Authentication failure codes.
const (
	CodeInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	CodeAccountLocked       = "AUTH_ACCOUNT_LOCKED"
	CodeInvalidRefreshToken = "AUTH_INVALID_REFRESH_TOKEN"
	CodeRefreshTokenExpired = "AUTH_REFRESH_TOKEN_EXPIRED"
	CodeInvalidResetToken   = "AUTH_INVALID_RESET_TOKEN"
	CodeResetTokenExpired   = "AUTH_RESET_TOKEN_EXPIRED"
)

// Internal failure codes.
const (
	CodeTokenRotationFailed = "TOKEN_ROTATION_FAILED"
	CodeTokenIssueFailed    = "TOKEN_ISSUE_FAILED"
	CodeTokenLookupFailed   = "TOKEN_LOOKUP_FAILED"
	CodeTokenRevokeFailed   = "TOKEN_REVOKE_FAILED"
	CodeLoginFailed         = "AUTH_LOGIN_FAILED"
	CodeRefreshFailed       = "AUTH_REFRESH_FAILED"
	CodeRegisterFailed      = "AUTH_REGISTER_FAILED"
	CodeResetFailed         = "RESET_PASSWORD_FAILED"
	CodeEntropyFailed       = "TOKEN_ENTROPY_FAILED"
)

// signerService names the token signer in ExternalService errors.
const signerService = "token-signer"

func invalidCredentials() *domainerr.Error {
	return domainerr.Authentication(CodeInvalidCredentials, "invalid username or password")
}

func invalidRefreshToken() *domainerr.Error {
	return domainerr.Authentication(CodeInvalidRefreshToken, "invalid refresh token")
}

func refreshTokenExpired() *domainerr.Error {
	return domainerr.Authentication(CodeRefreshTokenExpired, "refresh token expired")
}
