// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package auth is the authentication core of TeamForge.
//
// # Domain Types
//
// Domain types (User, RefreshToken, PasswordReset) should be created
// using their respective constructors:
//   - NewUser - creates a User with a validated username and password hash
//   - NewRefreshToken - creates a RefreshToken with a fresh secret and expiry
//   - NewPasswordReset - creates a PasswordReset with a validated user and expiry
//
// Constructors and use cases return result.Result values carrying
// *domainerr.Error failures. Storage and signing are reached through the
// ports in ports.go, which keep the Go (value, error) convention; the core
// lifts those into results at the call site.
//
// # Services
//
//   - RotationService - refresh token issue, single-use rotation and revocation
//   - Service - login, refresh, logout and session verification
//   - PasswordResetService - password reset flow
//
// Services are created with New* constructors that validate dependencies.
package auth
