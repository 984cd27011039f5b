// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"regexp"
	"strings"
	"time"

	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/result"
)

// Username and password validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Role is a user's team-wide role, carried in access tokens.
type Role string

// Known roles.
const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User is an account that can authenticate.
type User struct {
	ID             id.UserID
	Username       string
	Email          *string
	PasswordHash   string
	Role           Role
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser creates a validated User. email may be empty.
func NewUser(username, email, passwordHash string, role Role, now time.Time) result.Result[*User, *domainerr.Error] {
	if err := ValidateUsername(username); err != nil {
		return result.Err[*User](err)
	}
	if strings.TrimSpace(passwordHash) == "" {
		return result.Err[*User](domainerr.Validation("password_hash", "", "password hash cannot be empty"))
	}
	if role == "" {
		role = RoleMember
	}
	if !role.Valid() {
		return result.Err[*User](domainerr.Validation("role", string(role), "unknown role"))
	}

	u := &User{
		ID:           id.Random[id.User](),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if email = strings.TrimSpace(email); email != "" {
		u.Email = &email
	}
	return result.Ok[*User, *domainerr.Error](u)
}

// IsLockedAt reports whether the user is locked out at now.
func (u *User) IsLockedAt(now time.Time) bool {
	return IsLockedOut(u.LockedUntil, now)
}

// RecordFailure increments the failure counter and sets lockout if threshold reached.
func (u *User) RecordFailure(now time.Time) {
	u.FailedAttempts++
	u.LockedUntil = ComputeLockoutTime(u.FailedAttempts, now)
	u.UpdatedAt = now
}

// RecordSuccess resets failure counter and lockout.
func (u *User) RecordSuccess(now time.Time) {
	u.FailedAttempts, u.LockedUntil = ResetOnSuccess()
	u.UpdatedAt = now
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) *domainerr.Error {
	switch {
	case username == "":
		return domainerr.Validation("username", username, "username cannot be empty")
	case len(username) < MinUsernameLength:
		return domainerr.Validation("username", username, "username is too short").
			WithMetadata("min", MinUsernameLength)
	case len(username) > MaxUsernameLength:
		return domainerr.Validation("username", username, "username is too long").
			WithMetadata("max", MaxUsernameLength)
	case !usernameRegex.MatchString(username):
		return domainerr.Validation("username", username,
			"username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidatePassword checks password length. The value is never echoed back.
func ValidatePassword(password string) *domainerr.Error {
	switch {
	case len(password) < MinPasswordLength:
		return domainerr.Validation("password", nil, "password is too short").
			WithMetadata("min", MinPasswordLength)
	case len(password) > MaxPasswordLength:
		return domainerr.Validation("password", nil, "password is too long").
			WithMetadata("max", MaxPasswordLength)
	}
	return nil
}
