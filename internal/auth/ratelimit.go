// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"math"
	"time"
)

// Account lockout configuration.
const (
	// LockoutDuration is the time a user is locked out after too many failures.
	LockoutDuration = 15 * time.Minute

	// LockoutThreshold is the number of failures that triggers a lockout.
	LockoutThreshold = 7
)

// LockoutStatus is the result of a lockout check.
type LockoutStatus struct {
	// Locked indicates the account is temporarily locked.
	Locked bool

	// Remaining is the time until the lockout expires.
	Remaining time.Duration
}

// RetryAfterSeconds rounds Remaining up to whole seconds.
func (s LockoutStatus) RetryAfterSeconds() int {
	return int(math.Ceil(s.Remaining.Seconds()))
}

// CheckLockout evaluates the lockout state at now. Only lockedUntil counts:
// a failure counter at the threshold whose lock has expired is not locked,
// and the next failure locks it again.
func CheckLockout(lockedUntil *time.Time, now time.Time) LockoutStatus {
	if !IsLockedOut(lockedUntil, now) {
		return LockoutStatus{}
	}
	return LockoutStatus{Locked: true, Remaining: lockedUntil.Sub(now)}
}

// IsLockedOut returns true if the lockout time is after now.
func IsLockedOut(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(now)
}

// ComputeLockoutTime returns the lockout timestamp for the given failure count.
// Returns nil if failures < LockoutThreshold.
func ComputeLockoutTime(failures int, now time.Time) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	lockout := now.Add(LockoutDuration)
	return &lockout
}

// ResetOnSuccess returns the values to set after a successful login.
// Returns 0 for failed_attempts and nil for locked_until.
func ResetOnSuccess() (int, *time.Time) {
	return 0, nil
}
