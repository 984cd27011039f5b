// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import "time"

// Clock supplies the current time. Every expiry decision in the package goes
// through it so tests can pin time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
