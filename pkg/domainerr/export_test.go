// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package domainerr

import "time"

// SetNow replaces the timestamp source until the returned func is called.
func SetNow(f func() time.Time) (restore func()) {
	prev := now
	now = f
	return func() { now = prev }
}
