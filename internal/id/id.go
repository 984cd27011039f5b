// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package id provides branded identifiers.
//
// ID[K] wraps a canonical ULID string and is parameterised by a marker kind,
// so a UserID can never be passed where a RefreshTokenID is expected. The
// mix-up is a compile error, not a runtime check.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/result"
)

// Kind is implemented by the zero-size marker types below.
type Kind interface {
	KindName() string
}

// User marks user identifiers.
type User struct{}

// KindName implements Kind.
func (User) KindName() string { return "user" }

// RefreshToken marks refresh token identifiers.
type RefreshToken struct{}

// KindName implements Kind.
func (RefreshToken) KindName() string { return "refresh_token" }

// Team marks team identifiers.
type Team struct{}

// KindName implements Kind.
func (Team) KindName() string { return "team" }

// PasswordReset marks password reset request identifiers.
type PasswordReset struct{}

// KindName implements Kind.
func (PasswordReset) KindName() string { return "password_reset" }

// Branded identifier aliases.
type (
	UserID          = ID[User]
	RefreshTokenID  = ID[RefreshToken]
	TeamID          = ID[Team]
	PasswordResetID = ID[PasswordReset]
)

// ID is an immutable identifier of kind K. The zero ID is invalid and only
// useful as a "not set" sentinel.
type ID[K Kind] struct {
	value string
}

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// Random generates a new identifier from a cryptographically strong source.
func Random[K Kind]() ID[K] {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ID[K]{value: ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()}
}

// Parse validates raw and returns it as an identifier of kind K.
// No trimming is done: raw must already be a canonical 26-character
// upper-case ULID. The returned ID's String() equals raw.
func Parse[K Kind](raw string) result.Result[ID[K], *domainerr.Error] {
	var k K
	if raw == "" {
		return result.Err[ID[K]](domainerr.Validation(k.KindName(), raw, k.KindName()+" id cannot be empty"))
	}
	parsed, err := ulid.ParseStrict(raw)
	if err != nil || parsed.String() != raw {
		return result.Err[ID[K]](
			domainerr.Validation(k.KindName(), raw, k.KindName()+" id is malformed").WithCause(err),
		)
	}
	return result.Ok[ID[K], *domainerr.Error](ID[K]{value: raw})
}

// MustParse is Parse for literals in tests and fixtures. It panics on invalid input.
func MustParse[K Kind](raw string) ID[K] {
	v, err := Parse[K](raw).Unpack()
	if err != nil {
		panic(err)
	}
	return v
}

// FromULID brands an already-parsed ULID, as scanned by storage adapters.
func FromULID[K Kind](u ulid.ULID) ID[K] {
	if u.Compare(ulid.ULID{}) == 0 {
		return ID[K]{}
	}
	return ID[K]{value: u.String()}
}

// String returns the canonical representation.
func (i ID[K]) String() string { return i.value }

// IsZero reports whether the identifier is unset.
func (i ID[K]) IsZero() bool { return i.value == "" }

// Equal reports whether both identifiers hold the same value.
func (i ID[K]) Equal(other ID[K]) bool { return i.value == other.value }

// ULID returns the identifier as a ulid.ULID for adapters that store binary ids.
func (i ID[K]) ULID() ulid.ULID {
	u, err := ulid.ParseStrict(i.value)
	if err != nil {
		return ulid.ULID{}
	}
	return u
}

// MarshalText implements encoding.TextMarshaler.
func (i ID[K]) MarshalText() ([]byte, error) {
	return []byte(i.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with the same
// validation as Parse, except that empty input decodes to the zero ID so
// unset identifiers round-trip.
func (i *ID[K]) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = ID[K]{}
		return nil
	}
	v, err := Parse[K](string(b)).Unpack()
	if err != nil {
		return err
	}
	*i = v
	return nil
}
