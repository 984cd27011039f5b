// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package result provides a two-variant success/failure container.
//
// A Result holds either a value or an error, never both. Application code
// builds one with Ok or Err and consumes it with Match, Value/Error, or the
// Map/AndThen combinators. Unpack bridges back to Go's (value, error) pair
// at the edges where a Result meets plain Go code.
package result

// Result is either a success holding a T or a failure holding an E.
// The zero Result is a failure with a zero E; always construct with Ok or Err.
type Result[T any, E error] struct {
	value T
	err   E
	ok    bool
}

// Ok returns a successful Result holding v.
func Ok[T any, E error](v T) Result[T, E] {
	return Result[T, E]{value: v, ok: true}
}

// Err returns a failed Result holding e.
func Err[T any, E error](e E) Result[T, E] {
	return Result[T, E]{err: e}
}

// From lifts a (value, error) pair into a Result. A non-nil err is converted
// with wrap; a nil err yields Ok(v).
func From[T any, E error](v T, err error, wrap func(error) E) Result[T, E] {
	if err != nil {
		return Err[T](wrap(err))
	}
	return Ok[T, E](v)
}

// IsOk reports whether the Result is a success.
func (r Result[T, E]) IsOk() bool { return r.ok }

// IsErr reports whether the Result is a failure.
func (r Result[T, E]) IsErr() bool { return !r.ok }

// Value returns the success value. On failure it returns the zero T and false.
func (r Result[T, E]) Value() (T, bool) {
	if !r.ok {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Error returns the failure. On success it returns the zero E and false.
func (r Result[T, E]) Error() (E, bool) {
	if r.ok {
		var zero E
		return zero, false
	}
	return r.err, true
}

// Unpack converts the Result to Go's (value, error) convention.
// On success the returned error is an untyped nil.
func (r Result[T, E]) Unpack() (T, error) {
	if r.ok {
		return r.value, nil
	}
	var zero T
	return zero, r.err
}

// UnwrapOr returns the success value, or fallback on failure.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	if r.ok {
		return r.value
	}
	return fallback
}

// Match calls onOk with the value or onErr with the error. Exactly one runs.
func (r Result[T, E]) Match(onOk func(T), onErr func(E)) {
	if r.ok {
		onOk(r.value)
		return
	}
	onErr(r.err)
}

// Map applies f to a success value. Failures pass through untouched.
func Map[T, U any, E error](r Result[T, E], f func(T) U) Result[U, E] {
	if !r.ok {
		return Err[U](r.err)
	}
	return Ok[U, E](f(r.value))
}

// AndThen chains a fallible step onto a success value.
// Failures short-circuit without calling f.
func AndThen[T, U any, E error](r Result[T, E], f func(T) Result[U, E]) Result[U, E] {
	if !r.ok {
		return Err[U](r.err)
	}
	return f(r.value)
}

// MapErr converts the failure with f. Successes pass through untouched.
func MapErr[T any, E, F error](r Result[T, E], f func(E) F) Result[T, F] {
	if r.ok {
		return Ok[T, F](r.value)
	}
	return Err[T](f(r.err))
}
