// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package domainerr defines the structured error taxonomy shared by the
// domain and application layers.
//
// Every error carries a stable machine-readable code, a category, a severity
// and an operational flag. Operational errors describe anticipated failures
// whose message was written for end users; everything else is treated as an
// internal fault and redacted by SafeResponse before it reaches a caller.
//
// Errors are immutable and can only be built through the category factories
// (Validation, NotFound, Duplicated, ...). A factory that is handed an empty
// required field returns a non-operational construction error instead.
package domainerr

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// Category classifies an error for routing and exposure decisions.
type Category string

// Error categories.
const (
	CategoryValidation      Category = "Validation"
	CategoryNotFound        Category = "NotFound"
	CategoryDuplicated      Category = "Duplicated"
	CategoryAuthentication  Category = "Authentication"
	CategoryAuthorization   Category = "Authorization"
	CategoryConflict        Category = "Conflict"
	CategoryInternal        Category = "Internal"
	CategoryExternalService Category = "ExternalService"
)

// Severity ranks how urgently operators should look at an error.
type Severity string

// Error severities.
const (
	SeverityInfo     Severity = "Info"
	SeverityWarning  Severity = "Warning"
	SeverityError    Severity = "Error"
	SeverityCritical Severity = "Critical"
)

// Stable error codes.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicated          = "DUPLICATED"
	CodeForbidden           = "FORBIDDEN"
	CodeRateLimited         = "RATE_LIMITED"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeExternalUnavailable = "EXTERNAL_SERVICE_UNAVAILABLE"
	CodeInvalidConstruction = "ERROR_CONSTRUCTION_INVALID"
)

const (
	defaultInternalMessage      = "internal error"
	defaultAuthenticationReason = "authentication failed"
)

// now is swapped in tests that need stable timestamps.
var now = time.Now

// Error is an immutable domain error value.
type Error struct {
	code        string
	category    Category
	severity    Severity
	operational bool
	message     string
	metadata    map[string]any
	timestamp   time.Time
	cause       error
}

func newError(code string, category Category, severity Severity, operational bool, message string, metadata map[string]any) *Error {
	return &Error{
		code:        code,
		category:    category,
		severity:    severity,
		operational: operational,
		message:     message,
		metadata:    metadata,
		timestamp:   now().UTC(),
	}
}

// invalidConstruction reports a factory called without a required field.
func invalidConstruction(factory, field string) *Error {
	return newError(CodeInvalidConstruction, CategoryInternal, SeverityCritical, false,
		fmt.Sprintf("%s requires a non-empty %s", factory, field),
		map[string]any{"factory": factory, "missing_field": field})
}

// Validation reports malformed input for field. value is the offending input.
func Validation(field string, value any, message string) *Error {
	if field == "" {
		return invalidConstruction("Validation", "field")
	}
	if message == "" {
		message = "invalid " + field
	}
	return newError(CodeValidationFailed, CategoryValidation, SeverityInfo, true, message,
		map[string]any{"field": field, "value": value})
}

// NotFound reports that an entity referenced by identifier does not exist.
func NotFound(entityName, identifier string) *Error {
	if entityName == "" {
		return invalidConstruction("NotFound", "entityName")
	}
	md := map[string]any{"entity": entityName}
	if identifier != "" {
		md["identifier"] = identifier
	}
	return newError(CodeNotFound, CategoryNotFound, SeverityInfo, true, entityName+" not found", md)
}

// Duplicated reports a uniqueness violation on entityName.
func Duplicated(entityName, identifier string) *Error {
	if entityName == "" {
		return invalidConstruction("Duplicated", "entityName")
	}
	if identifier == "" {
		return invalidConstruction("Duplicated", "identifier")
	}
	return newError(CodeDuplicated, CategoryDuplicated, SeverityWarning, true, entityName+" already exists",
		map[string]any{"entity": entityName, "identifier": identifier})
}

// Authentication reports bad credentials or an unusable token.
func Authentication(code, message string) *Error {
	if code == "" {
		return invalidConstruction("Authentication", "code")
	}
	if message == "" {
		message = defaultAuthenticationReason
	}
	return newError(code, CategoryAuthentication, SeverityWarning, true, message, nil)
}

// Authorization reports that the caller may not perform action on resource.
func Authorization(action, resource string) *Error {
	if action == "" {
		return invalidConstruction("Authorization", "action")
	}
	msg := "not allowed to " + action
	md := map[string]any{"action": action}
	if resource != "" {
		msg += " " + resource
		md["resource"] = resource
	}
	return newError(CodeForbidden, CategoryAuthorization, SeverityWarning, true, msg, md)
}

// RateLimited reports a caller that exceeded its request budget.
func RateLimited(retryAfter time.Duration) *Error {
	return newError(CodeRateLimited, CategoryAuthorization, SeverityWarning, true, "too many requests, slow down",
		map[string]any{"retry_after_seconds": int(retryAfter.Round(time.Second).Seconds())})
}

// Conflict reports a concurrent mutation that lost against another writer.
func Conflict(entityName, message string) *Error {
	if entityName == "" {
		return invalidConstruction("Conflict", "entityName")
	}
	if message == "" {
		message = entityName + " was modified concurrently"
	}
	return newError(CodeConflict, CategoryConflict, SeverityWarning, true, message,
		map[string]any{"entity": entityName})
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(code string, cause error) *Error {
	if code == "" {
		code = CodeInternal
	}
	e := newError(code, CategoryInternal, SeverityError, false, defaultInternalMessage, nil)
	e.cause = cause
	return e
}

// ExternalService wraps a failure talking to a collaborator such as a signer.
func ExternalService(service string, cause error) *Error {
	if service == "" {
		return invalidConstruction("ExternalService", "service")
	}
	e := newError(CodeExternalUnavailable, CategoryExternalService, SeverityError, false,
		service+" unavailable", map[string]any{"service": service})
	e.cause = cause
	return e
}

func (e *Error) clone() *Error {
	c := *e
	c.metadata = maps.Clone(e.metadata)
	return &c
}

// WithSeverity returns a copy with severity s.
func (e *Error) WithSeverity(s Severity) *Error {
	c := e.clone()
	c.severity = s
	return c
}

// WithMetadata returns a copy with key set to value.
func (e *Error) WithMetadata(key string, value any) *Error {
	c := e.clone()
	if c.metadata == nil {
		c.metadata = make(map[string]any, 1)
	}
	c.metadata[key] = value
	return c
}

// WithCause returns a copy wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.cause = cause
	return c
}

// Code returns the stable machine-readable code.
func (e *Error) Code() string { return e.code }

// Category returns the error category.
func (e *Error) Category() Category { return e.category }

// Severity returns the error severity.
func (e *Error) Severity() Severity { return e.severity }

// Operational reports whether the error is expected and safe to show callers.
func (e *Error) Operational() bool { return e.operational }

// Message returns the caller-facing message.
func (e *Error) Message() string { return e.message }

// Timestamp returns when the error was constructed (UTC).
func (e *Error) Timestamp() time.Time { return e.timestamp }

// Metadata returns a copy of the error's key-value context.
func (e *Error) Metadata() map[string]any { return maps.Clone(e.metadata) }

// Name returns the error's type name, e.g. "AuthenticationError".
func (e *Error) Name() string {
	if e.category == "" {
		return "InternalError"
	}
	return string(e.category) + "Error"
}

// Error implements error. The cause is appended for log output.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.code + ": " + e.message + ": " + e.cause.Error()
	}
	return e.code + ": " + e.message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is a domain error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t != nil && e.code == t.code
}

// As extracts a domain error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) && de != nil {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the first domain error in err's chain,
// or an empty string when there is none.
func CodeOf(err error) string {
	if de, ok := As(err); ok {
		return de.code
	}
	return ""
}

// CategoryOf returns the category of the first domain error in err's chain.
// Foreign errors are reported as Internal.
func CategoryOf(err error) Category {
	if de, ok := As(err); ok {
		return de.category
	}
	return CategoryInternal
}
