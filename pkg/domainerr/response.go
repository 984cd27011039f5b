// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package domainerr

import (
	"net/http"
	"time"
)

// GenericMessage replaces the message of every non-operational error.
const GenericMessage = "An unexpected error occurred"

// timestampLayout is ISO-8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Response is the caller-safe rendering of an error.
type Response struct {
	Name      string         `json:"name"`
	Message   string         `json:"message"`
	Code      string         `json:"code"`
	Category  Category       `json:"category"`
	Severity  Severity       `json:"severity"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SafeResponse renders err for a caller. Operational domain errors keep
// their message and metadata. Everything else, including foreign errors and
// nil, collapses to a generic internal error that keeps only the code,
// category and severity for correlation with server logs.
func SafeResponse(err error) Response {
	de, ok := As(err)
	if !ok {
		return Response{
			Name:      "InternalError",
			Message:   GenericMessage,
			Code:      CodeInternal,
			Category:  CategoryInternal,
			Severity:  SeverityError,
			Timestamp: formatTimestamp(time.Time{}),
		}
	}

	code := de.code
	if code == "" {
		code = CodeInternal
	}
	category := de.category
	if category == "" {
		category = CategoryInternal
	}
	severity := de.severity
	if severity == "" {
		severity = SeverityError
	}

	if !de.operational {
		return Response{
			Name:      "InternalError",
			Message:   GenericMessage,
			Code:      code,
			Category:  category,
			Severity:  severity,
			Timestamp: formatTimestamp(de.timestamp),
		}
	}

	return Response{
		Name:      de.Name(),
		Message:   de.message,
		Code:      code,
		Category:  category,
		Severity:  severity,
		Timestamp: formatTimestamp(de.timestamp),
		Metadata:  de.Metadata(),
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = now()
	}
	return ts.UTC().Format(timestampLayout)
}

// HTTPStatus maps a category to the status code a boundary should send.
func HTTPStatus(c Category) int {
	switch c {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryDuplicated, CategoryConflict:
		return http.StatusConflict
	case CategoryAuthentication:
		return http.StatusUnauthorized
	case CategoryAuthorization:
		return http.StatusForbidden
	case CategoryExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf is HTTPStatus for an arbitrary error, with rate limiting
// reported as 429.
func StatusOf(err error) int {
	if CodeOf(err) == CodeRateLimited {
		return http.StatusTooManyRequests
	}
	return HTTPStatus(CategoryOf(err))
}
