// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/teamforge/teamforge/internal/auth"
	"github.com/teamforge/teamforge/internal/id"
	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/result"
)

const maxBodyBytes = 1 << 16

type handler struct {
	auth   AuthService
	logger *slog.Logger
}

// LogoutRequest is the body of POST /v1/auth/logout.
type LogoutRequest struct {
	RefreshTokenID string `json:"refresh_token_id"`
}

// SessionResponse is the body of GET /v1/auth/session.
type SessionResponse struct {
	Valid bool `json:"valid"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if de := decode(w, r, &req); de != nil {
		writeError(w, r, h.logger, de)
		return
	}
	respond(w, r, h.logger, http.StatusOK, h.auth.Login(r.Context(), req))
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshRequest
	if de := decode(w, r, &req); de != nil {
		writeError(w, r, h.logger, de)
		return
	}
	respond(w, r, h.logger, http.StatusOK, h.auth.RefreshToken(r.Context(), req))
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if de := decode(w, r, &req); de != nil {
		writeError(w, r, h.logger, de)
		return
	}

	// A malformed id cannot name a stored token, so it is logged out already.
	tokenID, perr := id.Parse[id.RefreshToken](req.RefreshTokenID).Unpack()
	if perr != nil {
		h.logger.DebugContext(r.Context(), "logout with malformed refresh token id",
			"request_id", chimw.GetReqID(r.Context()), "error", perr.Error())
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.auth.Logout(r.Context(), tokenID).Match(
		func(struct{}) { w.WriteHeader(http.StatusNoContent) },
		func(e *domainerr.Error) { writeError(w, r, h.logger, e) },
	)
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) {
	res := result.Map(h.auth.VerifySession(r.Context(), bearerToken(r)), func(valid bool) SessionResponse {
		return SessionResponse{Valid: valid}
	})
	respond(w, r, h.logger, http.StatusOK, res)
}

// bearerToken extracts the token of an "Authorization: Bearer" header, or ""
// when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// decode reads a single JSON object into dst. Unknown fields, trailing data
// and oversized bodies are rejected.
func decode(w http.ResponseWriter, r *http.Request, dst any) *domainerr.Error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domainerr.Validation("body", "", "request body is required")
		case errors.As(err, &tooLarge):
			return domainerr.Validation("body", tooLarge.Limit, "request body is too large")
		default:
			return domainerr.Validation("body", "", "request body is not valid JSON").WithCause(err)
		}
	}
	if dec.More() {
		return domainerr.Validation("body", "", "request body must contain a single JSON object")
	}
	return nil
}
