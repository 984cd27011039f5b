// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/teamforge/teamforge/pkg/domainerr"
	"github.com/teamforge/teamforge/pkg/errutil"
	"github.com/teamforge/teamforge/pkg/result"
)

// respond writes the value of res with status, or its error.
func respond[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, res result.Result[T, *domainerr.Error]) {
	res.Match(
		func(v T) { writeJSON(w, r, logger, status, v) },
		func(e *domainerr.Error) { writeError(w, r, logger, e) },
	)
}

// writeError renders err as a SafeResponse with the status of its category.
// Non-operational errors are logged in full since the client only sees the
// generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	de, ok := domainerr.As(err)
	if !ok || !de.Operational() {
		errutil.LogError(r.Context(), logger, "request failed", err)
	}
	if ok {
		if secs, isInt := de.Metadata()["retry_after_seconds"].(int); isInt && secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	}
	writeJSON(w, r, logger, domainerr.StatusOf(err), domainerr.SafeResponse(err))
}

func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		w.Header().Set("X-Request-Id", reqID)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.DebugContext(r.Context(), "failed to write response", "error", err)
	}
}
