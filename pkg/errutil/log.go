// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

// Package errutil holds logging and test helpers shared by every error
// flavour in the codebase.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/teamforge/teamforge/pkg/domainerr"
)

// LogError logs err with structured context.
//
// Domain errors contribute their code, category, severity and operational
// flag; operational ones are logged at warn level since they describe
// expected caller mistakes. Any oops error in the chain (usually the cause of
// an internal domain error) contributes its code and context.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"error", err.Error()}
	level := slog.LevelError

	if de, ok := domainerr.As(err); ok {
		attrs = append(attrs,
			"code", de.Code(),
			"category", string(de.Category()),
			"severity", string(de.Severity()),
			"operational", de.Operational(),
		)
		if md := de.Metadata(); len(md) > 0 {
			attrs = append(attrs, "metadata", md)
		}
		if de.Operational() {
			level = slog.LevelWarn
		}
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "cause_code", code)
		}
		if octx := oopsErr.Context(); len(octx) > 0 {
			attrs = append(attrs, "context", octx)
		}
	}

	logger.Log(ctx, level, msg, attrs...)
}
