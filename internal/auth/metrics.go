// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TeamForge Contributors

package auth

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teamforge/teamforge/pkg/domainerr"
)

// Auth metrics. They are package-level so use cases can record without a
// handle; RegisterMetrics exposes them on a registry.
var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamforge_auth_logins_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamforge_auth_refresh_total",
			Help: "Total number of refresh token exchanges by outcome",
		},
		[]string{"outcome"},
	)

	rotationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teamforge_auth_rotation_failures_total",
			Help: "Total number of refresh token rotations that failed after lookup",
		},
	)

	logoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "teamforge_auth_logouts_total",
			Help: "Total number of refresh tokens revoked by logout",
		},
	)

	sessionVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamforge_auth_session_verifications_total",
			Help: "Total number of access token verifications by result",
		},
		[]string{"result"},
	)
)

// RegisterMetrics registers the auth metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(loginsTotal, refreshTotal, rotationFailures, logoutsTotal, sessionVerifications)
}

// outcomeLabel keeps label cardinality bounded: "success" or the error
// category in snake case.
func outcomeLabel(err *domainerr.Error) string {
	if err == nil {
		return "success"
	}
	c := string(err.Category())
	var b strings.Builder
	for i, r := range c {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
