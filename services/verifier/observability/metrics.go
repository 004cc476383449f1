// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the verifier.
//
// # Description
//
// This package implements Prometheus metrics for monitoring verification
// requests. Metrics include:
//   - Verification counters (by mode and verdict)
//   - Rejection counters (by mode and reason: unsafe input, parse failure)
//   - Latency histograms (per mode)
//   - Budget-timeout counters
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "apcalc"

// Subsystem for verification metrics
const verifierSubsystem = "verifier"

// VerifierMetrics holds all Prometheus metrics for verification operations.
//
// # Fields
//
//   - VerificationsTotal: Counter of completed verifications by mode and verdict
//   - RejectionsTotal: Counter of rejected inputs by mode and reason
//   - VerificationDurationSeconds: Histogram of engine latency by mode
//   - TimeoutsTotal: Counter of verifications cut off by the wall-clock budget
//
// # Thread Safety
//
// All operations are thread-safe.
type VerifierMetrics struct {
	// VerificationsTotal counts completed verifications.
	// Labels: mode (derivative, integral, limit, algebra, dimensional,
	// numeric_probe), verdict (equivalent, not_equivalent)
	VerificationsTotal *prometheus.CounterVec

	// RejectionsTotal counts inputs that never reached a verdict.
	// Labels: mode, reason (unsafe_input, parse_error, validation)
	RejectionsTotal *prometheus.CounterVec

	// VerificationDurationSeconds measures engine latency.
	// Labels: mode
	VerificationDurationSeconds *prometheus.HistogramVec

	// TimeoutsTotal counts verifications that exceeded the budget.
	// Labels: mode
	TimeoutsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of VerifierMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *VerifierMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once at
// application startup, before the router starts serving.
//
// # Outputs
//
//   - *VerifierMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *VerifierMetrics {
	DefaultMetrics = &VerifierMetrics{
		VerificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "verifications_total",
				Help:      "Total completed verifications by mode and verdict",
			},
			[]string{"mode", "verdict"},
		),

		RejectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "rejections_total",
				Help:      "Total rejected verification inputs by mode and reason",
			},
			[]string{"mode", "reason"},
		),

		VerificationDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "verification_duration_seconds",
				Help:      "Engine latency per verification mode",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"mode"},
		),

		TimeoutsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: verifierSubsystem,
				Name:      "timeouts_total",
				Help:      "Total verifications cut off by the wall-clock budget",
			},
			[]string{"mode"},
		),
	}

	return DefaultMetrics
}

// Mode represents a verification mode for metrics labeling.
type Mode string

const (
	ModeDerivative   Mode = "derivative"
	ModeIntegral     Mode = "integral"
	ModeLimit        Mode = "limit"
	ModeAlgebra      Mode = "algebra"
	ModeDimensional  Mode = "dimensional"
	ModeNumericProbe Mode = "numeric_probe"
)

// RecordVerification records a completed verification.
//
// # Inputs
//
//   - mode: The verification mode.
//   - equivalent: The verdict the engine returned.
//   - seconds: Engine latency in seconds.
func (m *VerifierMetrics) RecordVerification(mode Mode, equivalent bool, seconds float64) {
	verdict := "not_equivalent"
	if equivalent {
		verdict = "equivalent"
	}
	m.VerificationsTotal.WithLabelValues(string(mode), verdict).Inc()
	m.VerificationDurationSeconds.WithLabelValues(string(mode)).Observe(seconds)
}

// RecordRejection records an input that never reached a verdict.
//
// # Inputs
//
//   - mode: The verification mode.
//   - reason: Why the input was rejected.
func (m *VerifierMetrics) RecordRejection(mode Mode, reason string) {
	m.RejectionsTotal.WithLabelValues(string(mode), reason).Inc()
}

// RecordTimeout records a verification cut off by the budget.
func (m *VerifierMetrics) RecordTimeout(mode Mode) {
	m.TimeoutsTotal.WithLabelValues(string(mode)).Inc()
}
