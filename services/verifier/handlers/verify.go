// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers provides HTTP request handlers for the verifier service.
//
// This file implements the six verification endpoints. Each handler binds
// its request record, runs the matching calculus engine under a wall-clock
// budget, and returns the engine result as-is. Engines never raise: unsafe
// input, parse failures, and computation faults all come back as a
// well-formed result whose details carry an "error" string, so these
// handlers only ever answer 200 or, on a malformed body, 400.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ApexPrepAI/apcalc/services/verifier/calculus"
	"github.com/ApexPrepAI/apcalc/services/verifier/datatypes"
	"github.com/ApexPrepAI/apcalc/services/verifier/observability"
)

// =============================================================================
// Budget Enforcement
// =============================================================================

// runWithBudget executes fn in its own goroutine and waits at most budget
// for it to finish. On expiry the goroutine is abandoned; pathological
// expressions leak one goroutine until the kernel call returns, which is
// acceptable for the input sizes this service accepts.
func runWithBudget[T any](budget time.Duration, onTimeout T, fn func() T) (T, bool) {
	done := make(chan T, 1)
	go func() {
		done <- fn()
	}()
	select {
	case res := <-done:
		return res, false
	case <-time.After(budget):
		return onTimeout, true
	}
}

func timeoutResult(mode string, budget time.Duration) calculus.Result {
	return calculus.Result{
		Equivalent: false,
		Details: map[string]any{
			"error": fmt.Sprintf("%s verification exceeded the %s budget", mode, budget),
		},
	}
}

// rejectionReason buckets an engine error string for metrics.
func rejectionReason(msg string) string {
	switch {
	case strings.HasPrefix(msg, "unsafe"):
		return "unsafe_input"
	case strings.Contains(msg, "computation fault") || strings.Contains(msg, "unable to"):
		return "computation"
	default:
		return "parse_error"
	}
}

func record(m *observability.VerifierMetrics, mode observability.Mode,
	res calculus.Result, timedOut bool, started time.Time) {
	if m == nil {
		return
	}
	if timedOut {
		m.RecordTimeout(mode)
		return
	}
	if msg, ok := res.Details["error"].(string); ok {
		m.RecordRejection(mode, rejectionReason(msg))
		return
	}
	m.RecordVerification(mode, res.Equivalent, time.Since(started).Seconds())
}

// =============================================================================
// Verification Handlers
// =============================================================================

// HandleDerivative verifies a claimed derivative.
//
// # Description
//
// POST /calc/derivative. Binds {expr, var, expected, tolerance?} and
// reports whether expected is d/dvar(expr).
func HandleDerivative(metrics *observability.VerifierMetrics, budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.DerivativeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rejectBinding(c, metrics, observability.ModeDerivative, err)
			return
		}
		started := time.Now()
		res, timedOut := runWithBudget(budget, timeoutResult("derivative", budget), func() calculus.Result {
			return calculus.CheckDerivative(req.Expr, req.Var, req.Expected,
				calculus.Options{Tolerance: req.Tolerance})
		})
		record(metrics, observability.ModeDerivative, res, timedOut, started)
		c.JSON(http.StatusOK, res)
	}
}

// HandleIntegral verifies a claimed antiderivative.
//
// # Description
//
// POST /calc/integral. Binds {expr, var, expected, constant_free?,
// tolerance?}. With constant_free (the default) additive constants on both
// sides are ignored, so x^2 and x^2+C both verify against 2x.
func HandleIntegral(metrics *observability.VerifierMetrics, budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.IntegralRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rejectBinding(c, metrics, observability.ModeIntegral, err)
			return
		}
		started := time.Now()
		res, timedOut := runWithBudget(budget, timeoutResult("integral", budget), func() calculus.Result {
			return calculus.CheckIntegral(req.Expr, req.Var, req.Expected,
				req.WantsConstantFree(), calculus.Options{Tolerance: req.Tolerance})
		})
		record(metrics, observability.ModeIntegral, res, timedOut, started)
		c.JSON(http.StatusOK, res)
	}
}

// HandleLimit verifies that a limit exists and is finite.
//
// # Description
//
// POST /calc/limit. Binds {expr, var, to, direction?, tolerance?}. The
// approach point may arrive as a string expression or a bare number.
func HandleLimit(metrics *observability.VerifierMetrics, budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LimitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rejectBinding(c, metrics, observability.ModeLimit, err)
			return
		}
		started := time.Now()
		res, timedOut := runWithBudget(budget, timeoutResult("limit", budget), func() calculus.Result {
			return calculus.CheckLimit(req.Expr, req.Var, string(req.To),
				calculus.Direction(req.EffectiveDirection()),
				calculus.Options{Tolerance: req.Tolerance})
		})
		record(metrics, observability.ModeLimit, res, timedOut, started)
		c.JSON(http.StatusOK, res)
	}
}

// HandleAlgebra verifies that two expressions are equivalent.
//
// # Description
//
// POST /calc/algebra. Binds {lhs, rhs, tolerance?}.
func HandleAlgebra(metrics *observability.VerifierMetrics, budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AlgebraRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rejectBinding(c, metrics, observability.ModeAlgebra, err)
			return
		}
		started := time.Now()
		res, timedOut := runWithBudget(budget, timeoutResult("algebra", budget), func() calculus.Result {
			return calculus.CheckAlgebra(req.Lhs, req.Rhs,
				calculus.Options{Tolerance: req.Tolerance})
		})
		record(metrics, observability.ModeAlgebra, res, timedOut, started)
		c.JSON(http.StatusOK, res)
	}
}

// HandleDimensional checks whether an expression carries unit symbols.
//
// # Description
//
// POST /calc/dimensional. Binds {expr, expected_unit}. This is a
// best-effort token scan, not a unit-algebra check; the result's note
// field says so.
func HandleDimensional(metrics *observability.VerifierMetrics, budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.DimensionalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rejectBinding(c, metrics, observability.ModeDimensional, err)
			return
		}
		started := time.Now()
		res, timedOut := runWithBudget(budget, timeoutResult("dimensional", budget), func() calculus.Result {
			return calculus.CheckDimensional(req.Expr, req.ExpectedUnit)
		})
		record(metrics, observability.ModeDimensional, res, timedOut, started)
		c.JSON(http.StatusOK, res)
	}
}

// HandleNumericProbe samples an expression at random points.
//
// # Description
//
// POST /calc/numeric-probe. Binds {expr, num_points?} and reports how
// many sampled evaluations produced finite values.
func HandleNumericProbe(metrics *observability.VerifierMetrics, budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.NumericProbeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			rejectBinding(c, metrics, observability.ModeNumericProbe, err)
			return
		}
		started := time.Now()
		onTimeout := calculus.ProbeResult{
			Valid: false,
			Details: map[string]any{
				"error": fmt.Sprintf("numeric probe exceeded the %s budget", budget),
			},
		}
		res, timedOut := runWithBudget(budget, onTimeout, func() calculus.ProbeResult {
			return calculus.NumericProbe(req.Expr, req.NumPoints, calculus.Options{})
		})
		if metrics != nil {
			switch {
			case timedOut:
				metrics.RecordTimeout(observability.ModeNumericProbe)
			default:
				if msg, ok := res.Details["error"].(string); ok {
					metrics.RecordRejection(observability.ModeNumericProbe, rejectionReason(msg))
				} else {
					metrics.RecordVerification(observability.ModeNumericProbe, res.Valid,
						time.Since(started).Seconds())
				}
			}
		}
		c.JSON(http.StatusOK, res)
	}
}

func rejectBinding(c *gin.Context, m *observability.VerifierMetrics,
	mode observability.Mode, err error) {
	slog.Warn("rejected malformed verification request",
		"mode", string(mode), "error", err)
	if m != nil {
		m.RecordRejection(mode, "validation")
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
