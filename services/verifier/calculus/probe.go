// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package calculus

import "fmt"

// NumericProbe checks that an expression is numerically sane.
//
// # Description
//
// Not an equivalence check. A constant expression is valid iff it evaluates
// to a finite real, reported as constant_value with points_tested=0. An
// expression with free symbols is evaluated at numPoints sampled
// assignments; it is valid when at least one evaluation produces a finite
// real. Per-point failures (domain errors, kernel faults) are counted, not
// propagated. sample_results carries the first five computed values.
//
// # Inputs
//
//   - expr: the expression to probe
//   - numPoints: assignments to draw; <=0 selects the default of 5
//   - opts: sampler override
//
// # Outputs
//
//   - ProbeResult with details {points_tested, valid_evaluations,
//     evaluation_errors, sample_results, constant_value?} or an error string
func NumericProbe(expr string, numPoints int, opts Options) (res ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = probeFailure(fmt.Sprintf("internal computation fault: %v", r))
		}
	}()

	parsed, err := SafeParse(expr)
	if err != nil {
		return probeFailure(err.Error())
	}
	if numPoints <= 0 {
		numPoints = probePoints
	}

	symbols := freeSymbols(parsed)
	if len(symbols) == 0 {
		v, verr := evalAt(parsed, nil)
		if verr != nil {
			return probeFailure("constant expression does not evaluate to a finite value: " + verr.Error())
		}
		return ProbeResult{
			Valid: true,
			Details: map[string]any{
				"points_tested":     0,
				"valid_evaluations": 0,
				"evaluation_errors": 0,
				"sample_results":    []float64{},
				"constant_value":    v,
			},
		}
	}

	valid := 0
	failed := 0
	samples := make([]float64, 0, 5)
	for _, assign := range opts.sampler().Assignments(symbols, numPoints) {
		v, verr := evalAt(parsed, assign)
		if verr != nil {
			failed++
			continue
		}
		valid++
		if len(samples) < 5 {
			samples = append(samples, v)
		}
	}

	return ProbeResult{
		Valid: valid > 0,
		Details: map[string]any{
			"points_tested":     numPoints,
			"valid_evaluations": valid,
			"evaluation_errors": failed,
			"sample_results":    samples,
		},
	}
}
