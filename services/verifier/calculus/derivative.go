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

import (
	"fmt"

	"github.com/ApexPrepAI/apcalc/pkg/validation"
)

// CheckDerivative verifies that expected is the derivative of expr with
// respect to variable.
//
// # Description
//
// Differentiates expr symbolically, simplifies both sides, and first tries
// an exact symbolic proof (difference collapses to zero). When the symbolic
// route is inconclusive the two forms are compared at sampled test points.
//
// # Inputs
//
//   - expr: the function being differentiated
//   - variable: differentiation variable
//   - expected: the student's claimed derivative
//   - opts: tolerance and sampler overrides
//
// # Outputs
//
//   - Result with details {computed, expected, symbolic_match,
//     numerical_match, points_tested?} or an error string
func CheckDerivative(expr, variable, expected string, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("internal computation fault: %v", r))
		}
	}()

	if err := validation.ValidateIdentifier(variable); err != nil {
		return failure(err.Error())
	}
	parsed, err := SafeParse(expr)
	if err != nil {
		return failure(err.Error())
	}
	want, err := SafeParse(expected)
	if err != nil {
		return failure(err.Error())
	}

	computed, err := derivativeOf(parsed, variable)
	if err != nil {
		return failure(err.Error())
	}

	computedS := simplified(computed)
	wantS := simplified(want)
	details := map[string]any{
		"computed":        computedS.String(),
		"expected":        wantS.String(),
		"symbolic_match":  false,
		"numerical_match": false,
	}

	if symbolicEqual(computedS, wantS) {
		details["symbolic_match"] = true
		return Result{Equivalent: true, Details: details}
	}

	match, tested := numericEqual(computedS, wantS, freeSymbols(computedS, wantS), equivPoints, opts.tolerance(), opts.sampler())
	details["numerical_match"] = match
	details["points_tested"] = tested
	return Result{Equivalent: match, Details: details}
}
