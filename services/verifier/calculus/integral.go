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

	"github.com/njchilds90/gosymbol"

	"github.com/ApexPrepAI/apcalc/pkg/validation"
)

// CheckIntegral verifies that expected is an antiderivative of expr with
// respect to variable.
//
// # Description
//
// Integrates expr symbolically and compares against expected. With
// constantFree set (the usual mode), additive terms not containing the
// integration variable are stripped from both sides first, since constants
// of integration are interchangeable. With constantFree false the constant
// terms must match exactly.
//
// # Inputs
//
//   - expr: the integrand
//   - variable: integration variable
//   - expected: the student's claimed antiderivative
//   - constantFree: strip variable-free additive terms before comparing
//   - opts: tolerance and sampler overrides
//
// # Outputs
//
//   - Result with details {computed, expected, computed_clean,
//     expected_clean, symbolic_match, numerical_match, constant_free} or an
//     error string
func CheckIntegral(expr, variable, expected string, constantFree bool, opts Options) (res Result) {
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

	computed, err := antiderivativeOf(parsed, variable)
	if err != nil {
		return failure(err.Error())
	}

	computedS := simplified(computed)
	wantS := simplified(want)

	computedClean := computedS
	wantClean := wantS
	if constantFree {
		computedClean = simplified(stripConstantTerms(computedS, variable))
		wantClean = simplified(stripConstantTerms(wantS, variable))
	}

	details := map[string]any{
		"computed":        computedS.String(),
		"expected":        wantS.String(),
		"computed_clean":  computedClean.String(),
		"expected_clean":  wantClean.String(),
		"constant_free":   constantFree,
		"symbolic_match":  false,
		"numerical_match": false,
	}

	if symbolicEqual(computedClean, wantClean) {
		details["symbolic_match"] = true
		return Result{Equivalent: true, Details: details}
	}

	match, tested := numericEqual(computedClean, wantClean, freeSymbols(computedClean, wantClean), equivPoints, opts.tolerance(), opts.sampler())
	details["numerical_match"] = match
	details["points_tested"] = tested
	return Result{Equivalent: match, Details: details}
}

// stripConstantTerms removes additive terms with no dependence on variable.
// A sum keeps only summands containing the variable, collapsing to zero when
// none do; a non-sum expression is kept iff it contains the variable.
func stripConstantTerms(e gosymbol.Expr, variable string) gosymbol.Expr {
	if add, ok := e.(*gosymbol.Add); ok {
		var kept []gosymbol.Expr
		for _, t := range add.Terms() {
			if dependsOn(t, variable) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			return gosymbol.N(0)
		}
		return gosymbol.AddOf(kept...)
	}
	if dependsOn(e, variable) {
		return e
	}
	return gosymbol.N(0)
}

func dependsOn(e gosymbol.Expr, variable string) bool {
	_, ok := gosymbol.FreeSymbols(e)[variable]
	return ok
}
