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

// CheckAlgebra verifies that two expressions are algebraically equivalent.
//
// # Description
//
// Simplifies both sides and tries an exact symbolic proof, including the
// Pythagorean trig rewrite, before falling back to sampled evaluation over
// the union of free symbols. Two constant expressions are compared directly
// within tolerance.
//
// # Inputs
//
//   - lhs, rhs: the two expressions
//   - opts: tolerance and sampler overrides
//
// # Outputs
//
//   - Result with details {lhs, rhs, symbolic_match, numerical_match} or an
//     error string
func CheckAlgebra(lhs, rhs string, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("internal computation fault: %v", r))
		}
	}()

	left, err := SafeParse(lhs)
	if err != nil {
		return failure(err.Error())
	}
	right, err := SafeParse(rhs)
	if err != nil {
		return failure(err.Error())
	}

	leftS := simplified(left)
	rightS := simplified(right)
	details := map[string]any{
		"lhs":             leftS.String(),
		"rhs":             rightS.String(),
		"symbolic_match":  false,
		"numerical_match": false,
	}

	if symbolicEqual(leftS, rightS) {
		details["symbolic_match"] = true
		return Result{Equivalent: true, Details: details}
	}

	match, tested := numericEqual(leftS, rightS, freeSymbols(leftS, rightS), equivPoints, opts.tolerance(), opts.sampler())
	details["numerical_match"] = match
	details["points_tested"] = tested
	return Result{Equivalent: match, Details: details}
}
