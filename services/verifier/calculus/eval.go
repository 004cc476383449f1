// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file is the guarded evaluation layer between the engines and the
// symbolic kernel. The kernel panics on degenerate arithmetic (division by
// zero during rational simplification, NaN floats becoming nil rationals),
// so every kernel call made on behalf of a request goes through one of these
// wrappers and comes back as a value or an error, never a panic.
package calculus

import (
	"fmt"
	"math"
	"sort"

	"github.com/njchilds90/gosymbol"
)

const (
	defaultTolerance = 1e-10
	equivPoints      = 10
	probePoints      = 5
)

// evalAt substitutes an assignment into e and evaluates to a finite float.
// A nil assignment evaluates the expression as-is (constant case).
func evalAt(e gosymbol.Expr, assign map[string]float64) (f float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = 0
			err = &EvaluationError{Reason: fmt.Sprintf("kernel fault: %v", r)}
		}
	}()

	cur := e
	for name, v := range assign {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &EvaluationError{Reason: "non-finite substitution value"}
		}
		cur = cur.Sub(name, gosymbol.NFloat(v))
	}
	n, ok := cur.Eval()
	if !ok || n == nil {
		return 0, &EvaluationError{Reason: "expression is not numerically evaluable"}
	}
	f = n.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &EvaluationError{Reason: "non-finite result"}
	}
	return f, nil
}

// constValue evaluates a symbol-free expression to a finite float.
func constValue(e gosymbol.Expr) (float64, bool) {
	v, err := evalAt(e, nil)
	return v, err == nil
}

// simplified runs the full simplification stack. On a kernel fault the
// input is returned unchanged; the caller falls through to numeric checks.
func simplified(e gosymbol.Expr) (out gosymbol.Expr) {
	out = e
	defer func() {
		if r := recover(); r != nil {
			out = e
		}
	}()
	out = gosymbol.TrigSimplify(gosymbol.DeepSimplify(e))
	return out
}

// derivativeOf differentiates e with respect to variable.
func derivativeOf(e gosymbol.Expr, variable string) (out gosymbol.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &ComputationFault{Op: "differentiation", Detail: fmt.Sprint(r)}
		}
	}()
	return gosymbol.Diff(e, variable), nil
}

// antiderivativeOf integrates e with respect to variable. The kernel's
// integrator is rule-based and refuses what it cannot handle.
func antiderivativeOf(e gosymbol.Expr, variable string) (out gosymbol.Expr, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &ComputationFault{Op: "integration", Detail: fmt.Sprint(r)}
		}
	}()
	res, ok := gosymbol.Integrate(e, variable)
	if !ok {
		return nil, &ComputationFault{Op: "integration", Detail: "no antiderivative found for " + e.String()}
	}
	return res, nil
}

// symbolicLimit asks the kernel for a two-sided limit, shielding its
// L'Hopital/Taylor machinery.
func symbolicLimit(e gosymbol.Expr, variable string, point gosymbol.Expr) (res gosymbol.LimitResult) {
	defer func() {
		if r := recover(); r != nil {
			res = gosymbol.LimitResult{Success: false, Error: fmt.Sprintf("kernel fault: %v", r)}
		}
	}()
	return gosymbol.Limit(e, variable, point)
}

// symbolicEqual reports whether a and b are provably equal by exact
// manipulation: structural equality of the simplified forms, the difference
// collapsing to zero (which catches the Pythagorean trig rewrite), or, for
// univariate polynomials, per-degree coefficient collection of the
// difference. Anything unproven here falls to the numeric path.
func symbolicEqual(a, b gosymbol.Expr) (eq bool) {
	defer func() {
		if r := recover(); r != nil {
			eq = false
		}
	}()
	if a.Equal(b) {
		return true
	}
	diff := simplified(gosymbol.AddOf(a, gosymbol.MulOf(gosymbol.N(-1), b)))
	if n, ok := diff.(*gosymbol.Num); ok {
		return n.IsZero()
	}
	if syms := freeSymbols(diff); len(syms) == 1 && isPolynomialIn(diff, syms[0]) {
		collected := gosymbol.Collect(gosymbol.Expand(diff), syms[0])
		if n, ok := collected.(*gosymbol.Num); ok {
			return n.IsZero()
		}
	}
	return false
}

// isPolynomialIn reports whether e is a polynomial in variable with
// nonnegative integer exponents, the precondition for coefficient
// collection.
func isPolynomialIn(e gosymbol.Expr, variable string) bool {
	switch v := e.(type) {
	case *gosymbol.Num, *gosymbol.Sym:
		return true
	case *gosymbol.Add:
		for _, t := range v.Terms() {
			if !isPolynomialIn(t, variable) {
				return false
			}
		}
		return true
	case *gosymbol.Mul:
		for _, f := range v.Factors() {
			if !isPolynomialIn(f, variable) {
				return false
			}
		}
		return true
	case *gosymbol.Pow:
		n, ok := v.ExpExpr().(*gosymbol.Num)
		if !ok || !n.IsInteger() || n.IsNegative() {
			return false
		}
		return isPolynomialIn(v.Base(), variable)
	}
	return false
}

// freeSymbols returns the sorted union of free symbols across expressions.
func freeSymbols(exprs ...gosymbol.Expr) []string {
	seen := map[string]struct{}{}
	for _, e := range exprs {
		for name := range gosymbol.FreeSymbols(e) {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// closeEnough compares two floats within an absolute tolerance. Engine
// evaluation is exact rational arithmetic: equal expressions produce a
// diff of exactly zero, so no relative slack is applied.
func closeEnough(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// numericEqual compares two expressions at sampled points.
//
// Points where either side fails to evaluate are skipped and do not count
// against the match. When every point is skipped the result is vacuously
// true; tested reports how many points actually contributed so callers can
// surface that. With no free symbols the two constants are compared
// directly.
func numericEqual(a, b gosymbol.Expr, symbols []string, count int, tol float64, s *Sampler) (match bool, tested int) {
	if len(symbols) == 0 {
		va, errA := evalAt(a, nil)
		vb, errB := evalAt(b, nil)
		if errA != nil || errB != nil {
			return false, 0
		}
		return closeEnough(va, vb, tol), 1
	}

	for _, assign := range s.Assignments(symbols, count) {
		va, errA := evalAt(a, assign)
		if errA != nil {
			continue
		}
		vb, errB := evalAt(b, assign)
		if errB != nil {
			continue
		}
		tested++
		if !closeEnough(va, vb, tol) {
			return false, tested
		}
	}
	return true, tested
}
