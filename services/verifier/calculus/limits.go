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
	"math"
	"strconv"
	"strings"

	"github.com/njchilds90/gosymbol"

	"github.com/ApexPrepAI/apcalc/pkg/validation"
)

// Direction selects which side(s) a limit is taken from.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionBoth  Direction = "both"
)

const (
	// limitConvergeTol bounds the tail wobble of a convergent probe.
	limitConvergeTol = 1e-6
	// limitDivergeMag is the magnitude past which a monotonically growing
	// probe is declared infinite.
	limitDivergeMag = 1e6
	// limitAgreeTol is how closely the two sides must agree for a two-sided
	// limit to exist.
	limitAgreeTol = 1e-6
)

// sidedLimit is the outcome of one directional probe. value holds the limit
// when finite and ±Inf when the side diverges with consistent sign.
type sidedLimit struct {
	exists bool
	finite bool
	value  float64
}

// oneSidedLimit probes e as variable approaches point from one side,
// stepping h through 1e-1 .. 1e-7. Points that fail to evaluate are
// skipped.
func oneSidedLimit(e gosymbol.Expr, variable string, point, side float64) sidedLimit {
	var vals []float64
	for k := 1; k <= 7; k++ {
		h := math.Pow(10, -float64(k))
		v, err := evalAt(e, map[string]float64{variable: point + side*h})
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return classifyProbe(vals)
}

// limitAtInfinity probes e as variable grows without bound, stepping
// through sign*10^1 .. sign*10^7. There is only one side of infinity, so
// the direction operand does not apply here.
func limitAtInfinity(e gosymbol.Expr, variable string, sign float64) sidedLimit {
	var vals []float64
	for k := 1; k <= 7; k++ {
		v, err := evalAt(e, map[string]float64{variable: sign * math.Pow(10, float64(k))})
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return classifyProbe(vals)
}

// classifyProbe turns a probe sequence into a sided verdict. Convergence
// needs a stable tail. Divergence needs strictly growing magnitude with
// consistent sign, past either the hard magnitude cutoff or a doubling of
// the first value's magnitude; the latter catches slow divergence
// (e.g. logarithmic) that never reaches the cutoff within seven steps.
// Anything else reads as "does not exist".
func classifyProbe(vals []float64) sidedLimit {
	if len(vals) < 3 {
		return sidedLimit{}
	}

	a, b, c := vals[len(vals)-3], vals[len(vals)-2], vals[len(vals)-1]
	if math.Abs(c-b) <= limitConvergeTol*(1+math.Abs(c)) &&
		math.Abs(b-a) <= 10*limitConvergeTol*(1+math.Abs(b)) {
		return sidedLimit{exists: true, finite: true, value: c}
	}

	growing := true
	for i := 1; i < len(vals); i++ {
		if math.Abs(vals[i]) <= math.Abs(vals[i-1]) {
			growing = false
			break
		}
	}
	if growing && b*c > 0 &&
		(math.Abs(c) > limitDivergeMag ||
			(math.Abs(c) > 1 && math.Abs(c) > 2*math.Abs(vals[0]))) {
		sign := 1
		if c < 0 {
			sign = -1
		}
		return sidedLimit{exists: true, finite: false, value: math.Inf(sign)}
	}
	return sidedLimit{}
}

// infinitePoint recognizes an approach point of "oo" or "-oo" and returns
// its sign, or 0 for finite points.
func infinitePoint(to string) float64 {
	switch strings.TrimSpace(to) {
	case "oo", "+oo":
		return 1
	case "-oo":
		return -1
	}
	return 0
}

// probesAgree compares two probe values with slack proportional to their
// magnitude. A probe sequence only approximates its limit, so agreement
// away from zero is checked relative to magnitude.
func probesAgree(a, b, tol float64) bool {
	diff := math.Abs(a - b)
	if diff <= tol {
		return true
	}
	return diff <= tol*math.Max(math.Abs(a), math.Abs(b))
}

// CheckLimit reports whether the limit of expr exists and is finite as
// variable approaches a point from the given direction.
//
// # Description
//
// There is no "expected" operand: the verdict is existence plus finiteness.
// For direction "both" the left and right probes are computed separately and
// their explicit agreement is the source of truth; the kernel's own
// two-sided limit is consulted only to report an exact value once the probes
// agree. A limit that exists but is infinite yields equivalent=false with
// limit_exists=true, finite=false.
//
// # Inputs
//
//   - expr: the function whose limit is taken
//   - variable: limit variable
//   - to: the point approached, parsed as an expression ("0", "pi/2",
//     "oo", "-oo"); at an infinite point the direction operand is ignored
//   - direction: left, right, or both
//   - opts: tolerance and sampler overrides
//
// # Outputs
//
//   - Result with details {computed, limit_exists, finite, direction} or an
//     error string
func CheckLimit(expr, variable, to string, direction Direction, opts Options) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(fmt.Sprintf("internal computation fault: %v", r))
		}
	}()

	if err := validation.ValidateIdentifier(variable); err != nil {
		return failure(err.Error())
	}
	if direction != DirectionLeft && direction != DirectionRight && direction != DirectionBoth {
		return failure(fmt.Sprintf("invalid direction %q: must be left, right, or both", direction))
	}
	parsed, err := SafeParse(expr)
	if err != nil {
		return failure(err.Error())
	}
	pointExpr, err := SafeParse(to)
	if err != nil {
		return failure(fmt.Sprintf("limit point: %s", err.Error()))
	}

	var exists, finite bool
	var value float64
	if infSign := infinitePoint(to); infSign != 0 {
		s := limitAtInfinity(parsed, variable, infSign)
		exists, finite, value = s.exists, s.finite, s.value
	} else {
		pv, ok := constValue(pointExpr)
		if !ok {
			return failure("limit point must evaluate to a finite number")
		}
		switch direction {
		case DirectionLeft:
			s := oneSidedLimit(parsed, variable, pv, -1)
			exists, finite, value = s.exists, s.finite, s.value
		case DirectionRight:
			s := oneSidedLimit(parsed, variable, pv, +1)
			exists, finite, value = s.exists, s.finite, s.value
		case DirectionBoth:
			l := oneSidedLimit(parsed, variable, pv, -1)
			r := oneSidedLimit(parsed, variable, pv, +1)
			switch {
			case l.exists && r.exists && l.finite && r.finite &&
				probesAgree(l.value, r.value, limitAgreeTol):
				exists, finite, value = true, true, (l.value+r.value)/2
			case l.exists && r.exists && !l.finite && !r.finite &&
				math.Signbit(l.value) == math.Signbit(r.value):
				exists, finite, value = true, false, l.value
			}
		}
	}

	computed := "undefined"
	if exists {
		if finite {
			if sym := symbolicLimit(parsed, variable, pointExpr); sym.Success {
				if sv, svOK := constValue(sym.Value); svOK && probesAgree(sv, value, limitAgreeTol) {
					value = sv
				}
			}
			computed = strconv.FormatFloat(value, 'g', -1, 64)
		} else if value > 0 {
			computed = "oo"
		} else {
			computed = "-oo"
		}
	}

	return Result{
		Equivalent: exists && finite,
		Details: map[string]any{
			"computed":     computed,
			"limit_exists": exists,
			"finite":       finite,
			"direction":    string(direction),
		},
	}
}
