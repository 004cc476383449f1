// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for shared engine result plumbing

package calculus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every public entry point must absorb arbitrary garbage and hand back a
// well-formed result. A panic here is a service outage.
func TestNoEngineEscapesOnMalformedInput(t *testing.T) {
	inputs := []string{"x^", "sin(", "", "   ", "x@y", "eval('x')", "__import__('os')", "open('f')", "((((", "1.2.3", "2 3", "*", "x y z ^^"}

	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			res := CheckDerivative(raw, "x", raw, seeded())
			if !res.Equivalent {
				assert.NotEmpty(t, res.Details["error"], "derivative input %q", raw)
			}
		})
		assert.NotPanics(t, func() {
			CheckIntegral(raw, "x", raw, true, seeded())
		})
		assert.NotPanics(t, func() {
			CheckLimit(raw, "x", "0", DirectionBoth, seeded())
		})
		assert.NotPanics(t, func() {
			CheckAlgebra(raw, raw, seeded())
		})
		assert.NotPanics(t, func() {
			CheckDimensional(raw, "m")
		})
		assert.NotPanics(t, func() {
			NumericProbe(raw, 0, seeded())
		})
	}
}

func TestSeededRunsAreIdentical(t *testing.T) {
	first := CheckAlgebra("sin(2*x)", "2*sin(x)*cos(x)", Options{Sampler: NewSampler(99)})
	second := CheckAlgebra("sin(2*x)", "2*sin(x)*cos(x)", Options{Sampler: NewSampler(99)})
	assert.Equal(t, first, second)
}

func TestSymbolicEqualPolynomialCollection(t *testing.T) {
	a, err := SafeParse("(x+1)^2")
	require.NoError(t, err)
	b, err := SafeParse("x^2 + 2*x + 1")
	require.NoError(t, err)
	assert.True(t, symbolicEqual(simplified(a), simplified(b)))

	c, err := SafeParse("x^2 + 2*x")
	require.NoError(t, err)
	assert.False(t, symbolicEqual(simplified(a), simplified(c)))
}

func TestNumericEqualSkipsFailedPoints(t *testing.T) {
	// sqrt(x) is undefined on half the domain; the skipped points must not
	// count against the comparison.
	a, err := SafeParse("sqrt(x)*sqrt(x)")
	require.NoError(t, err)
	b, err := SafeParse("x")
	require.NoError(t, err)

	match, tested := numericEqual(a, b, []string{"x"}, 10, defaultTolerance, NewSampler(5))
	assert.True(t, match)
	assert.Less(t, tested, 10)
	assert.Positive(t, tested)
}
