// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for antiderivative verification

package calculus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegralConstantFree(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected string
		want     bool
	}{
		{"power rule", "2*x", "x^2", true},
		{"arbitrary constant", "2*x", "x^2 + 7", true},
		{"symbolic constant", "2*x", "x^2 + C", true},
		{"trig", "cos(x)", "sin(x)", true},
		{"trig plus constant", "cos(x)", "sin(x) - 3", true},
		{"wrong antiderivative", "2*x", "x^3", false},
		{"dropped coefficient", "4*x", "x^2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckIntegral(tt.expr, "x", tt.expected, true, seeded())
			assert.Equal(t, tt.want, res.Equivalent, "details: %v", res.Details)
		})
	}
}

func TestCheckIntegralConstantSignificant(t *testing.T) {
	// With constant_free off, the expected form must match the engine's own
	// antiderivative, which carries no integration constant.
	res := CheckIntegral("2*x", "x", "x^2", false, seeded())
	assert.True(t, res.Equivalent, "details: %v", res.Details)

	res = CheckIntegral("2*x", "x", "x^2 + 7", false, seeded())
	assert.False(t, res.Equivalent)
	assert.Equal(t, false, res.Details["constant_free"])
}

func TestCheckIntegralCleanForms(t *testing.T) {
	res := CheckIntegral("2*x", "x", "x^2 + 7", true, seeded())
	require.True(t, res.Equivalent)
	assert.Equal(t, "x^2", res.Details["expected_clean"])
	assert.Equal(t, "x^2", res.Details["computed_clean"])
	assert.Equal(t, true, res.Details["constant_free"])
}

func TestCheckIntegralUnintegrable(t *testing.T) {
	// The rule-based integrator has no antiderivative for exp(x^2).
	res := CheckIntegral("exp(x^2)", "x", "x", true, seeded())
	assert.False(t, res.Equivalent)
	assert.NotEmpty(t, res.Details["error"])
}

func TestCheckIntegralBadInputs(t *testing.T) {
	for _, raw := range []string{"x^", "sin(", "", "open('f')"} {
		res := CheckIntegral(raw, "x", "x^2", true, seeded())
		assert.False(t, res.Equivalent, "input %q", raw)
		assert.NotEmpty(t, res.Details["error"], "input %q", raw)
	}
}

func TestStripConstantTerms(t *testing.T) {
	sum, err := SafeParse("x^2 + 3*y + 5")
	require.NoError(t, err)
	stripped := stripConstantTerms(sum, "x")
	assert.Equal(t, "x^2", stripped.String())

	constant, err := SafeParse("42")
	require.NoError(t, err)
	assert.Equal(t, "0", stripConstantTerms(constant, "x").String())

	single, err := SafeParse("sin(x)")
	require.NoError(t, err)
	assert.Equal(t, "sin(x)", stripConstantTerms(single, "x").String())
}
