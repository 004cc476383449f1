// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for dimensional analysis checks

package calculus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDimensionalDetectsUnitTokens(t *testing.T) {
	res := CheckDimensional("9.8*m/s^2", "m/s^2")
	require.True(t, res.Equivalent)
	assert.Equal(t, true, res.Details["has_units"])
	assert.Equal(t, "m/s^2", res.Details["expected_unit"])
	assert.NotEmpty(t, res.Details["note"])
}

func TestCheckDimensionalNoUnits(t *testing.T) {
	// Symbols chosen to avoid colliding with unit tokens; the check is a
	// bare substring scan.
	res := CheckDimensional("x + y", "N")
	assert.False(t, res.Equivalent)
	assert.Equal(t, false, res.Details["has_units"])
}

func TestCheckDimensionalSubstringWeakness(t *testing.T) {
	// Documented contract gap: "s" inside an unrelated name reads as the
	// seconds token.
	res := CheckDimensional("speed*x", "m/s")
	assert.True(t, res.Equivalent)
}

func TestCheckDimensionalBadInput(t *testing.T) {
	res := CheckDimensional("x^", "m")
	assert.False(t, res.Equivalent)
	assert.NotEmpty(t, res.Details["error"])
}
