// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for sample point generation

package calculus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerRange(t *testing.T) {
	s := NewSampler(1)
	for _, v := range s.Points(1000) {
		assert.GreaterOrEqual(t, v, sampleLow)
		assert.LessOrEqual(t, v, sampleHigh)
	}
}

func TestSamplerDeterministicWithSeed(t *testing.T) {
	a := NewSampler(42).Points(20)
	b := NewSampler(42).Points(20)
	assert.Equal(t, a, b)

	c := NewSampler(43).Points(20)
	assert.NotEqual(t, a, c)
}

func TestSamplerAssignments(t *testing.T) {
	s := NewSampler(7)
	assigns := s.Assignments([]string{"x", "y"}, 5)
	require.Len(t, assigns, 5)
	for _, m := range assigns {
		require.Len(t, m, 2)
		assert.Contains(t, m, "x")
		assert.Contains(t, m, "y")
	}
}

func TestSamplerIndependentDrawsPerSymbol(t *testing.T) {
	s := NewSampler(7)
	assigns := s.Assignments([]string{"x", "y"}, 10)
	same := 0
	for _, m := range assigns {
		if m["x"] == m["y"] {
			same++
		}
	}
	assert.Zero(t, same, "symbols in one assignment should get independent draws")
}
