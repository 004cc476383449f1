// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for content classification

package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectVariant_BCKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"series", "Determine whether the Taylor series converges using the ratio test."},
		{"parametric", "Find dy/dx for the parametric curve x(t) = t^2, y(t) = t^3."},
		{"polar", "Compute the area enclosed by the polar curve r = 2cos(theta)."},
		{"vector", "The velocity vector is the derivative of the position vector."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			variant, confidence, keywords := DetectVariant(tc.text)
			assert.Equal(t, VariantBC, variant)
			assert.Greater(t, confidence, 0.5)
			assert.NotEmpty(t, keywords)
		})
	}
}

func TestDetectVariant_ABOnly(t *testing.T) {
	text := "Use the chain rule to find the derivative, then locate critical points."
	variant, confidence, keywords := DetectVariant(text)
	assert.Equal(t, VariantAB, variant)
	assert.Greater(t, confidence, 0.4)
	assert.Contains(t, keywords, "chain rule")
}

func TestDetectVariant_NoIndicators(t *testing.T) {
	variant, confidence, keywords := DetectVariant("The weather today is sunny.")
	assert.Equal(t, VariantAB, variant)
	assert.Equal(t, 0.3, confidence)
	assert.Empty(t, keywords)
}

func TestDetectVariant_ConfidenceCapped(t *testing.T) {
	// Many BC hits should never push confidence past 0.9.
	text := "series convergence divergence power series taylor series maclaurin series " +
		"ratio test root test comparison test integral test alternating series"
	_, confidence, _ := DetectVariant(text)
	assert.LessOrEqual(t, confidence, 0.9)
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected ContentType
	}{
		{"practice", "Problem 1: Solve for x. Find the derivative and calculate the slope.", TypePractice},
		{"review", "Review summary: key points, formulas, and theorems from the unit.", TypeReview},
		{"example", "Example: consider a ball thrown upward. Suppose initial velocity is 20 m/s.", TypeExample},
		{"notes default", "The fundamental relationship between position and velocity.", TypeNotes},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			contentType, confidence := DetectContentType(tc.text)
			assert.Equal(t, tc.expected, contentType)
			assert.Greater(t, confidence, 0.0)
		})
	}
}

func TestExtractSkills_ReturnsAtMostFive(t *testing.T) {
	text := "limits continuity derivative chain rule integral riemann sum area volume " +
		"series convergence parametric polar vector curvature"
	skills := ExtractSkills(text, VariantBC)
	assert.LessOrEqual(t, len(skills), 5)
	require.NotEmpty(t, skills)

	// Sorted by confidence, descending.
	for i := 1; i < len(skills); i++ {
		assert.GreaterOrEqual(t, skills[i-1].Confidence, skills[i].Confidence)
	}
}

func TestExtractSkills_ABVariantIgnoresBCTables(t *testing.T) {
	text := "taylor series convergence"
	skills := ExtractSkills(text, VariantAB)
	for _, s := range skills {
		assert.NotEqual(t, "Unit 5: Infinite Series", s.Unit)
	}
}

func TestExtractSkills_UnitMapping(t *testing.T) {
	skills := ExtractSkills("find the derivative using the product rule", VariantAB)
	require.NotEmpty(t, skills)
	assert.Equal(t, "Unit 2: Differentiation", skills[0].Unit)
	assert.Equal(t, "Finding Derivatives", skills[0].Skill)
}

func TestTagContent_FullClassification(t *testing.T) {
	text := "Practice problem: find the derivative of x^2 using the definition of derivative."
	tag := TagContent(text)

	assert.Equal(t, VariantAB, tag.Variant)
	assert.Equal(t, TypePractice, tag.ContentType)
	assert.NotEmpty(t, tag.Skills)
	assert.Greater(t, tag.Confidence, 0.0)
}

func TestTagContent_UncertaintyReasons(t *testing.T) {
	tag := TagContent("Completely unrelated text about cooking pasta.")

	assert.Contains(t, tag.UncertaintyReasons, "Unclear exam variant (AB vs BC)")
	assert.Contains(t, tag.UncertaintyReasons, "No clear skill indicators found")
}

func TestSummarize(t *testing.T) {
	tags := []ContentTag{
		{Variant: VariantAB, ContentType: TypeNotes, Confidence: 0.8, Skills: []SkillTag{{}, {}}},
		{Variant: VariantBC, ContentType: TypePractice, Confidence: 0.4, Skills: []SkillTag{{}}},
		{Variant: VariantAB, ContentType: TypeNotes, Confidence: 0.6},
	}

	stats := Summarize(tags)
	assert.Equal(t, 3, stats.TotalContent)
	assert.Equal(t, 2, stats.VariantDistribution[VariantAB])
	assert.Equal(t, 1, stats.VariantDistribution[VariantBC])
	assert.Equal(t, 2, stats.TypeDistribution[TypeNotes])
	assert.Equal(t, 1.0, stats.AverageSkillsPerTag)
	assert.InDelta(t, 0.6, stats.AverageConfidence, 1e-9)
	assert.Equal(t, 1, stats.LowConfidenceCount)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil)
	assert.Equal(t, 0, stats.TotalContent)
}
