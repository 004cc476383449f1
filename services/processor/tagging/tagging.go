// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tagging classifies AP Calculus content.
//
// # Description
//
// Keyword-table classification of extracted document text: AB/BC exam
// variant detection, content-type detection (Notes, Practice, Review,
// Example), and skill extraction with unit and subtopic mapping. Pure
// functions over static tables, no I/O.
package tagging

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Variant is an AP Calculus exam variant.
type Variant string

const (
	VariantAB Variant = "calc_ab"
	VariantBC Variant = "calc_bc"
)

// ContentType classifies what kind of material a segment holds.
type ContentType string

const (
	TypeNotes    ContentType = "Notes"
	TypePractice ContentType = "Practice"
	TypeReview   ContentType = "Review"
	TypeExample  ContentType = "Example"
)

// SkillTag names one skill detected in a segment.
type SkillTag struct {
	Unit       string  `json:"unit"`
	Subtopic   string  `json:"subtopic"`
	Skill      string  `json:"skill"`
	Confidence float64 `json:"confidence"`
}

// ContentTag is the full classification of one segment.
type ContentTag struct {
	Variant            Variant     `json:"variant"`
	ContentType        ContentType `json:"content_type"`
	Skills             []SkillTag  `json:"skills"`
	Confidence         float64     `json:"confidence"`
	KeywordsFound      []string    `json:"keywords_found"`
	UncertaintyReasons []string    `json:"uncertainty_reasons"`
}

// BC-only topics. Any hit here marks the segment BC.
var bcKeywords = map[string][]string{
	"series": {
		"series", "convergence", "divergence", "geometric series", "p-series",
		"ratio test", "root test", "comparison test", "limit comparison test",
		"integral test", "alternating series", "absolute convergence",
		"conditional convergence", "radius of convergence", "interval of convergence",
		"power series", "taylor series", "maclaurin series", "taylor polynomial",
		"remainder", "lagrange error bound", "cauchy remainder",
	},
	"parametric": {
		"parametric", "parameter", "parametric equations", "parametric curve",
		"parametric form", "x(t)", "y(t)", "parametric derivative",
		"parametric integral", "arc length parametric", "parametric area",
	},
	"polar": {
		"polar", "polar coordinates", "polar form", "r =", "theta", "θ",
		"polar graph", "polar curve", "polar derivative", "polar integral",
		"polar area", "arc length polar", "polar to cartesian",
	},
	"vector": {
		"vector", "vector-valued function", "vector function", "position vector",
		"velocity vector", "acceleration vector", "vector derivative",
		"vector integral", "unit tangent vector", "unit normal vector",
		"curvature", "arc length vector",
	},
}

// Topics common to AB and BC.
var abKeywords = map[string][]string{
	"limits": {
		"limit", "lim", "approaches", "continuity", "continuous", "discontinuous",
		"removable discontinuity", "jump discontinuity", "infinite discontinuity",
		"squeeze theorem", "intermediate value theorem", "one-sided limit",
	},
	"derivatives": {
		"derivative", "differentiation", "differentiable", "chain rule",
		"product rule", "quotient rule", "implicit differentiation",
		"related rates", "optimization", "critical point", "inflection point",
		"concavity", "increasing", "decreasing", "local maximum", "local minimum",
		"absolute maximum", "absolute minimum", "mean value theorem",
		"rolle's theorem", "l'hopital's rule",
	},
	"integrals": {
		"integral", "integration", "antiderivative", "indefinite integral",
		"definite integral", "fundamental theorem of calculus", "ftc",
		"riemann sum", "trapezoidal rule", "simpson's rule", "u-substitution",
		"integration by parts", "partial fractions", "improper integral",
		"area under curve", "net change", "average value",
	},
	"applications": {
		"area", "volume", "cross section", "disk method", "washer method",
		"shell method", "arc length", "surface area", "work", "force",
		"pressure", "center of mass", "moment",
	},
}

var unitMapping = map[string]string{
	"limits":       "Unit 1: Limits and Continuity",
	"derivatives":  "Unit 2: Differentiation",
	"integrals":    "Unit 3: Integration",
	"applications": "Unit 4: Applications of Integration",
	"series":       "Unit 5: Infinite Series",
	"parametric":   "Unit 6: Parametric Equations",
	"polar":        "Unit 7: Polar Coordinates",
	"vector":       "Unit 8: Vector-Valued Functions",
}

var subtopicMapping = map[string]map[string]string{
	"limits": {
		"introduction": "Introduction to Limits",
		"properties":   "Properties of Limits",
		"continuity":   "Continuity",
		"asymptotes":   "Asymptotes",
	},
	"derivatives": {
		"definition":   "Definition of Derivative",
		"rules":        "Derivative Rules",
		"implicit":     "Implicit Differentiation",
		"applications": "Applications of Derivatives",
	},
	"integrals": {
		"antiderivatives": "Antiderivatives",
		"definite":        "Definite Integrals",
		"techniques":      "Integration Techniques",
		"applications":    "Applications of Integrals",
	},
	"series": {
		"convergence": "Convergence Tests",
		"power":       "Power Series",
		"taylor":      "Taylor Series",
	},
}

var skillNameMapping = []struct{ key, name string }{
	{"limit", "Evaluating Limits"},
	{"derivative", "Finding Derivatives"},
	{"integral", "Evaluating Integrals"},
	{"series", "Analyzing Series Convergence"},
	{"parametric", "Working with Parametric Equations"},
	{"polar", "Converting Polar Coordinates"},
	{"vector", "Vector Calculus Operations"},
}

var practiceIndicators = []string{
	"problem", "question", "solve", "find", "calculate", "determine",
	"practice", "exercise", "homework", "assignment", "quiz", "test",
}

var reviewIndicators = []string{
	"review", "summary", "overview", "recap", "key points", "main ideas",
	"concepts", "formulas", "theorems", "definitions",
}

var exampleIndicators = []string{
	"example", "for instance", "consider", "suppose", "let's look at",
	"illustration", "demonstration",
}

// categoryOrder keeps keyword scans deterministic across runs.
func categoryOrder(tables map[string][]string) []string {
	cats := make([]string, 0, len(tables))
	for c := range tables {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// DetectVariant classifies text as AB or BC.
//
// Any BC-only keyword forces BC; otherwise AB keywords give AB with
// lower confidence, and no hits at all default to AB at 0.3.
func DetectVariant(text string) (Variant, float64, []string) {
	lower := strings.ToLower(text)
	var found []string

	bcScore := 0
	for _, category := range categoryOrder(bcKeywords) {
		for _, kw := range bcKeywords[category] {
			if strings.Contains(lower, kw) {
				bcScore++
				found = append(found, kw)
			}
		}
	}
	if bcScore > 0 {
		confidence := math.Min(0.9, 0.5+float64(bcScore)*0.1)
		return VariantBC, confidence, found
	}

	abScore := 0
	for _, category := range categoryOrder(abKeywords) {
		for _, kw := range abKeywords[category] {
			if strings.Contains(lower, kw) {
				abScore++
				found = append(found, kw)
			}
		}
	}
	if abScore > 0 {
		confidence := math.Min(0.8, 0.4+float64(abScore)*0.05)
		return VariantAB, confidence, found
	}

	return VariantAB, 0.3, nil
}

// DetectContentType classifies text as Notes, Practice, Review, or Example.
func DetectContentType(text string) (ContentType, float64) {
	lower := strings.ToLower(text)

	count := func(indicators []string) int {
		n := 0
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				n++
			}
		}
		return n
	}

	practiceScore := count(practiceIndicators)
	reviewScore := count(reviewIndicators)
	exampleScore := count(exampleIndicators)

	maxScore := practiceScore
	if reviewScore > maxScore {
		maxScore = reviewScore
	}
	if exampleScore > maxScore {
		maxScore = exampleScore
	}
	if maxScore == 0 {
		return TypeNotes, 0.5
	}

	switch maxScore {
	case practiceScore:
		return TypePractice, math.Min(0.9, 0.6+float64(practiceScore)*0.1)
	case reviewScore:
		return TypeReview, math.Min(0.9, 0.6+float64(reviewScore)*0.1)
	default:
		return TypeExample, math.Min(0.9, 0.6+float64(exampleScore)*0.1)
	}
}

// ExtractSkills pulls up to five skills from text, highest confidence
// first. BC segments search the BC tables in addition to the AB tables.
func ExtractSkills(text string, variant Variant) []SkillTag {
	lower := strings.ToLower(text)

	keywordSets := make(map[string][]string, len(abKeywords)+len(bcKeywords))
	for cat, kws := range abKeywords {
		keywordSets[cat] = kws
	}
	if variant == VariantBC {
		for cat, kws := range bcKeywords {
			keywordSets[cat] = kws
		}
	}

	var skills []SkillTag
	for _, category := range categoryOrder(keywordSets) {
		keywords := keywordSets[category]
		var found []string
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				found = append(found, kw)
			}
		}
		if len(found) == 0 {
			continue
		}

		density := float64(len(found)) / float64(len(keywords))
		confidence := math.Min(0.9, 0.3+density*0.6)

		skills = append(skills, SkillTag{
			Unit:       unitName(category),
			Subtopic:   mapSubtopic(category, found),
			Skill:      skillName(found, category),
			Confidence: confidence,
		})
	}

	sort.SliceStable(skills, func(i, j int) bool {
		return skills[i].Confidence > skills[j].Confidence
	})
	if len(skills) > 5 {
		skills = skills[:5]
	}
	return skills
}

func unitName(category string) string {
	if unit, ok := unitMapping[category]; ok {
		return unit
	}
	return fmt.Sprintf("Unit: %s", titleCase(category))
}

func mapSubtopic(category string, keywords []string) string {
	for subtopic, name := range subtopicMapping[category] {
		for _, kw := range keywords {
			if strings.Contains(kw, subtopic) {
				return name
			}
		}
	}
	return fmt.Sprintf("%s Concepts", titleCase(category))
}

func skillName(keywords []string, category string) string {
	for _, kw := range keywords {
		for _, entry := range skillNameMapping {
			if strings.Contains(kw, entry.key) {
				return entry.name
			}
		}
	}
	return fmt.Sprintf("%s Problem Solving", titleCase(category))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TagContent runs the full classification over one segment of text.
func TagContent(text string) ContentTag {
	variant, variantConfidence, variantKeywords := DetectVariant(text)
	contentType, typeConfidence := DetectContentType(text)
	skills := ExtractSkills(text, variant)

	overall := (variantConfidence + typeConfidence) / 2
	if len(skills) > 0 {
		sum := 0.0
		for _, s := range skills {
			sum += s.Confidence
		}
		overall = (overall + sum/float64(len(skills))) / 2
	}

	var reasons []string
	if variantConfidence < 0.6 {
		reasons = append(reasons, "Unclear exam variant (AB vs BC)")
	}
	if typeConfidence < 0.6 {
		reasons = append(reasons, "Unclear content type")
	}
	if len(skills) == 0 {
		reasons = append(reasons, "No clear skill indicators found")
	} else {
		allLow := true
		for _, s := range skills {
			if s.Confidence >= 0.5 {
				allLow = false
				break
			}
		}
		if allLow {
			reasons = append(reasons, "Low confidence in skill detection")
		}
	}

	return ContentTag{
		Variant:            variant,
		ContentType:        contentType,
		Skills:             skills,
		Confidence:         overall,
		KeywordsFound:      variantKeywords,
		UncertaintyReasons: reasons,
	}
}

// Stats aggregates tagging outcomes across a batch.
type Stats struct {
	TotalContent        int                 `json:"total_content"`
	VariantDistribution map[Variant]int     `json:"variant_distribution"`
	TypeDistribution    map[ContentType]int `json:"type_distribution"`
	AverageSkillsPerTag float64             `json:"average_skills_per_content"`
	AverageConfidence   float64             `json:"average_confidence"`
	LowConfidenceCount  int                 `json:"low_confidence_count"`
}

// Summarize collects distribution stats from a batch of tags.
func Summarize(tags []ContentTag) Stats {
	if len(tags) == 0 {
		return Stats{}
	}

	stats := Stats{
		TotalContent:        len(tags),
		VariantDistribution: make(map[Variant]int),
		TypeDistribution:    make(map[ContentType]int),
	}

	totalSkills := 0
	totalConfidence := 0.0
	for _, tag := range tags {
		stats.VariantDistribution[tag.Variant]++
		stats.TypeDistribution[tag.ContentType]++
		totalSkills += len(tag.Skills)
		totalConfidence += tag.Confidence
		if tag.Confidence < 0.5 {
			stats.LowConfidenceCount++
		}
	}
	stats.AverageSkillsPerTag = float64(totalSkills) / float64(len(tags))
	stats.AverageConfidence = totalConfidence / float64(len(tags))
	return stats
}
