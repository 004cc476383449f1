// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ingest extracts and segments course material from PDF files.
//
// # Description
//
// Pulls plain text out of a PDF page by page, cleans the usual extraction
// artifacts (runs of whitespace, stray page numbers, non-ASCII glyph
// garbage), and produces Segment records. Long text segments are split at
// topic boundaries with a recursive character splitter so downstream
// embedding stays under model input limits.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/textsplitter"
)

// Segment types.
const (
	SegmentText     = "text"
	SegmentFigure   = "figure"
	SegmentTable    = "table"
	SegmentEquation = "equation"
)

// Minimum content length a segment must have to survive cleaning.
const minSegmentLength = 10

// Default maximum length of a topic-split text segment.
const DefaultMaxSegmentLength = 2000

const segmentOverlapFraction = 0.10

// Segment is one unit of extracted document content.
type Segment struct {
	Content       string `json:"content"`
	Type          string `json:"type"`
	PageNumber    int    `json:"page_number"`
	FigureCaption string `json:"figure_caption,omitempty"`
}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	bareLineNumber = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	nonASCII       = regexp.MustCompile(`[^\x00-\x7F]+`)

	equationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\$\$.*?\$\$`),
		regexp.MustCompile(`(?s)\$.*?\$`),
		regexp.MustCompile(`(?s)\\begin\{equation\}.*?\\end\{equation\}`),
	}

	figureCaption = regexp.MustCompile(`(?i)Figure\s+(\d+)[.:]\s*(.+?)(?:\n|$)`)

	// Topic boundaries: "Heading:" lines and numbered section starts.
	topicSeparators = []string{"\n\n", "\n", " ", ""}
)

// LoadPDF extracts cleaned text segments from the PDF at path.
func LoadPDF(path string) ([]Segment, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("pdf file not found: %s", path)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	var segments []Segment
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("failed to extract page text, skipping page",
				"path", path, "page", pageNum, "error", err)
			continue
		}
		cleaned := CleanText(text)
		if cleaned == "" {
			continue
		}
		seg := Segment{
			Content:    cleaned,
			Type:       SegmentText,
			PageNumber: pageNum,
		}
		if caption := ExtractFigureCaption(text, 1); caption != "" {
			seg.FigureCaption = caption
		}
		segments = append(segments, seg)
	}

	merged := MergeSegments(segments)
	slog.Info("extracted pdf content", "path", path,
		"pages", reader.NumPage(), "segments", len(merged))
	return merged, nil
}

// CleanText normalizes raw extracted text: collapses whitespace runs,
// drops standalone page-number lines, and scrubs non-ASCII glyph noise.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = bareLineNumber.ReplaceAllString(text, "")
	text = nonASCII.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\f", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// ExtractEquations pulls LaTeX-style equations out of text: $…$, $$…$$,
// and equation environments.
func ExtractEquations(text string) []string {
	var equations []string
	for _, pattern := range equationPatterns {
		equations = append(equations, pattern.FindAllString(text, -1)...)
	}
	return equations
}

// ExtractFigureCaption finds the caption text for the numbered figure,
// or returns "" when none is present.
func ExtractFigureCaption(text string, figureNum int) string {
	for _, match := range figureCaption.FindAllStringSubmatch(text, -1) {
		if match[1] == fmt.Sprintf("%d", figureNum) {
			return strings.TrimSpace(match[2])
		}
	}
	return ""
}

// MergeSegments drops segments shorter than the minimum and joins
// consecutive text segments that came from the same page.
func MergeSegments(segments []Segment) []Segment {
	var merged []Segment
	for _, seg := range segments {
		if len(seg.Content) < minSegmentLength {
			continue
		}
		if len(merged) > 0 &&
			seg.Type == SegmentText &&
			merged[len(merged)-1].Type == SegmentText &&
			merged[len(merged)-1].PageNumber == seg.PageNumber {
			merged[len(merged)-1].Content += "\n\n" + seg.Content
			continue
		}
		merged = append(merged, seg)
	}
	return merged
}

// SegmentByTopic splits oversized text segments so none exceeds
// maxLength. Non-text segments pass through untouched.
func SegmentByTopic(segments []Segment, maxLength int) ([]Segment, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxSegmentLength
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxLength),
		textsplitter.WithChunkOverlap(int(float64(maxLength)*segmentOverlapFraction)),
		textsplitter.WithSeparators(topicSeparators),
	)

	var out []Segment
	for _, seg := range segments {
		if seg.Type != SegmentText || len(seg.Content) <= maxLength {
			out = append(out, seg)
			continue
		}
		chunks, err := splitter.SplitText(seg.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split segment on page %d: %w", seg.PageNumber, err)
		}
		for _, chunk := range chunks {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			out = append(out, Segment{
				Content:       chunk,
				Type:          SegmentText,
				PageNumber:    seg.PageNumber,
				FigureCaption: seg.FigureCaption,
			})
		}
	}
	return out, nil
}
