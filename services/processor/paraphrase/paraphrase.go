// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package paraphrase rewrites course material through a chat model.
//
// # Description
//
// Each text is screened first: very short text, math-dense text, and
// list-like text is passed through untouched rather than risking a model
// mangling the notation. Everything else goes to the chat completions API
// under a shared requests-per-minute token bucket, with bounded retries on
// rate-limit and transient server errors. A word-overlap confidence score
// flags rewrites that drifted too far from the source.
package paraphrase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultModel       = openai.GPT3Dot5Turbo
	defaultRequestsRPM = 50
	defaultMaxTokens   = 4000
	maxAttempts        = 3

	minTextLength        = 20
	mathCharThreshold    = 0.3
	specialCharThreshold = 0.4
)

const systemPrompt = "You are a helpful assistant that paraphrases educational " +
	"content while preserving mathematical accuracy and technical precision."

const promptTemplate = `Please paraphrase the following text while preserving all mathematical content, technical terms, and key concepts.
Keep the same level of detail and accuracy. Only change the wording and sentence structure, not the meaning.

Text to paraphrase:
%s

Paraphrased version:`

// Result is the outcome of paraphrasing one text.
type Result struct {
	OriginalText    string  `json:"original_text"`
	ParaphrasedText string  `json:"paraphrased_text"`
	Confidence      float64 `json:"confidence"`
	Skipped         bool    `json:"skipped"`
	Reason          string  `json:"reason,omitempty"`
	TokenCount      int     `json:"token_count"`
}

// chatCompleter is the slice of the OpenAI client this package needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Paraphraser rewrites texts via the chat completions API.
type Paraphraser struct {
	client    chatCompleter
	model     string
	limiter   *rate.Limiter
	maxTokens int
}

// Option configures a Paraphraser.
type Option func(*Paraphraser)

// WithModel overrides the chat model.
func WithModel(model string) Option {
	return func(p *Paraphraser) { p.model = model }
}

// WithRequestsPerMinute overrides the API rate limit.
func WithRequestsPerMinute(rpm int) Option {
	return func(p *Paraphraser) {
		p.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
	}
}

// WithClient injects a chat client, used by tests.
func WithClient(client chatCompleter) Option {
	return func(p *Paraphraser) { p.client = client }
}

// New builds a Paraphraser talking to the OpenAI API with apiKey.
func New(apiKey string, opts ...Option) *Paraphraser {
	p := &Paraphraser{
		client:    openai.NewClient(apiKey),
		model:     defaultModel,
		limiter:   rate.NewLimiter(rate.Limit(float64(defaultRequestsRPM)/60.0), defaultRequestsRPM),
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldSkip reports whether text should bypass the model, and why.
func ShouldSkip(text string) (bool, string) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minTextLength {
		return true, "text too short"
	}

	mathChars := 0
	for _, c := range text {
		if strings.ContainsRune(`()[]{}^_+-=<>/\`, c) {
			mathChars++
		}
	}
	if float64(mathChars)/float64(len(text)) > mathCharThreshold {
		return true, "mostly mathematical notation"
	}

	specialChars := 0
	for _, c := range text {
		if !isAlnum(c) && !strings.ContainsRune(" .,!?;:", c) {
			specialChars++
		}
	}
	if float64(specialChars)/float64(len(text)) > specialCharThreshold {
		return true, "too many special characters"
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) > 3 && allListLike(lines[:3]) {
		return true, "appears to be a list"
	}

	return false, ""
}

func isAlnum(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func allListLike(lines []string) bool {
	markers := []string{"-", "*", "•", "1.", "2.", "3."}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		found := false
		for _, m := range markers {
			if strings.HasPrefix(line, m) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Confidence scores a rewrite against its source: word-overlap ratio
// weighted 0.6, length ratio weighted 0.4.
func Confidence(original, paraphrased string) float64 {
	origWords := wordSet(original)
	paraWords := wordSet(paraphrased)

	overlap := 0
	for w := range origWords {
		if _, ok := paraWords[w]; ok {
			overlap++
		}
	}
	totalUnique := len(origWords) + len(paraWords) - overlap
	wordSimilarity := 0.0
	if totalUnique > 0 {
		wordSimilarity = float64(overlap) / float64(totalUnique)
	}

	lengthRatio := 0.0
	if len(original) > 0 && len(paraphrased) > 0 {
		shorter, longer := len(paraphrased), len(original)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		lengthRatio = float64(shorter) / float64(longer)
	}

	confidence := wordSimilarity*0.6 + lengthRatio*0.4
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}

// Paraphrase rewrites one text. API failures degrade to a skipped result
// carrying the original text, never an error to the pipeline.
func (p *Paraphraser) Paraphrase(ctx context.Context, text string) Result {
	if skip, reason := ShouldSkip(text); skip {
		return Result{
			OriginalText:    text,
			ParaphrasedText: text,
			Confidence:      1.0,
			Skipped:         true,
			Reason:          reason,
		}
	}

	paraphrased, tokens, err := p.callModel(ctx, text)
	if err != nil {
		slog.Error("paraphrase request failed", "error", err)
		return Result{
			OriginalText:    text,
			ParaphrasedText: text,
			Confidence:      0.0,
			Skipped:         true,
			Reason:          fmt.Sprintf("api error: %v", err),
		}
	}

	return Result{
		OriginalText:    text,
		ParaphrasedText: paraphrased,
		Confidence:      Confidence(text, paraphrased),
		TokenCount:      tokens,
	}
}

func (p *Paraphraser) callModel(ctx context.Context, text string) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", 0, err
		}

		req := openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, text)},
			},
			MaxTokens:   p.maxTokens,
			Temperature: 0.7,
			TopP:        0.9,
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if !isRetryable(err) || attempt == maxAttempts {
				return "", 0, err
			}
			backoff := time.Duration(attempt*attempt) * time.Second
			slog.Warn("retrying paraphrase request", "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", 0, ctx.Err()
			}
			continue
		}

		if len(resp.Choices) == 0 {
			return "", 0, fmt.Errorf("model returned no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), resp.Usage.TotalTokens, nil
	}
	return "", 0, lastErr
}

// isRetryable reports whether an API error is worth another attempt:
// rate limits, server errors, and timeouts.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// ParaphraseBatch rewrites texts with at most maxConcurrent in-flight
// requests. Results keep input order.
func (p *Paraphraser) ParaphraseBatch(ctx context.Context, texts []string, maxConcurrent int) []Result {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	results := make([]Result, len(texts))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.Paraphrase(ctx, text)
		}(i, text)
	}
	wg.Wait()
	return results
}

// Stats aggregates batch outcomes.
type Stats struct {
	TotalTexts        int     `json:"total_texts"`
	Paraphrased       int     `json:"paraphrased"`
	Skipped           int     `json:"skipped"`
	SkipRate          float64 `json:"skip_rate"`
	TotalTokens       int     `json:"total_tokens"`
	AverageConfidence float64 `json:"average_confidence"`
}

// Summarize collects stats from batch results.
func Summarize(results []Result) Stats {
	stats := Stats{TotalTexts: len(results)}
	if len(results) == 0 {
		return stats
	}

	confidenceSum := 0.0
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
			continue
		}
		stats.Paraphrased++
		confidenceSum += r.Confidence
		stats.TotalTokens += r.TokenCount
	}
	stats.SkipRate = float64(stats.Skipped) / float64(stats.TotalTexts)
	if stats.Paraphrased > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.Paraphrased)
	}
	return stats
}
