// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package embeddings generates and compares text embedding vectors.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	defaultModel       = openai.LargeEmbedding3
	defaultRequestsRPM = 3000
	maxInputTokens     = 8191
	maxAttempts        = 3

	// Rough token estimate: four characters per token.
	charsPerToken = 4
)

// Result is the outcome of embedding one text.
type Result struct {
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
	TokenCount int       `json:"token_count"`
	Model      string    `json:"model"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// embedder is the slice of the OpenAI client this package needs.
type embedder interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Generator produces embeddings through the OpenAI API.
type Generator struct {
	client  embedder
	model   openai.EmbeddingModel
	limiter *rate.Limiter
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel overrides the embedding model.
func WithModel(model openai.EmbeddingModel) Option {
	return func(g *Generator) { g.model = model }
}

// WithRequestsPerMinute overrides the API rate limit.
func WithRequestsPerMinute(rpm int) Option {
	return func(g *Generator) {
		g.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
	}
}

// WithClient injects an embedding client, used by tests.
func WithClient(client embedder) Option {
	return func(g *Generator) { g.client = client }
}

// New builds a Generator talking to the OpenAI API with apiKey.
func New(apiKey string, opts ...Option) *Generator {
	g := &Generator{
		client:  openai.NewClient(apiKey),
		model:   defaultModel,
		limiter: rate.NewLimiter(rate.Limit(float64(defaultRequestsRPM)/60.0), defaultRequestsRPM),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Truncate cuts text down so its estimated token count fits the model
// input limit.
func Truncate(text string) string {
	estimated := len(text) / charsPerToken
	if estimated <= maxInputTokens {
		return text
	}
	target := len(text) * maxInputTokens / estimated
	return text[:target]
}

// Embed generates the embedding for one text. Failures come back inside
// the Result, never as a pipeline error.
func (g *Generator) Embed(ctx context.Context, text string) Result {
	if text == "" {
		return Result{Text: text, Model: string(g.model), Error: "empty text"}
	}

	vector, tokens, err := g.callAPI(ctx, Truncate(text))
	if err != nil {
		slog.Error("embedding request failed", "error", err)
		return Result{Text: text, Model: string(g.model), Error: err.Error()}
	}

	return Result{
		Text:       text,
		Embedding:  vector,
		TokenCount: tokens,
		Model:      string(g.model),
		Success:    true,
	}
}

func (g *Generator) callAPI(ctx context.Context, text string) ([]float32, int, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}

		resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: g.model,
		})
		if err != nil {
			lastErr = err
			if !isRetryable(err) || attempt == maxAttempts {
				return nil, 0, err
			}
			backoff := time.Duration(attempt*attempt) * time.Second
			slog.Warn("retrying embedding request", "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			}
			continue
		}

		if len(resp.Data) == 0 {
			return nil, 0, fmt.Errorf("embedding response carried no vectors")
		}
		return resp.Data[0].Embedding, resp.Usage.TotalTokens, nil
	}
	return nil, 0, lastErr
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// EmbedBatch embeds texts with at most maxConcurrent in-flight requests.
// Results keep input order.
func (g *Generator) EmbedBatch(ctx context.Context, texts []string, maxConcurrent int) []Result {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
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
			results[i] = g.Embed(ctx, text)
		}(i, text)
	}
	wg.Wait()
	return results
}

// Cosine computes the cosine similarity of two vectors. Mismatched or
// zero-magnitude vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Match pairs a candidate text with its similarity to a query.
type Match struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Candidate is a text with its precomputed embedding.
type Candidate struct {
	Text      string
	Embedding []float32
}

// MostSimilar ranks candidates against the query vector and returns the
// top k matches, best first.
func MostSimilar(query []float32, candidates []Candidate, k int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{
			Text:       c.Text,
			Similarity: Cosine(query, c.Embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Stats aggregates batch outcomes.
type Stats struct {
	TotalTexts  int     `json:"total_texts"`
	Successful  int     `json:"successful"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
	TotalTokens int     `json:"total_tokens"`
	Dimensions  int     `json:"embedding_dimensions"`
}

// Summarize collects stats from batch results.
func Summarize(results []Result) Stats {
	stats := Stats{TotalTexts: len(results)}
	if len(results) == 0 {
		return stats
	}

	for _, r := range results {
		if !r.Success {
			stats.Failed++
			continue
		}
		stats.Successful++
		stats.TotalTokens += r.TokenCount
		if stats.Dimensions == 0 {
			stats.Dimensions = len(r.Embedding)
		}
	}
	stats.SuccessRate = float64(stats.Successful) / float64(stats.TotalTexts)
	return stats
}
