// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
// Tests for paraphrase screening and batch behavior

package paraphrase

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatClient struct {
	calls    atomic.Int64
	reply    string
	failures int
	err      error
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	n := f.calls.Add(1)
	if f.err != nil && int(n) <= f.failures {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
		Usage: openai.Usage{TotalTokens: 42},
	}, nil
}

func newTestParaphraser(client chatCompleter) *Paraphraser {
	return New("test-key", WithClient(client), WithRequestsPerMinute(6000))
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		skip   bool
		reason string
	}{
		{"short text", "tiny", true, "text too short"},
		{"math heavy", "x + y = z^2 * (a-b) / [c+d] - (e*f)", true, "mostly mathematical notation"},
		{"list like", "- first item here\n- second item here\n- third item here\n- fourth item", true, "appears to be a list"},
		{"normal prose", "The derivative measures the instantaneous rate of change of a function.", false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			skip, reason := ShouldSkip(tc.text)
			assert.Equal(t, tc.skip, skip)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 1.0, Confidence("the same text", "the same text"))

	high := Confidence(
		"the derivative measures the rate of change",
		"the derivative describes the rate of change")
	low := Confidence(
		"the derivative measures the rate of change",
		"completely unrelated gibberish words appear here")
	assert.Greater(t, high, low)
	assert.Greater(t, high, 0.5)
}

func TestParaphrase_SkippedTextNeverCallsAPI(t *testing.T) {
	client := &fakeChatClient{reply: "unused"}
	p := newTestParaphraser(client)

	res := p.Paraphrase(context.Background(), "x+y=z")
	assert.True(t, res.Skipped)
	assert.Equal(t, "x+y=z", res.ParaphrasedText)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, int64(0), client.calls.Load())
}

func TestParaphrase_Success(t *testing.T) {
	client := &fakeChatClient{reply: "The instantaneous rate of change is measured by the derivative."}
	p := newTestParaphraser(client)

	text := "The derivative measures the instantaneous rate of change."
	res := p.Paraphrase(context.Background(), text)

	assert.False(t, res.Skipped)
	assert.Equal(t, text, res.OriginalText)
	assert.Equal(t, client.reply, res.ParaphrasedText)
	assert.Equal(t, 42, res.TokenCount)
	assert.Greater(t, res.Confidence, 0.0)
}

func TestParaphrase_RetriesOnRateLimit(t *testing.T) {
	client := &fakeChatClient{
		reply:    "A paraphrased sentence about rates of change appears here.",
		failures: 1,
		err:      &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"},
	}
	p := newTestParaphraser(client)

	res := p.Paraphrase(context.Background(), "The derivative measures the instantaneous rate of change.")
	assert.False(t, res.Skipped)
	assert.Equal(t, int64(2), client.calls.Load())
}

func TestParaphrase_NonRetryableErrorDegrades(t *testing.T) {
	client := &fakeChatClient{
		failures: 10,
		err:      &openai.APIError{HTTPStatusCode: 401, Message: "bad key"},
	}
	p := newTestParaphraser(client)

	res := p.Paraphrase(context.Background(), "The derivative measures the instantaneous rate of change.")
	assert.True(t, res.Skipped)
	assert.Equal(t, res.OriginalText, res.ParaphrasedText)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Contains(t, res.Reason, "api error")
	assert.Equal(t, int64(1), client.calls.Load())
}

func TestParaphraseBatch_PreservesOrder(t *testing.T) {
	client := &fakeChatClient{reply: "Paraphrased output sentence with enough words to pass."}
	p := newTestParaphraser(client)

	texts := make([]string, 8)
	for i := range texts {
		texts[i] = fmt.Sprintf("Sentence number %d about the rate of change of a function.", i)
	}
	results := p.ParaphraseBatch(context.Background(), texts, 3)

	require.Len(t, results, 8)
	for i, res := range results {
		assert.Equal(t, texts[i], res.OriginalText)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&openai.APIError{HTTPStatusCode: 429}))
	assert.True(t, isRetryable(&openai.APIError{HTTPStatusCode: 503}))
	assert.False(t, isRetryable(&openai.APIError{HTTPStatusCode: 400}))
	assert.True(t, isRetryable(context.DeadlineExceeded))
	assert.False(t, isRetryable(fmt.Errorf("plain error")))
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Skipped: true},
		{Confidence: 0.8, TokenCount: 100},
		{Confidence: 0.6, TokenCount: 50},
	}

	stats := Summarize(results)
	assert.Equal(t, 3, stats.TotalTexts)
	assert.Equal(t, 2, stats.Paraphrased)
	assert.Equal(t, 1, stats.Skipped)
	assert.InDelta(t, 1.0/3.0, stats.SkipRate, 1e-9)
	assert.Equal(t, 150, stats.TotalTokens)
	assert.InDelta(t, 0.7, stats.AverageConfidence, 1e-9)
}
