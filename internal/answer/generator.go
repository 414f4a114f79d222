// Package answer builds grounded answers from retrieved chunks. A prompt
// stuffed with chunk context goes to the chat completions API; the raw
// response is parsed defensively so a malformed or unexpected payload still
// yields usable text.
package answer

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// DefaultModel is the chat model used unless overridden.
const DefaultModel = "gpt-4o-mini-2024-07-18"

// Generator produces a raw model response for a prompt. Implementations
// return the response body as JSON so extraction can inspect its shape.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIGenerator calls the chat completions API with retry on transient
// failures.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// NewOpenAIGenerator creates a generator. An empty model falls back to
// DefaultModel; a non-positive timeout falls back to 30s.
func NewOpenAIGenerator(client *openai.Client, model string, temperature float64, timeout time.Duration) *OpenAIGenerator {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGenerator{
		client:      client,
		model:       model,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Generate submits the prompt as a single user message and returns the raw
// completion JSON. Rate limits and server errors are retried with
// exponential backoff; other errors fail immediately.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var raw string

	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		resp, err := g.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model:       openai.ChatModel(g.model),
			Temperature: openai.Float(g.temperature),
		})
		if err != nil {
			if isRetryableError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		raw = resp.RawJSON()
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return raw, nil
}

func isRetryableError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
