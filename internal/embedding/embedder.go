// Package embedding turns chunk and query text into vectors via the OpenAI
// embeddings API, batching requests and retrying transient failures.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the embedding model used unless overridden.
	DefaultModel = "text-embedding-3-small"

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate limits.
	// OpenAI supports up to 2048 texts per batch, but smaller batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// ErrCountMismatch indicates the API returned a different number of vectors
// than texts submitted.
var ErrCountMismatch = errors.New("embedding count does not match input count")

// Embedder generates embeddings for text using the OpenAI embeddings API.
// It batches requests for efficiency and retries rate-limit and server
// errors with exponential backoff.
type Embedder struct {
	client    *Client
	model     string
	batchSize int
	timeout   time.Duration
}

// NewEmbedder creates an Embedder. Zero values fall back to DefaultModel,
// DefaultBatchSize, and a 30s per-request timeout.
func NewEmbedder(client *Client, model string, batchSize int, timeout time.Duration) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Embedder{
		client:    client,
		model:     model,
		batchSize: batchSize,
		timeout:   timeout,
	}
}

// Embed generates one vector per input text, in input order. Batches are
// submitted sequentially; a failed batch fails the whole call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

// EmbedQuery generates a vector for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", ErrCountMismatch, len(vectors))
	}
	return vectors[0], nil
}

// embedBatchWithRetry generates embeddings for a single batch with retry
// logic. Rate limits (HTTP 429) and server errors (5xx) are retried with
// exponential backoff; other errors fail immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		resp, err := e.client.client.Embeddings.New(reqCtx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRetryableError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("%w: got %d vectors for %d texts",
				ErrCountMismatch, len(resp.Data), len(texts)))
		}

		// The API returns float64; vectors are stored as float32 to halve
		// the index footprint.
		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRetryableError reports whether the API error is transient: a rate
// limit (429) or a server-side failure (5xx).
func isRetryableError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
