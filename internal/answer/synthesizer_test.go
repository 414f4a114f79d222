package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/index"
)

type fakeGenerator struct {
	raw    string
	err    error
	calls  int
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.raw, f.err
}

func TestSynthesize_NoResultsShortCircuits(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewSynthesizer(gen, nil)

	ans, err := s.Synthesize(context.Background(), "what is ATP?", nil)
	require.NoError(t, err)

	assert.Equal(t, FallbackNoDocument, ans.Text)
	assert.Empty(t, ans.Sources)
	assert.Equal(t, 0, gen.calls, "generator must not be called without context")
}

func TestSynthesize_BuildsPromptFromChunks(t *testing.T) {
	gen := &fakeGenerator{raw: `{"choices":[{"message":{"content":"ATP is cellular energy."}}]}`}
	s := NewSynthesizer(gen, nil)

	results := []index.Result{
		{Ordinal: 3, Text: "ATP powers cellular work.", Score: 0.91},
		{Ordinal: 7, Text: "Mitochondria synthesize ATP.", Score: 0.85},
	}

	ans, err := s.Synthesize(context.Background(), "what is ATP?", results)
	require.NoError(t, err)

	assert.Equal(t, "ATP is cellular energy.", ans.Text)
	assert.Equal(t, 1, gen.calls)

	assert.Contains(t, gen.prompt, "ATP powers cellular work.")
	assert.Contains(t, gen.prompt, "Mitochondria synthesize ATP.")
	assert.Contains(t, gen.prompt, "Question: what is ATP?")
	assert.Contains(t, gen.prompt, "helpful assistant that answers questions about academic documents")
	// Chunks appear in retrieval order.
	assert.Less(t,
		strings.Index(gen.prompt, "ATP powers"),
		strings.Index(gen.prompt, "Mitochondria synthesize"))
}

func TestSynthesize_ReportsProvenance(t *testing.T) {
	gen := &fakeGenerator{raw: `{"answer":"yes"}`}
	s := NewSynthesizer(gen, nil)

	results := []index.Result{
		{Ordinal: 5, Text: "a", Score: 0.8},
		{Ordinal: 1, Text: "b", Score: 0.6},
	}

	ans, err := s.Synthesize(context.Background(), "q", results)
	require.NoError(t, err)

	require.Len(t, ans.Sources, 2)
	assert.Equal(t, Provenance{Ordinal: 5, Score: 0.8}, ans.Sources[0])
	assert.Equal(t, Provenance{Ordinal: 1, Score: 0.6}, ans.Sources[1])
}

func TestSynthesize_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	s := NewSynthesizer(gen, nil)

	_, err := s.Synthesize(context.Background(), "q", []index.Result{
		{Ordinal: 0, Text: "context", Score: 0.9},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSynthesize_MalformedResponseFallsBack(t *testing.T) {
	gen := &fakeGenerator{raw: `{"count":42}`}
	s := NewSynthesizer(gen, nil)

	ans, err := s.Synthesize(context.Background(), "q", []index.Result{
		{Ordinal: 0, Text: "context", Score: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, FallbackNoAnswer, ans.Text)
}
