package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/docqa/internal/index"
)

const (
	// FallbackInsufficientContext is the sentence the prompt instructs the
	// model to answer with when the context does not cover the question.
	FallbackInsufficientContext = "I don't have enough information about that in the document."

	// FallbackNoDocument is the answer when there is no retrieved context
	// to ground a response in at all.
	FallbackNoDocument = "Please provide a document before asking questions."
)

const promptTemplate = `You are a helpful assistant that answers questions about academic documents.

Use the following context to answer the question. If the answer is not in the context, say "I don't have enough information about that in the document."

Context:
%s

Question: %s

Answer:`

// Provenance identifies a chunk that contributed context to an answer.
type Provenance struct {
	Ordinal int
	Score   float64
}

// Answer is the synthesized response plus the chunks it was grounded in.
type Answer struct {
	Text    string
	Sources []Provenance
}

// Synthesizer turns a question and retrieved chunks into a grounded answer.
type Synthesizer struct {
	generator Generator
	logger    *slog.Logger
}

// NewSynthesizer creates a Synthesizer. A nil logger falls back to
// slog.Default().
func NewSynthesizer(generator Generator, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{generator: generator, logger: logger}
}

// Synthesize builds a context-stuffed prompt from the retrieved chunks and
// asks the model. With no retrieved chunks it answers FallbackNoDocument
// directly and never calls the model.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []index.Result) (*Answer, error) {
	if len(results) == 0 {
		return &Answer{Text: FallbackNoDocument}, nil
	}

	prompt := buildPrompt(question, results)

	s.logger.Debug("synthesizing answer",
		"chunks", len(results),
		"prompt_chars", len(prompt))

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]Provenance, len(results))
	for i, r := range results {
		sources[i] = Provenance{Ordinal: r.Ordinal, Score: r.Score}
	}

	return &Answer{
		Text:    ExtractAnswer(raw),
		Sources: sources,
	}, nil
}

// buildPrompt joins chunk texts in retrieval order, separated by blank
// lines, into the answer prompt.
func buildPrompt(question string, results []index.Result) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return fmt.Sprintf(promptTemplate, strings.Join(texts, "\n\n"), question)
}
