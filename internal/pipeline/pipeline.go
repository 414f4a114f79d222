// Package pipeline orchestrates the question-answering lifecycle for a
// single document session: ingest splits, embeds, and indexes a document;
// ask embeds the question, retrieves the most similar chunks, and
// synthesizes a grounded answer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/source"
	"github.com/bull/docqa/internal/splitter"
)

// Answers for questions that never reach the model.
const (
	// MsgNoDocument is the answer when no document has been ingested yet.
	MsgNoDocument = answer.FallbackNoDocument

	// MsgStillProcessing is the answer while ingestion is in progress.
	MsgStillProcessing = "Please wait while the document is being loaded."

	// MsgAnswerFailed is what chat surfaces show when answering fails.
	MsgAnswerFailed = "Sorry, I encountered an error while processing your question. Please try again."
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Synthesizer turns a question and retrieved chunks into an answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, results []index.Result) (*answer.Answer, error)
}

// Session holds one document's index and answers questions against it.
// Operations are serialized: a second Ingest or Ask blocks until the
// current one finishes, except that Ask during ingestion answers
// MsgStillProcessing immediately instead of blocking.
type Session struct {
	splitter *splitter.Splitter
	embedder Embedder
	synth    Synthesizer
	index    *index.Index
	topK     int
	logger   *slog.Logger

	mu sync.Mutex

	stateMu    sync.RWMutex
	state      SessionState
	docID      string
	docName    string
	chunkCount int
}

// NewSession creates a session in StateNoDocument. A nil logger falls back
// to slog.Default().
func NewSession(sp *splitter.Splitter, embedder Embedder, synth Synthesizer, topK int, logger *slog.Logger) (*Session, error) {
	if sp == nil {
		return nil, errors.New("splitter is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if synth == nil {
		return nil, errors.New("synthesizer is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		splitter: sp,
		embedder: embedder,
		synth:    synth,
		index:    index.New(),
		topK:     topK,
		logger:   logger,
		state:    StateNoDocument,
	}, nil
}

// Ingest replaces the session's document. On failure the previous index is
// kept: a session that was Ready stays Ready with the old document, and
// only a failed first ingestion moves to StateError.
func (s *Session) Ingest(ctx context.Context, doc *source.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.State()
	s.setState(StateIngesting)

	err := s.ingest(ctx, doc)
	if err == nil {
		s.setState(StateReady)
		return nil
	}

	// Cancellation and failure both leave the previous index intact; the
	// session returns to wherever it was before, unless there is nothing
	// to fall back to.
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.setState(prior)
	case s.index.Len() > 0:
		s.setState(StateReady)
	default:
		s.setState(StateError)
	}

	s.logger.Error("ingestion failed",
		"document", doc.Name,
		"state", s.State().String(),
		"error", err)
	return err
}

func (s *Session) ingest(ctx context.Context, doc *source.Document) error {
	chunks := s.splitter.Split(doc.Text)
	if len(chunks) == 0 {
		return &IngestError{Stage: "split", Err: source.ErrEmptyDocument}
	}

	s.logger.Info("document split",
		"document", doc.Name,
		"chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return &IngestError{Stage: "embed", Err: err}
	}
	if len(vectors) != len(chunks) {
		return &IngestError{Stage: "embed",
			Err: fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))}
	}

	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = index.Entry{Ordinal: c.Ordinal, Text: c.Text, Vector: vectors[i]}
	}
	if err := s.index.Replace(entries); err != nil {
		return &IngestError{Stage: "index", Err: err}
	}

	s.stateMu.Lock()
	s.docID = doc.ID
	s.docName = doc.Name
	s.chunkCount = len(chunks)
	s.stateMu.Unlock()

	s.logger.Info("document indexed",
		"document", doc.Name,
		"chunks", len(chunks))
	return nil
}

// Ask answers a question against the current document. Questions asked
// before a document is ready get a canned answer without touching the
// model; pipeline failures return a QueryError and leave the session
// Ready.
func (s *Session) Ask(ctx context.Context, question string) (*answer.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	// Answer immediately during ingestion rather than blocking behind it.
	if s.State() == StateIngesting {
		return &answer.Answer{Text: MsgStillProcessing}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateNoDocument, StateError:
		return &answer.Answer{Text: MsgNoDocument}, nil
	case StateIngesting:
		return &answer.Answer{Text: MsgStillProcessing}, nil
	}

	s.setState(StateQuerying)
	defer s.setState(StateReady)

	queryVec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, &QueryError{Stage: "embed", Err: err}
	}

	results, err := s.index.Search(queryVec, s.topK)
	if err != nil {
		return nil, &QueryError{Stage: "search", Err: err}
	}

	ans, err := s.synth.Synthesize(ctx, question, results)
	if err != nil {
		return nil, &QueryError{Stage: "synthesize", Err: err}
	}

	s.logger.Info("question answered",
		"chunks_retrieved", len(results),
		"answer_chars", len(ans.Text))
	return ans, nil
}

// Reset discards the current document and returns to StateNoDocument.
// It is the only way out of StateError.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Clear()

	s.stateMu.Lock()
	s.docID = ""
	s.docName = ""
	s.chunkCount = 0
	s.state = StateNoDocument
	s.stateMu.Unlock()

	s.logger.Info("session reset")
}

// State reports the current session state.
func (s *Session) State() SessionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// DocumentName reports the name of the ingested document, or "" if none.
func (s *Session) DocumentName() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.docName
}

// DocumentID reports the ID assigned to the current document load.
func (s *Session) DocumentID() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.docID
}

// ChunkCount reports how many chunks the current document produced.
func (s *Session) ChunkCount() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.chunkCount
}

func (s *Session) setState(state SessionState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}
