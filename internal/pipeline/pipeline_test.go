package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa/internal/answer"
	"github.com/bull/docqa/internal/index"
	"github.com/bull/docqa/internal/source"
	"github.com/bull/docqa/internal/splitter"
)

// fakeEmbedder maps text deterministically to an 8-dim vector so identical
// texts are identical vectors and retrieval is exact.
type fakeEmbedder struct {
	embedErr error
	queryErr error
	gate     chan struct{}
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = hashVector(t)
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return hashVector(query), nil
}

func hashVector(text string) []float32 {
	v := make([]float32, 8)
	for i, b := range []byte(text) {
		v[i%8] += float32(b)
	}
	return v
}

type fakeSynth struct {
	err   error
	calls int
	last  []index.Result
}

func (f *fakeSynth) Synthesize(_ context.Context, question string, results []index.Result) (*answer.Answer, error) {
	f.calls++
	f.last = results
	if f.err != nil {
		return nil, f.err
	}
	if len(results) == 0 {
		return &answer.Answer{Text: answer.FallbackNoDocument}, nil
	}
	return &answer.Answer{
		Text:    "answer to " + question,
		Sources: []answer.Provenance{{Ordinal: results[0].Ordinal, Score: results[0].Score}},
	}, nil
}

func newTestSession(t *testing.T, emb Embedder, synth Synthesizer) *Session {
	t.Helper()
	sp, err := splitter.New(60, 10)
	require.NoError(t, err)
	s, err := NewSession(sp, emb, synth, 3, nil)
	require.NoError(t, err)
	return s
}

func testDoc(id, name, text string) *source.Document {
	return &source.Document{ID: id, Name: name, Text: text}
}

func TestNewSession_Validation(t *testing.T) {
	sp, err := splitter.New(200, 20)
	require.NoError(t, err)
	emb := &fakeEmbedder{}
	synth := &fakeSynth{}

	_, err = NewSession(nil, emb, synth, 3, nil)
	assert.Error(t, err)
	_, err = NewSession(sp, nil, synth, 3, nil)
	assert.Error(t, err)
	_, err = NewSession(sp, emb, nil, 3, nil)
	assert.Error(t, err)
	_, err = NewSession(sp, emb, synth, 0, nil)
	assert.Error(t, err)
}

func TestSession_InitialState(t *testing.T) {
	s := newTestSession(t, &fakeEmbedder{}, &fakeSynth{})
	assert.Equal(t, StateNoDocument, s.State())
	assert.Empty(t, s.DocumentName())
	assert.Zero(t, s.ChunkCount())
}

func TestIngestThenAsk_RoundTrip(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSession(t, &fakeEmbedder{}, synth)

	doc := testDoc("doc-1", "bio.txt",
		"Mitochondria are the powerhouse of the cell.\n\n"+
			"Ribosomes synthesize proteins from messenger RNA.\n\n"+
			"The nucleus stores the cell's genetic material.")
	require.NoError(t, s.Ingest(context.Background(), doc))

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, "bio.txt", s.DocumentName())
	assert.Equal(t, "doc-1", s.DocumentID())
	assert.Equal(t, 3, s.ChunkCount())

	// Asking with a chunk's exact text makes it the nearest neighbor.
	ans, err := s.Ask(context.Background(), "Ribosomes synthesize proteins from messenger RNA.")
	require.NoError(t, err)

	assert.Equal(t, "answer to Ribosomes synthesize proteins from messenger RNA.", ans.Text)
	require.NotEmpty(t, synth.last)
	assert.Equal(t, 1, synth.last[0].Ordinal)
	assert.InDelta(t, 1.0, synth.last[0].Score, 1e-6)
	assert.Equal(t, StateReady, s.State())
}

func TestAsk_BeforeIngest(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSession(t, &fakeEmbedder{}, synth)

	ans, err := s.Ask(context.Background(), "anything?")
	require.NoError(t, err)

	assert.Equal(t, MsgNoDocument, ans.Text)
	assert.Equal(t, 0, synth.calls, "synthesizer must not run without a document")
	assert.Equal(t, StateNoDocument, s.State())
}

func TestAsk_EmptyQuestion(t *testing.T) {
	s := newTestSession(t, &fakeEmbedder{}, &fakeSynth{})
	_, err := s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAsk_DuringIngestion(t *testing.T) {
	gate := make(chan struct{})
	emb := &fakeEmbedder{gate: gate}
	s := newTestSession(t, emb, &fakeSynth{})

	done := make(chan error, 1)
	go func() {
		done <- s.Ingest(context.Background(), testDoc("d", "slow.txt", "some document text"))
	}()

	// Wait for ingestion to reach the embedding stage.
	require.Eventually(t, func() bool {
		return s.State() == StateIngesting
	}, time.Second, time.Millisecond)

	ans, err := s.Ask(context.Background(), "too early?")
	require.NoError(t, err)
	assert.Equal(t, MsgStillProcessing, ans.Text)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateReady, s.State())
}

func TestIngest_FirstFailureEntersErrorState(t *testing.T) {
	emb := &fakeEmbedder{embedErr: errors.New("api down")}
	s := newTestSession(t, emb, &fakeSynth{})

	err := s.Ingest(context.Background(), testDoc("d", "doc.txt", "some text"))
	require.Error(t, err)

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "embed", ingestErr.Stage)
	assert.Equal(t, StateError, s.State())

	// Questions in the error state get the canned no-document answer.
	ans, askErr := s.Ask(context.Background(), "anything?")
	require.NoError(t, askErr)
	assert.Equal(t, MsgNoDocument, ans.Text)
}

func TestIngest_EmptyDocumentFails(t *testing.T) {
	s := newTestSession(t, &fakeEmbedder{}, &fakeSynth{})

	err := s.Ingest(context.Background(), testDoc("d", "empty.txt", "   "))
	require.Error(t, err)

	var ingestErr *IngestError
	require.ErrorAs(t, err, &ingestErr)
	assert.Equal(t, "split", ingestErr.Stage)
}

func TestIngest_FailedReingestKeepsPriorDocument(t *testing.T) {
	emb := &fakeEmbedder{}
	synth := &fakeSynth{}
	s := newTestSession(t, emb, synth)

	require.NoError(t, s.Ingest(context.Background(),
		testDoc("doc-1", "first.txt", "The original document text.")))
	require.Equal(t, StateReady, s.State())

	emb.embedErr = errors.New("api down")
	err := s.Ingest(context.Background(), testDoc("doc-2", "second.txt", "replacement text"))
	require.Error(t, err)

	// The session stays Ready and keeps answering from the old document.
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, "first.txt", s.DocumentName())
	assert.Equal(t, "doc-1", s.DocumentID())

	emb.embedErr = nil
	ans, err := s.Ask(context.Background(), "The original document text.")
	require.NoError(t, err)
	assert.Equal(t, "answer to The original document text.", ans.Text)
}

func TestIngest_ReplacesPreviousDocument(t *testing.T) {
	synth := &fakeSynth{}
	s := newTestSession(t, &fakeEmbedder{}, synth)

	require.NoError(t, s.Ingest(context.Background(),
		testDoc("doc-1", "old.txt", "Content about photosynthesis.")))
	require.NoError(t, s.Ingest(context.Background(),
		testDoc("doc-2", "new.txt", "Content about glycolysis.")))

	assert.Equal(t, "new.txt", s.DocumentName())
	assert.Equal(t, "doc-2", s.DocumentID())

	_, err := s.Ask(context.Background(), "Content about photosynthesis.")
	require.NoError(t, err)
	// Retrieval only sees the new document's chunks.
	for _, r := range synth.last {
		assert.NotContains(t, r.Text, "photosynthesis")
	}
}

func TestIngest_CancellationRevertsState(t *testing.T) {
	gate := make(chan struct{})
	emb := &fakeEmbedder{gate: gate}
	s := newTestSession(t, emb, &fakeSynth{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Ingest(ctx, testDoc("d", "doc.txt", "some text"))
	}()

	require.Eventually(t, func() bool {
		return s.State() == StateIngesting
	}, time.Second, time.Millisecond)

	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateNoDocument, s.State())
}

func TestAsk_QueryEmbedFailureStaysReady(t *testing.T) {
	emb := &fakeEmbedder{}
	s := newTestSession(t, emb, &fakeSynth{})

	require.NoError(t, s.Ingest(context.Background(),
		testDoc("d", "doc.txt", "some document text")))

	emb.queryErr = errors.New("rate limited")
	_, err := s.Ask(context.Background(), "a question?")
	require.Error(t, err)

	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "embed", queryErr.Stage)
	assert.Equal(t, StateReady, s.State())

	emb.queryErr = nil
	_, err = s.Ask(context.Background(), "a question?")
	assert.NoError(t, err)
}

func TestAsk_SynthesisFailureStaysReady(t *testing.T) {
	synth := &fakeSynth{err: errors.New("model unavailable")}
	s := newTestSession(t, &fakeEmbedder{}, synth)

	require.NoError(t, s.Ingest(context.Background(),
		testDoc("d", "doc.txt", "some document text")))

	_, err := s.Ask(context.Background(), "a question?")
	require.Error(t, err)

	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "synthesize", queryErr.Stage)
	assert.Equal(t, StateReady, s.State())
}

func TestReset(t *testing.T) {
	s := newTestSession(t, &fakeEmbedder{}, &fakeSynth{})

	require.NoError(t, s.Ingest(context.Background(),
		testDoc("d", "doc.txt", "some document text")))
	require.Equal(t, StateReady, s.State())

	s.Reset()

	assert.Equal(t, StateNoDocument, s.State())
	assert.Empty(t, s.DocumentName())
	assert.Zero(t, s.ChunkCount())

	ans, err := s.Ask(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Equal(t, MsgNoDocument, ans.Text)
}

func TestReset_ClearsErrorState(t *testing.T) {
	emb := &fakeEmbedder{embedErr: errors.New("api down")}
	s := newTestSession(t, emb, &fakeSynth{})

	require.Error(t, s.Ingest(context.Background(), testDoc("d", "doc.txt", "text")))
	require.Equal(t, StateError, s.State())

	s.Reset()
	assert.Equal(t, StateNoDocument, s.State())
}

func TestSessionState_String(t *testing.T) {
	cases := map[SessionState]string{
		StateNoDocument:  "no_document",
		StateIngesting:   "ingesting",
		StateReady:       "ready",
		StateQuerying:    "querying",
		StateError:       "error",
		SessionState(99): "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}
