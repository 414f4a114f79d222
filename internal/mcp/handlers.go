package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docqa/internal/pipeline"
	"github.com/bull/docqa/internal/source"
)

// makeIngestHandler creates the ingest_document tool handler.
// Ingestion flow: resolve the reference and extract text, then split,
// embed, and index it. On failure the previous document (if any) stays
// queryable.
func makeIngestHandler(session *pipeline.Session, loader *source.Loader) func(
	context.Context, *mcp.CallToolRequest, IngestDocumentInput,
) (*mcp.CallToolResult, IngestDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestDocumentInput) (
		*mcp.CallToolResult, IngestDocumentOutput, error,
	) {
		if input.Source == "" {
			return nil, IngestDocumentOutput{}, fmt.Errorf("source is required")
		}

		doc, err := loader.Load(ctx, input.Source)
		if err != nil {
			return nil, IngestDocumentOutput{}, fmt.Errorf("load document: %w", err)
		}

		if err := session.Ingest(ctx, doc); err != nil {
			return nil, IngestDocumentOutput{}, err
		}

		return nil, IngestDocumentOutput{
			DocumentID:   session.DocumentID(),
			DocumentName: session.DocumentName(),
			Chunks:       session.ChunkCount(),
			State:        session.State().String(),
		}, nil
	}
}

// makeAskHandler creates the ask_document tool handler. Questions asked
// before a document is ready return a canned answer rather than an error.
func makeAskHandler(session *pipeline.Session) func(
	context.Context, *mcp.CallToolRequest, AskDocumentInput,
) (*mcp.CallToolResult, AskDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskDocumentInput) (
		*mcp.CallToolResult, AskDocumentOutput, error,
	) {
		ans, err := session.Ask(ctx, input.Question)
		if err != nil {
			return nil, AskDocumentOutput{}, err
		}

		// Non-nil for JSON marshaling even when the answer is canned.
		sources := make([]AnswerSource, 0, len(ans.Sources))
		for _, s := range ans.Sources {
			sources = append(sources, AnswerSource{Ordinal: s.Ordinal, Score: s.Score})
		}

		return nil, AskDocumentOutput{
			Answer:  ans.Text,
			Sources: sources,
		}, nil
	}
}

// makeStatusHandler creates the session_status tool handler.
func makeStatusHandler(session *pipeline.Session) func(
	context.Context, *mcp.CallToolRequest, SessionStatusInput,
) (*mcp.CallToolResult, SessionStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionStatusInput) (
		*mcp.CallToolResult, SessionStatusOutput, error,
	) {
		return nil, SessionStatusOutput{
			State:        session.State().String(),
			DocumentID:   session.DocumentID(),
			DocumentName: session.DocumentName(),
			Chunks:       session.ChunkCount(),
		}, nil
	}
}

// makeResetHandler creates the reset_session tool handler.
func makeResetHandler(session *pipeline.Session) func(
	context.Context, *mcp.CallToolRequest, ResetSessionInput,
) (*mcp.CallToolResult, ResetSessionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ResetSessionInput) (
		*mcp.CallToolResult, ResetSessionOutput, error,
	) {
		session.Reset()
		return nil, ResetSessionOutput{
			State: session.State().String(),
		}, nil
	}
}
