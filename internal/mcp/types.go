// Package mcp exposes the document question-answering session over the
// Model Context Protocol.
package mcp

// IngestDocumentInput defines the input parameters for the ingest_document tool.
type IngestDocumentInput struct {
	// Source is the document reference to ingest.
	Source string `json:"source" jsonschema:"required,description=Document reference - a local file path or http(s) URL or github://owner/repo/path"`
}

// IngestDocumentOutput reports the result of an ingestion.
type IngestDocumentOutput struct {
	// DocumentID identifies this document load.
	DocumentID string `json:"document_id"`
	// DocumentName is the file name of the ingested document.
	DocumentName string `json:"document_name"`
	// Chunks is how many chunks the document was split into.
	Chunks int `json:"chunks"`
	// State is the session state after ingestion.
	State string `json:"state"`
}

// AskDocumentInput defines the input parameters for the ask_document tool.
type AskDocumentInput struct {
	// Question is the natural-language question about the document.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the ingested document"`
}

// AskDocumentOutput contains the synthesized answer.
type AskDocumentOutput struct {
	// Answer is the grounded answer text.
	Answer string `json:"answer"`
	// Sources lists the chunks the answer was grounded in.
	Sources []AnswerSource `json:"sources"`
}

// AnswerSource identifies one chunk that contributed context to an answer.
type AnswerSource struct {
	// Ordinal is the chunk's position in the document.
	Ordinal int `json:"ordinal"`
	// Score is the chunk's cosine similarity to the question.
	Score float64 `json:"score"`
}

// SessionStatusInput defines the input parameters for the session_status tool.
// This tool takes no parameters.
type SessionStatusInput struct {
	// No input parameters required
}

// SessionStatusOutput reports the session's current state and document.
type SessionStatusOutput struct {
	// State is the session state: no_document, ingesting, ready, querying, or error.
	State string `json:"state"`
	// DocumentID identifies the current document load, if any.
	DocumentID string `json:"document_id,omitempty"`
	// DocumentName is the current document's file name, if any.
	DocumentName string `json:"document_name,omitempty"`
	// Chunks is how many chunks the current document produced.
	Chunks int `json:"chunks"`
}

// ResetSessionInput defines the input parameters for the reset_session tool.
// This tool takes no parameters.
type ResetSessionInput struct {
	// No input parameters required
}

// ResetSessionOutput reports the session state after a reset.
type ResetSessionOutput struct {
	// State is always no_document after a reset.
	State string `json:"state"`
}
