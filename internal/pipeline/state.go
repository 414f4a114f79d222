package pipeline

// SessionState tracks where a session is in the document lifecycle.
// Transitions are driven by Ingest, Ask, and Reset; a session always rests
// in NoDocument, Ready, or Error between operations.
type SessionState int32

const (
	// StateNoDocument is the initial state: no document has been ingested.
	StateNoDocument SessionState = iota

	// StateIngesting means a document is being split, embedded, and indexed.
	StateIngesting

	// StateReady means a document is indexed and questions can be asked.
	StateReady

	// StateQuerying means a question is being answered.
	StateQuerying

	// StateError means the first ingestion failed and no index exists.
	// Reset returns the session to StateNoDocument.
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateNoDocument:
		return "no_document"
	case StateIngesting:
		return "ingesting"
	case StateReady:
		return "ready"
	case StateQuerying:
		return "querying"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
