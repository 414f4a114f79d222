package mcp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bull/docqa/internal/pipeline"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Session   string `json:"session"`
	Document  string `json:"document,omitempty"`
	Timestamp string `json:"timestamp"`
}

// StateReporter is the health check dependency; the pipeline session
// implements it.
type StateReporter interface {
	State() pipeline.SessionState
	DocumentName() string
}

// NewHealthHandler creates an HTTP handler for the /health endpoint. The
// server is healthy whenever it can answer; the session state is included
// so operators can see whether a document is loaded.
func NewHealthHandler(session StateReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "healthy",
			Session:   session.State().String(),
			Document:  session.DocumentName(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
