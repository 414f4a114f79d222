package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docqa/internal/pipeline"
	"github.com/bull/docqa/internal/source"
)

// Server wraps the MCP server with its session and loader dependencies.
type Server struct {
	server  *mcp.Server
	session *pipeline.Session
	loader  *source.Loader
}

// Config holds server dependencies.
type Config struct {
	Session *pipeline.Session
	Loader  *source.Loader
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "docqa-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest a document for question answering. Accepts a local file path, an http(s) URL, or github://owner/repo/path. Replaces any previously ingested document.",
	}, makeIngestHandler(cfg.Session, cfg.Loader))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Ask a question about the ingested document. Retrieves the most relevant chunks and synthesizes a grounded answer.",
	}, makeAskHandler(cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_status",
		Description: "Get the current session state, the ingested document, and its chunk count.",
	}, makeStatusHandler(cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_session",
		Description: "Discard the ingested document and return the session to its initial state.",
	}, makeResetHandler(cfg.Session))

	return &Server{
		server:  server,
		session: cfg.Session,
		loader:  cfg.Loader,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
