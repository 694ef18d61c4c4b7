package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/report-rag/internal/rag"
	"github.com/bull/report-rag/internal/storage"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	store     *storage.Store
	retriever *rag.Retriever
	composer  *rag.Composer
}

// Config holds server dependencies.
type Config struct {
	Store     *storage.Store
	Retriever *rag.Retriever
	Composer  *rag.Composer
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "report-rag-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	// Register tools with real handlers
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_report",
		Description: "Answer a question from the indexed report PDFs. Returns a grounded answer with cited page numbers and the supporting passages.",
	}, makeAskHandler(cfg.Retriever, cfg.Composer))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_report",
		Description: "Search the indexed report chunks semantically. Returns ranked passages with normalized relevance scores; table passages are prioritized.",
	}, makeSearchHandler(cfg.Retriever))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Get the current state of the report index: total chunk count broken down by text and table chunks.",
	}, makeStatusHandler(cfg.Store))

	return &Server{
		server:    server,
		store:     cfg.Store,
		retriever: cfg.Retriever,
		composer:  cfg.Composer,
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
