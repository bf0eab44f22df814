// ABOUTME: MCP server initialization and configuration for jot.
// ABOUTME: Sets up the server with journal and session tools for AI agent access.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jot/internal/journal"
	"github.com/2389-research/jot/internal/session"
	"github.com/2389-research/jot/internal/storage"
)

// Server wraps the MCP server around a journal.
type Server struct {
	mcp      *gomcp.Server
	journal  *journal.Journal
	feed     storage.EntryService
	sessions session.Manager
	logger   *slog.Logger
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithFeed enables the read_feed tool backed by service.
func WithFeed(service storage.EntryService) ServerOption {
	return func(s *Server) {
		s.feed = service
	}
}

// WithSessionManager enables the login tool.
func WithSessionManager(m session.Manager) ServerOption {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server exposing j.
func NewServer(j *journal.Journal, opts ...ServerOption) (*Server, error) {
	if j == nil {
		return nil, fmt.Errorf("journal is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "jot",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:     mcpServer,
		journal: j,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerJournalTools()
	s.registerSessionTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
