// ABOUTME: MCP tool implementations for session operations.
// ABOUTME: Registers whoami, login and logout tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jot/internal/journal"
)

func (s *Server) registerSessionTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "whoami",
		Description: "Show the identity your journal entries are written under.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleWhoami)

	if s.sessions != nil {
		s.mcp.AddTool(&gomcp.Tool{
			Name:        "login",
			Description: "Sign in with an identity. Entries are written and listed under this identity.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"identity": {"type": "string", "description": "Your identity, letters, digits, and . _ @ -", "minLength": 1}
				},
				"required": ["identity"]
			}`),
		}, s.handleLogin)
	}

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "logout",
		Description: "Sign out and forget the loaded entries.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleLogout)
}

func (s *Server) handleWhoami(ctx context.Context, _ *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	identity, err := s.journal.Identity(ctx)
	if journal.IsUnauthenticated(err) {
		return toolText("Not signed in."), nil
	}
	if err != nil {
		return toolError("%v", err), nil
	}
	return toolText(fmt.Sprintf("Signed in as %s", identity)), nil
}

func (s *Server) handleLogin(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Identity string `json:"identity"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	identity := strings.TrimSpace(args.Identity)
	if identity == "" {
		return toolError("identity is required"), nil
	}

	if err := s.sessions.Login(ctx, identity); err != nil {
		return toolError("failed to sign in: %v", err), nil
	}
	if err := s.journal.Load(ctx); err != nil {
		return commandError(err), nil
	}

	return toolText(fmt.Sprintf("Signed in as %s (%d entries)", identity, len(s.journal.Entries()))), nil
}

func (s *Server) handleLogout(ctx context.Context, _ *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	if err := s.journal.EndSession(ctx); err != nil {
		return toolError("signed out locally, but: %v", err), nil
	}
	return toolText("Signed out."), nil
}
