// ABOUTME: MCP tool implementations for journal operations.
// ABOUTME: Registers list_entries, read_entry, search_entries, write_entry, delete_entry and read_feed.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jot/internal/journal"
	"github.com/2389-research/jot/internal/models"
	"github.com/2389-research/jot/internal/storage"
)

func (s *Server) registerJournalTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_entries",
		Description: "List your journal entries, most recent date first.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "number", "description": "Maximum number of entries to return (default: 20)"}
			}
		}`),
	}, s.handleListEntries)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "read_entry",
		Description: "Read the full content of one of your journal entries by ID.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry ID"}
			},
			"required": ["id"]
		}`),
	}, s.handleReadEntry)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "search_entries",
		Description: "Search your journal entries by text in the title or content.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query text"},
				"limit": {"type": "number", "description": "Maximum number of results (default 10)"}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchEntries)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "write_entry",
		Description: "Write a new journal entry dated today. Content is required; title is optional.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string", "description": "Optional title"},
				"content": {"type": "string", "description": "Entry text", "minLength": 1},
				"public": {"type": "boolean", "description": "Show this entry in the public feed (default false)"}
			},
			"required": ["content"]
		}`),
	}, s.handleWriteEntry)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "delete_entry",
		Description: "Permanently delete one of your journal entries. Requires confirm=true.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Entry ID"},
				"confirm": {"type": "boolean", "description": "Must be true to delete the entry"}
			},
			"required": ["id", "confirm"]
		}`),
	}, s.handleDeleteEntry)

	if s.feed != nil {
		s.mcp.AddTool(&gomcp.Tool{
			Name:        "read_feed",
			Description: "Read recent public entries from everyone.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"limit": {"type": "number", "description": "Maximum number of entries (default 20)"}
				}
			}`),
		}, s.handleReadFeed)
	}
}

func (s *Server) handleListEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Limit <= 0 {
		args.Limit = 20
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return commandError(err), nil
	}

	entries := s.journal.Entries()
	if len(entries) == 0 {
		return toolText("No entries yet."), nil
	}
	if len(entries) > args.Limit {
		entries = entries[:args.Limit]
	}
	return toolText(formatList(entries)), nil
}

func (s *Server) handleReadEntry(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.ID == "" {
		return toolError("id is required"), nil
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return commandError(err), nil
	}

	entry, ok := s.journal.Entry(args.ID)
	if !ok {
		return toolError("entry %s not found", args.ID), nil
	}
	return toolText(formatEntry(entry)), nil
}

func (s *Server) handleSearchEntries(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return toolError("query is required"), nil
	}
	if args.Limit <= 0 {
		args.Limit = 10
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return commandError(err), nil
	}

	results := s.journal.Search(args.Query)
	if len(results) == 0 {
		return toolText("No matching entries found."), nil
	}
	if len(results) > args.Limit {
		results = results[:args.Limit]
	}

	var sb strings.Builder
	for i, e := range results {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString(formatEntry(e))
	}
	return toolText(sb.String()), nil
}

func (s *Server) handleWriteEntry(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Public  bool   `json:"public"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return commandError(err), nil
	}

	draft := &models.Draft{Title: args.Title, Content: args.Content, IsPublic: args.Public}
	created, err := s.journal.Create(ctx, draft)
	if err != nil {
		return commandError(err), nil
	}

	s.logger.Debug("entry written via mcp", "id", created.ID)
	return toolText(fmt.Sprintf("Entry written:\nID: %s\nDate: %s\nVisibility: %s",
		created.ID, created.Date, visibility(created.IsPublic))), nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		ID      string `json:"id"`
		Confirm bool   `json:"confirm"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.ID == "" {
		return toolError("id is required"), nil
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return commandError(err), nil
	}

	deleted, err := s.journal.Delete(ctx, args.ID, journal.Answer(args.Confirm))
	if err != nil {
		return commandError(err), nil
	}
	if !deleted {
		return toolText(fmt.Sprintf("Deletion not confirmed. Nothing was deleted. Call again with confirm=true to delete entry %s.", args.ID)), nil
	}
	return toolText(fmt.Sprintf("Deleted entry %s", args.ID)), nil
}

func (s *Server) handleReadFeed(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if err := unmarshalArgs(req, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.Limit <= 0 {
		args.Limit = storage.DefaultPublicLimit
	}

	entries, err := s.feed.ListPublic(ctx, args.Limit)
	if err != nil {
		return toolError("failed to read feed: %v", err), nil
	}
	if len(entries) == 0 {
		return toolText("No public entries yet."), nil
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("- %s @%s %s\n  %s\n", e.Date, e.OwnerID, e.TitleOr("(untitled)"), firstLine(e.Content)))
	}
	return toolText(sb.String()), nil
}

// ensureLoaded rebuilds the mirror when it is missing or belongs to someone else.
func (s *Server) ensureLoaded(ctx context.Context) error {
	identity, err := s.journal.Identity(ctx)
	if err != nil {
		return err
	}
	if s.journal.Owner() == identity {
		return nil
	}
	return s.journal.Load(ctx)
}

// commandError turns a journal error into a tool error the agent can act on.
func commandError(err error) *gomcp.CallToolResult {
	switch {
	case journal.IsUnauthenticated(err):
		return toolError("not signed in: call login first")
	case journal.IsValidation(err):
		return toolError("%v", err)
	case errors.Is(err, storage.ErrNotFound):
		return toolError("entry not found: %v", err)
	case errors.Is(err, journal.ErrInFlight):
		return toolError("another request of this kind is still running, try again")
	default:
		return toolError("%v", err)
	}
}

func formatList(entries []models.JournalEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("- %s [%s] %s (%s)\n", e.Date, e.ID, e.TitleOr("(untitled)"), visibility(e.IsPublic)))
	}
	return sb.String()
}

func formatEntry(e models.JournalEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID: %s\n", e.ID))
	sb.WriteString(fmt.Sprintf("Date: %s\n", e.Date))
	if e.HasTitle() {
		sb.WriteString(fmt.Sprintf("Title: %s\n", *e.Title))
	}
	sb.WriteString(fmt.Sprintf("Visibility: %s\n", visibility(e.IsPublic)))
	sb.WriteString("\n" + e.Content + "\n")
	return sb.String()
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func unmarshalArgs(req *gomcp.CallToolRequest, v any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

func toolText(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

// toolError creates an error result for MCP tool responses.
func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
