// ABOUTME: Tests for MCP server creation and tool helpers.
// ABOUTME: Shared fixtures build a journal over in-memory SQLite and a file session.
package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/jot/internal/journal"
	"github.com/2389-research/jot/internal/logging"
	"github.com/2389-research/jot/internal/session"
	"github.com/2389-research/jot/internal/storage"
)

type fixture struct {
	server   *Server
	sessions *session.FileProvider
	store    *storage.SQLiteEntryService
}

func makeServer(t *testing.T, identity string) *fixture {
	t.Helper()
	store, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.NewFileProvider(filepath.Join(t.TempDir(), "session.yaml"))
	if identity != "" {
		if err := sessions.Login(context.Background(), identity); err != nil {
			t.Fatalf("Login error: %v", err)
		}
	}

	j := journal.New(sessions, store, journal.WithLogger(logging.Discard()))
	server, err := NewServer(j,
		WithFeed(store),
		WithSessionManager(sessions),
		WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("NewServer error: %v", err)
	}
	return &fixture{server: server, sessions: sessions, store: store}
}

func callTool(t *testing.T, s *Server, name string, args any) *gomcp.CallToolResult {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("failed to marshal args: %v", err)
	}

	req := &gomcp.CallToolRequest{
		Params: &gomcp.CallToolParamsRaw{
			Name:      name,
			Arguments: argsJSON,
		},
	}
	ctx := context.Background()

	handlers := map[string]func(context.Context, *gomcp.CallToolRequest) (*gomcp.CallToolResult, error){
		"list_entries":   s.handleListEntries,
		"read_entry":     s.handleReadEntry,
		"search_entries": s.handleSearchEntries,
		"write_entry":    s.handleWriteEntry,
		"delete_entry":   s.handleDeleteEntry,
		"read_feed":      s.handleReadFeed,
		"whoami":         s.handleWhoami,
		"login":          s.handleLogin,
		"logout":         s.handleLogout,
	}
	handler, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := handler(ctx, req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func getTextContent(result *gomcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*gomcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestNewServerRequiresJournal(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Error("expected error when journal is nil")
	}
}

func TestNewServerOptions(t *testing.T) {
	f := makeServer(t, "alice")
	if f.server.feed == nil {
		t.Error("expected feed to be set")
	}
	if f.server.sessions == nil {
		t.Error("expected session manager to be set")
	}
}
