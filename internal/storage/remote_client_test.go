// ABOUTME: Tests for the remote entry API client using httptest server.
// ABOUTME: Covers listing, insert payloads, delete, error mapping and auth header passing.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/jot/internal/models"
)

func TestRemoteClientListByOwner(t *testing.T) {
	var receivedAuth string
	var receivedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedAuth = r.Header.Get("x-api-key")
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[
			{"id":"e2","owner_id":"alice","created_at":"2024-06-02T08:00:00Z","date":"2024-06-02","title":"Second","content":"b","is_public":true},
			{"id":"e1","owner_id":"alice","created_at":"2024-06-01T08:00:00Z","date":"2024-06-01","title":null,"content":"a","is_public":false}
		],"total_count":2}`))
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, "test-key")
	entries, err := client.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}

	if receivedPath != "/owners/alice/entries" {
		t.Errorf("expected path /owners/alice/entries, got %s", receivedPath)
	}
	if receivedAuth != "test-key" {
		t.Errorf("expected 'test-key', got %q", receivedAuth)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "e2" || entries[1].ID != "e1" {
		t.Errorf("expected server order e2,e1, got %s,%s", entries[0].ID, entries[1].ID)
	}
	if entries[0].TitleOr("") != "Second" {
		t.Errorf("expected title 'Second', got %q", entries[0].TitleOr(""))
	}
	if entries[1].Title != nil {
		t.Error("expected null title to decode as absent")
	}
	if entries[1].Date.String() != "2024-06-01" {
		t.Errorf("expected date 2024-06-01, got %s", entries[1].Date)
	}
}

func TestRemoteClientListByOwnerEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entries":null,"total_count":0}`))
	}))
	defer server.Close()

	entries, err := NewRemoteClient(server.URL, "k").ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestRemoteClientInsert(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	var receivedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedContentType = r.Header.Get("Content-Type")
		receivedBody, _ = io.ReadAll(r.Body)
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"x1","owner_id":"alice","created_at":"2024-06-01T12:30:45Z","date":"2024-06-01","title":null,"content":"Hello","is_public":false}`))
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, "key")
	candidate := models.NewCandidate("alice", models.Draft{Content: "Hello"}, models.Date{Year: 2024, Month: 6, Day: 1})

	created, err := client.Insert(context.Background(), candidate)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	if receivedPath != "/owners/alice/entries" {
		t.Errorf("expected path /owners/alice/entries, got %s", receivedPath)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected 'application/json', got %q", receivedContentType)
	}

	var payload map[string]any
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Fatalf("failed to unmarshal request body: %v", err)
	}
	if payload["content"] != "Hello" {
		t.Errorf("expected content 'Hello', got %v", payload["content"])
	}
	if payload["date"] != "2024-06-01" {
		t.Errorf("expected date '2024-06-01', got %v", payload["date"])
	}
	if v, ok := payload["title"]; !ok || v != nil {
		t.Errorf("expected explicit null title, got %v (present=%v)", v, ok)
	}

	if created.ID != "x1" {
		t.Errorf("expected id x1, got %q", created.ID)
	}
	if !created.CreatedAt.Equal(time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)) {
		t.Errorf("unexpected created_at %v", created.CreatedAt)
	}
}

func TestRemoteClientInsertRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"content is required"}`))
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, "key")
	_, err := client.Insert(context.Background(), &models.JournalEntry{OwnerID: "alice"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("expected ErrInvalidEntry, got %v", err)
	}
	if !strings.Contains(err.Error(), "content is required") {
		t.Errorf("expected server message in error, got %v", err)
	}
}

func TestRemoteClientDeleteByID(t *testing.T) {
	var receivedPath, receivedMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL, "key")
	if err := client.DeleteByID(context.Background(), "alice", "x1"); err != nil {
		t.Fatalf("DeleteByID error: %v", err)
	}
	if receivedMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", receivedMethod)
	}
	if receivedPath != "/owners/alice/entries/x1" {
		t.Errorf("expected /owners/alice/entries/x1, got %s", receivedPath)
	}
}

func TestRemoteClientDeleteNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"entry not found"}`))
	}))
	defer server.Close()

	err := NewRemoteClient(server.URL, "key").DeleteByID(context.Background(), "alice", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoteClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer server.Close()

	_, err := NewRemoteClient(server.URL, "key").ListByOwner(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error to mention status code, got: %v", err)
	}
}

func TestRemoteClientConnectionError(t *testing.T) {
	client := NewRemoteClient("http://localhost:1", "key")
	_, err := client.ListByOwner(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected error for connection failure")
	}
}

func TestRemoteClientListPublicQuery(t *testing.T) {
	var receivedQuery, receivedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"entries":[],"total_count":0}`))
	}))
	defer server.Close()

	_, err := NewRemoteClient(server.URL, "key").ListPublic(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListPublic error: %v", err)
	}
	if receivedPath != "/public/entries" {
		t.Errorf("expected /public/entries, got %s", receivedPath)
	}
	if !strings.Contains(receivedQuery, "limit=5") {
		t.Errorf("expected limit=5 in query, got %q", receivedQuery)
	}
}

func TestRemoteClientStripsV1Suffix(t *testing.T) {
	var receivedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		_, _ = w.Write([]byte(`{"entries":[]}`))
	}))
	defer server.Close()

	client := NewRemoteClient(server.URL+"/v1/", "key")
	if _, err := client.ListByOwner(context.Background(), "bob"); err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if receivedPath != "/owners/bob/entries" {
		t.Errorf("expected /owners/bob/entries (v1 stripped), got %s", receivedPath)
	}
}
