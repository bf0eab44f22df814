// ABOUTME: HTTP client for the remote journal entry API.
// ABOUTME: Lists, inserts and deletes an owner's entries and reads the public feed.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2389-research/jot/internal/models"
)

// RemoteClient talks to a jot entry API.
type RemoteClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewRemoteClient creates a remote client with the given credentials.
func NewRemoteClient(apiURL, apiKey string) *RemoteClient {
	return &RemoteClient{
		apiURL: NormalizeAPIURL(apiURL),
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// NormalizeAPIURL strips trailing slashes and a trailing /v1 from a base URL.
func NormalizeAPIURL(apiURL string) string {
	apiURL = strings.TrimRight(apiURL, "/")
	return strings.TrimSuffix(apiURL, "/v1")
}

// remoteEntryPayload is the JSON body sent when inserting an entry.
type remoteEntryPayload struct {
	Title    *string     `json:"title"`
	Content  string      `json:"content"`
	Date     models.Date `json:"date"`
	IsPublic bool        `json:"is_public"`
}

// remoteListResponse is the envelope returned by the list endpoints.
type remoteListResponse struct {
	Entries    []models.JournalEntry `json:"entries"`
	TotalCount int                   `json:"total_count"`
}

// remoteErrorResponse is the JSON error body returned by the API.
type remoteErrorResponse struct {
	Error string `json:"error"`
}

// ListByOwner fetches the owner's entries, date descending.
func (r *RemoteClient) ListByOwner(ctx context.Context, ownerID string) ([]models.JournalEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.ownerURL(ownerID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var listResp remoteListResponse
	if err := r.do(req, http.StatusOK, &listResp); err != nil {
		return nil, err
	}
	if listResp.Entries == nil {
		listResp.Entries = []models.JournalEntry{}
	}
	return listResp.Entries, nil
}

// Insert posts a candidate and returns the stored entry.
func (r *RemoteClient) Insert(ctx context.Context, candidate *models.JournalEntry) (*models.JournalEntry, error) {
	payload := remoteEntryPayload{
		Title:    candidate.Title,
		Content:  candidate.Content,
		Date:     candidate.Date,
		IsPublic: candidate.IsPublic,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.ownerURL(candidate.OwnerID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var created models.JournalEntry
	if err := r.do(req, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("remote API returned an entry without an id")
	}
	return &created, nil
}

// DeleteByID deletes the owner's entry.
func (r *RemoteClient) DeleteByID(ctx context.Context, ownerID, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.ownerURL(ownerID)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return r.do(req, http.StatusNoContent, nil)
}

// ListPublic fetches the public feed.
func (r *RemoteClient) ListPublic(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+"/public/entries", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if limit > 0 {
		q := req.URL.Query()
		q.Set("limit", strconv.Itoa(limit))
		req.URL.RawQuery = q.Encode()
	}

	var listResp remoteListResponse
	if err := r.do(req, http.StatusOK, &listResp); err != nil {
		return nil, err
	}
	return listResp.Entries, nil
}

// Close releases idle connections.
func (r *RemoteClient) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *RemoteClient) ownerURL(ownerID string) string {
	return r.apiURL + "/owners/" + url.PathEscape(ownerID) + "/entries"
}

// do sends req with the API key, checks the status and decodes the body into out.
func (r *RemoteClient) do(req *http.Request, wantStatus int, out any) error {
	req.Header.Set("x-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("remote API returned unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps an error response to a storage error.
func statusError(resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	msg := strings.TrimSpace(string(respBody))
	var errResp remoteErrorResponse
	if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: remote API returned %d: %s", ErrNotFound, resp.StatusCode, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: remote API returned %d: %s", ErrInvalidEntry, resp.StatusCode, msg)
	default:
		return fmt.Errorf("remote API returned %d: %s", resp.StatusCode, msg)
	}
}
