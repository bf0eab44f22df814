// ABOUTME: Connection validation for the remote entry API.
// ABOUTME: Tests credentials by reading a single public entry through the remote client.
package tui

import (
	"context"
	"fmt"

	"github.com/2389-research/jot/internal/storage"
)

// ValidateConnection checks apiURL and apiKey by fetching one public entry.
// The context allows cancellation when the user quits during validation.
func ValidateConnection(ctx context.Context, apiURL, apiKey string) error {
	client := storage.NewRemoteClient(apiURL, apiKey)
	defer func() { _ = client.Close() }()

	if _, err := client.ListPublic(ctx, 1); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}
