// ABOUTME: Interface definition for the remote journal entry service.
// ABOUTME: Defines the contract for listing, inserting and deleting entries per owner.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2389-research/jot/internal/models"
)

var (
	// ErrNotFound indicates the entry does not exist for the given owner.
	ErrNotFound = errors.New("entry not found")

	// ErrInvalidEntry indicates the service rejected an entry candidate.
	ErrInvalidEntry = errors.New("invalid entry")
)

// DefaultPublicLimit caps ListPublic when no limit is given.
const DefaultPublicLimit = 20

// EntryService is the persistent store of journal entries, keyed by owner identity.
type EntryService interface {
	// ListByOwner returns the owner's entries ordered by date descending.
	ListByOwner(ctx context.Context, ownerID string) ([]models.JournalEntry, error)

	// Insert persists a candidate and returns it with the assigned ID and CreatedAt.
	Insert(ctx context.Context, candidate *models.JournalEntry) (*models.JournalEntry, error)

	// DeleteByID removes the owner's entry with the given ID. Returns ErrNotFound if absent.
	DeleteByID(ctx context.Context, ownerID, id string) error

	// ListPublic returns public entries across all owners, newest first.
	ListPublic(ctx context.Context, limit int) ([]models.JournalEntry, error)

	// Close releases any resources held by the service.
	Close() error
}

// validateCandidate applies the checks every backend enforces before insert.
func validateCandidate(c *models.JournalEntry) error {
	if c == nil {
		return fmt.Errorf("%w: candidate is nil", ErrInvalidEntry)
	}
	if !models.ValidIdentity(c.OwnerID) {
		return fmt.Errorf("%w: owner_id %q is invalid", ErrInvalidEntry, c.OwnerID)
	}
	if c.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEntry)
	}
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidEntry)
	}
	return nil
}
