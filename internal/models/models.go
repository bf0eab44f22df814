// ABOUTME: Core data models for dated journal entries and the entry draft form.
// ABOUTME: Provides the candidate constructor and identity validation shared by stores.
package models

import (
	"regexp"
	"strings"
	"time"
)

// JournalEntry is a single dated entry owned by exactly one identity.
type JournalEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Date      Date      `json:"date"`
	Title     *string   `json:"title"` // nil when absent
	Content   string    `json:"content"`
	IsPublic  bool      `json:"is_public"`
}

// HasTitle reports whether the entry carries a title.
func (e *JournalEntry) HasTitle() bool {
	return e.Title != nil
}

// TitleOr returns the title, or fallback when the title is absent.
func (e *JournalEntry) TitleOr(fallback string) string {
	if e.Title == nil {
		return fallback
	}
	return *e.Title
}

// Draft is the caller-visible form state for a new entry.
type Draft struct {
	Title    string
	Content  string
	IsPublic bool
}

// Ready reports whether the draft has non-blank content and may be submitted.
func (d *Draft) Ready() bool {
	return strings.TrimSpace(d.Content) != ""
}

// Reset clears the form back to its defaults.
func (d *Draft) Reset() {
	d.Title = ""
	d.Content = ""
	d.IsPublic = false
}

// NewCandidate builds an entry for insertion. The remote service assigns ID and CreatedAt.
func NewCandidate(ownerID string, draft Draft, today Date) *JournalEntry {
	return &JournalEntry{
		OwnerID:  ownerID,
		Date:     today,
		Title:    OptionalTitle(draft.Title),
		Content:  strings.TrimSpace(draft.Content),
		IsPublic: draft.IsPublic,
	}
}

// OptionalTitle trims a title and maps blank input to absent.
func OptionalTitle(title string) *string {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	return &title
}

var identityPattern = regexp.MustCompile(`^[A-Za-z0-9_@-][A-Za-z0-9._@-]{0,63}$`)

// ValidIdentity returns true if s can be used as an identity and owner key.
// Identities double as directory names in file-backed stores, so they are
// restricted to a conservative character set and may not start with a dot.
func ValidIdentity(s string) bool {
	return identityPattern.MatchString(s)
}
