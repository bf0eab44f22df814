// ABOUTME: In-memory mirror of the current owner's journal entries.
// ABOUTME: Ordered most-recent-first, replaced wholesale on load and patched by commands.
package journal

import (
	"fmt"
	"strings"
	"sync"

	"github.com/2389-research/jot/internal/models"
)

// InsertPolicy decides where InsertNew places a new entry.
type InsertPolicy int

const (
	// InsertPrepend puts new entries at the head regardless of date.
	InsertPrepend InsertPolicy = iota
	// InsertSorted keeps the store ordered by date descending, placing the
	// entry ahead of others from the same day.
	InsertSorted
)

// String returns the config name of the policy.
func (p InsertPolicy) String() string {
	switch p {
	case InsertSorted:
		return "sorted"
	default:
		return "prepend"
	}
}

// ParseInsertPolicy maps a config value to a policy. Empty means prepend.
func ParseInsertPolicy(s string) (InsertPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "prepend":
		return InsertPrepend, nil
	case "sorted":
		return InsertSorted, nil
	default:
		return InsertPrepend, fmt.Errorf("unknown insert policy %q", s)
	}
}

// EntryStore is an ordered in-memory sequence of entries.
type EntryStore struct {
	mu      sync.RWMutex
	entries []models.JournalEntry
	policy  InsertPolicy
}

// NewEntryStore creates an empty store using the given insert policy.
func NewEntryStore(policy InsertPolicy) *EntryStore {
	return &EntryStore{policy: policy}
}

// ReplaceAll discards the current contents and installs entries in the given order.
func (s *EntryStore) ReplaceAll(entries []models.JournalEntry) {
	cp := make([]models.JournalEntry, len(entries))
	copy(cp, entries)

	s.mu.Lock()
	s.entries = cp
	s.mu.Unlock()
}

// InsertNew adds an entry according to the store's policy.
func (s *EntryStore) InsertNew(entry models.JournalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := 0
	if s.policy == InsertSorted {
		idx = len(s.entries)
		for i, e := range s.entries {
			if !e.Date.After(entry.Date) {
				idx = i
				break
			}
		}
	}

	s.entries = append(s.entries, models.JournalEntry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = entry
}

// Remove deletes the first entry with the given ID. Reports whether one was removed.
func (s *EntryStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Size returns the number of entries.
func (s *EntryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// List returns a copy of the entries in store order.
func (s *EntryStore) List() []models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.JournalEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry with the given ID.
func (s *EntryStore) Get(id string) (models.JournalEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.JournalEntry{}, false
}

// Clear empties the store.
func (s *EntryStore) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
