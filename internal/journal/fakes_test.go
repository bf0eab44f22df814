// ABOUTME: In-package fakes for the session provider and entry service.
// ABOUTME: Record calls and inject failures for journal command tests.
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2389-research/jot/internal/models"
	"github.com/2389-research/jot/internal/storage"
)

type fakeProvider struct {
	mu          sync.Mutex
	identity    string
	err         error
	signOutErr  error
	signOuts    int
	identityHit int
}

func (p *fakeProvider) CurrentIdentity(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identityHit++
	return p.identity, p.err
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOuts++
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.identity = ""
	return nil
}

func (p *fakeProvider) set(identity string) {
	p.mu.Lock()
	p.identity = identity
	p.mu.Unlock()
}

type fakeService struct {
	mu sync.Mutex

	entries   []models.JournalEntry
	listErr   error
	insertErr error
	deleteErr error

	// ignoreOwner makes ListByOwner return every entry, like a broken remote.
	ignoreOwner bool

	// insertGate, when set, blocks Insert until it receives a value.
	insertGate chan struct{}
	// insertStarted, when set, is closed once Insert begins.
	insertStarted chan struct{}
	// listGate and listStarted do the same for ListByOwner.
	listGate    chan struct{}
	listStarted chan struct{}
	// deleteGate and deleteStarted do the same for DeleteByID.
	deleteGate    chan struct{}
	deleteStarted chan struct{}

	listCalls   []string
	inserted    []models.JournalEntry
	deleteCalls [][2]string
	nextID      int
}

func (s *fakeService) ListByOwner(_ context.Context, ownerID string) ([]models.JournalEntry, error) {
	wait(s.listStarted, s.listGate)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls = append(s.listCalls, ownerID)
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.JournalEntry
	for _, e := range s.entries {
		if s.ignoreOwner || e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeService) Insert(_ context.Context, candidate *models.JournalEntry) (*models.JournalEntry, error) {
	wait(s.insertStarted, s.insertGate)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, *candidate)
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.nextID++
	created := *candidate
	created.ID = fmt.Sprintf("x%d", s.nextID)
	created.CreatedAt = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &created, nil
}

func (s *fakeService) DeleteByID(_ context.Context, ownerID, id string) error {
	wait(s.deleteStarted, s.deleteGate)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, [2]string{ownerID, id})
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, e := range s.entries {
		if e.ID == id && e.OwnerID == ownerID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
}

// wait closes started and then blocks on gate. Either may be nil.
func wait(started, gate chan struct{}) {
	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
}

func (s *fakeService) ListPublic(context.Context, int) ([]models.JournalEntry, error) {
	return nil, nil
}

func (s *fakeService) Close() error { return nil }

func (s *fakeService) calls() (lists, inserts, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listCalls), len(s.inserted), len(s.deleteCalls)
}

func entry(id, owner string, d int) models.JournalEntry {
	return models.JournalEntry{
		ID:      id,
		OwnerID: owner,
		Date:    models.Date{Year: 2024, Month: time.June, Day: d},
		Content: "content " + id,
	}
}
