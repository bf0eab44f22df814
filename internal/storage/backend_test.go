// ABOUTME: Behavior tests shared by the SQLite and markdown entry services.
// ABOUTME: Covers ordering, owner isolation, absent titles, delete and the public feed.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/2389-research/jot/internal/models"
)

type backendFactory func(t *testing.T) (EntryService, func(time.Time))

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"sqlite": func(t *testing.T) (EntryService, func(time.Time)) {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "entries.db"))
			if err != nil {
				t.Fatalf("OpenSQLite error: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s, func(now time.Time) { s.now = func() time.Time { return now } }
		},
		"markdown": func(t *testing.T) (EntryService, func(time.Time)) {
			s, err := NewMarkdownEntryService(filepath.Join(t.TempDir(), "entries"))
			if err != nil {
				t.Fatalf("NewMarkdownEntryService error: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s, func(now time.Time) { s.now = func() time.Time { return now } }
		},
	}
}

func day(d int) models.Date {
	return models.Date{Year: 2024, Month: time.June, Day: d}
}

func insert(t *testing.T, s EntryService, owner string, date models.Date, content string, public bool) *models.JournalEntry {
	t.Helper()
	c := models.NewCandidate(owner, models.Draft{Content: content, IsPublic: public}, date)
	e, err := s.Insert(context.Background(), c)
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	return e
}

func TestBackendInsertAssignsIdentity(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s, setNow := factory(t)
			now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
			setNow(now)

			title := "Morning"
			c := &models.JournalEntry{OwnerID: "alice", Date: day(1), Title: &title, Content: "Hello"}
			e, err := s.Insert(context.Background(), c)
			if err != nil {
				t.Fatalf("Insert error: %v", err)
			}
			if e.ID == "" {
				t.Error("expected assigned ID")
			}
			if !e.CreatedAt.Equal(now) {
				t.Errorf("expected created_at %v, got %v", now, e.CreatedAt)
			}
			if c.ID != "" {
				t.Error("Insert must not mutate the candidate")
			}

			list, err := s.ListByOwner(context.Background(), "alice")
			if err != nil {
				t.Fatalf("ListByOwner error: %v", err)
			}
			if len(list) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(list))
			}
			got := list[0]
			if got.ID != e.ID || got.Content != "Hello" || got.TitleOr("") != "Morning" || got.Date != day(1) {
				t.Errorf("roundtrip mismatch: %+v", got)
			}
			if !got.CreatedAt.Equal(now) {
				t.Errorf("expected stored created_at %v, got %v", now, got.CreatedAt)
			}
		})
	}
}

func TestBackendRejectsInvalidCandidates(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s, _ := factory(t)
			cases := []*models.JournalEntry{
				nil,
				{OwnerID: "alice", Date: day(1), Content: "   "},
				{OwnerID: "", Date: day(1), Content: "x"},
				{OwnerID: "../etc", Date: day(1), Content: "x"},
				{OwnerID: "alice", Content: "x"},
			}
			for i, c := range cases {
				if _, err := s.Insert(context.Background(), c); !errors.Is(err, ErrInvalidEntry) {
					t.Errorf("case %d: expected ErrInvalidEntry, got %v", i, err)
				}
			}
		})
	}
}

func TestBackendOrderingAndIsolation(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s, setNow := factory(t)
			base := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

			setNow(base)
			older := insert(t, s, "alice", day(3), "older", false)
			setNow(base.Add(time.Minute))
			newest := insert(t, s, "alice", day(5), "newest", false)
			setNow(base.Add(2 * time.Minute))
			sameDayLater := insert(t, s, "alice", day(3), "same day, later", false)
			setNow(base.Add(3 * time.Minute))
			insert(t, s, "bob", day(9), "bob's", false)

			list, err := s.ListByOwner(context.Background(), "alice")
			if err != nil {
				t.Fatalf("ListByOwner error: %v", err)
			}
			want := []string{newest.ID, sameDayLater.ID, older.ID}
			if len(list) != len(want) {
				t.Fatalf("expected %d entries, got %d", len(want), len(list))
			}
			for i, id := range want {
				if list[i].ID != id {
					t.Errorf("position %d: expected %s, got %s (%s)", i, id, list[i].ID, list[i].Content)
				}
				if list[i].OwnerID != "alice" {
					t.Errorf("expected only alice's entries, got owner %q", list[i].OwnerID)
				}
			}

			empty, err := s.ListByOwner(context.Background(), "carol")
			if err != nil {
				t.Fatalf("ListByOwner (carol) error: %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("expected no entries for carol, got %d", len(empty))
			}
		})
	}
}

func TestBackendAbsentTitle(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s, _ := factory(t)
			insert(t, s, "alice", day(1), "no title", false)

			empty := ""
			_, err := s.Insert(context.Background(), &models.JournalEntry{OwnerID: "alice", Date: day(2), Title: &empty, Content: "empty title"})
			if err != nil {
				t.Fatalf("Insert error: %v", err)
			}

			list, err := s.ListByOwner(context.Background(), "alice")
			if err != nil {
				t.Fatalf("ListByOwner error: %v", err)
			}
			if len(list) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(list))
			}
			if list[0].Title == nil || *list[0].Title != "" {
				t.Errorf("expected empty title kept distinct from absent, got %v", list[0].Title)
			}
			if list[1].Title != nil {
				t.Errorf("expected absent title, got %q", *list[1].Title)
			}
		})
	}
}

func TestBackendDelete(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s, _ := factory(t)
			keep := insert(t, s, "alice", day(1), "keep", false)
			drop := insert(t, s, "alice", day(2), "drop", false)

			if err := s.DeleteByID(context.Background(), "bob", drop.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound deleting another owner's entry, got %v", err)
			}
			if err := s.DeleteByID(context.Background(), "alice", drop.ID); err != nil {
				t.Fatalf("DeleteByID error: %v", err)
			}
			if err := s.DeleteByID(context.Background(), "alice", drop.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound on second delete, got %v", err)
			}

			list, err := s.ListByOwner(context.Background(), "alice")
			if err != nil {
				t.Fatalf("ListByOwner error: %v", err)
			}
			if len(list) != 1 || list[0].ID != keep.ID {
				t.Errorf("expected only %s to remain, got %+v", keep.ID, list)
			}
		})
	}
}

func TestBackendListPublic(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s, setNow := factory(t)
			base := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

			setNow(base)
			first := insert(t, s, "alice", day(1), "public one", true)
			setNow(base.Add(time.Minute))
			insert(t, s, "alice", day(1), "private", false)
			setNow(base.Add(2 * time.Minute))
			second := insert(t, s, "bob", day(1), "public two", true)

			feed, err := s.ListPublic(context.Background(), 0)
			if err != nil {
				t.Fatalf("ListPublic error: %v", err)
			}
			if len(feed) != 2 {
				t.Fatalf("expected 2 public entries, got %d", len(feed))
			}
			if feed[0].ID != second.ID || feed[1].ID != first.ID {
				t.Errorf("expected newest first: %s, %s", second.ID, first.ID)
			}

			limited, err := s.ListPublic(context.Background(), 1)
			if err != nil {
				t.Fatalf("ListPublic error: %v", err)
			}
			if len(limited) != 1 {
				t.Errorf("expected limit to apply, got %d", len(limited))
			}
		})
	}
}
