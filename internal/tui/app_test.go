// ABOUTME: Unit tests for the journal UI bubbletea model.
// ABOUTME: Runs async commands inline and feeds their result msgs back into Update.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/jot/internal/journal"
	"github.com/2389-research/jot/internal/logging"
	"github.com/2389-research/jot/internal/models"
	"github.com/2389-research/jot/internal/session"
	"github.com/2389-research/jot/internal/storage"
)

type failingInsert struct {
	storage.EntryService
	err error
}

func (f failingInsert) Insert(context.Context, *models.JournalEntry) (*models.JournalEntry, error) {
	return nil, f.err
}

type appFixture struct {
	sessions *session.FileProvider
	store    *storage.SQLiteEntryService
	journal  *journal.Journal
}

func newAppFixture(t *testing.T, identity string, wrap func(storage.EntryService) storage.EntryService) *appFixture {
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

	var service storage.EntryService = store
	if wrap != nil {
		service = wrap(store)
	}
	j := journal.New(sessions, service, journal.WithLogger(logging.Discard()))
	return &appFixture{sessions: sessions, store: store, journal: j}
}

// run executes cmd and feeds any journal result msgs back into the model.
func run(t *testing.T, m AppModel, cmd tea.Cmd) AppModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(t, m, c)
		}
	case identityMsg, loginResultMsg, loadResultMsg, createResultMsg, deleteResultMsg, endSessionResultMsg:
		updated, next := m.Update(msg)
		m = run(t, updated.(AppModel), next)
	}
	return m
}

func key(m AppModel, k tea.KeyMsg) (AppModel, tea.Cmd) {
	updated, cmd := m.Update(k)
	return updated.(AppModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func start(t *testing.T, f *appFixture) AppModel {
	t.Helper()
	m := NewAppModel(context.Background(), f.journal, f.sessions)
	return run(t, m, m.Init())
}

func TestAppStartsAtLoginWhenSignedOut(t *testing.T) {
	m := start(t, newAppFixture(t, "", nil))
	if m.CurrentView() != ViewLogin {
		t.Fatalf("expected login view, got %d", m.CurrentView())
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Errorf("expected sign-in prompt, got %q", m.View())
	}
}

func TestAppLoadsEntriesWhenSignedIn(t *testing.T) {
	f := newAppFixture(t, "alice", nil)
	c := models.NewCandidate("alice", models.Draft{Title: "Hike", Content: "Up the hill"}, models.Date{Year: 2024, Month: 6, Day: 1})
	if _, err := f.store.Insert(context.Background(), c); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	m := start(t, f)
	if m.CurrentView() != ViewList {
		t.Fatalf("expected list view, got %d", m.CurrentView())
	}
	view := m.View()
	if !strings.Contains(view, "Hike") || !strings.Contains(view, "signed in as alice") {
		t.Errorf("expected loaded entry in view, got %q", view)
	}
}

func TestAppLogin(t *testing.T) {
	f := newAppFixture(t, "", nil)
	m := start(t, f)

	m.login.SetValue("bob")
	m, cmd := key(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected login command")
	}
	if !strings.Contains(m.View(), "Signing in") {
		t.Error("expected spinner while signing in")
	}

	m = run(t, m, cmd)
	if m.CurrentView() != ViewList {
		t.Fatalf("expected list view after login, got %d", m.CurrentView())
	}
	if f.journal.Owner() != "bob" {
		t.Errorf("expected journal loaded for bob, got %q", f.journal.Owner())
	}
}

func TestAppLoginRejectsInvalidIdentity(t *testing.T) {
	m := start(t, newAppFixture(t, "", nil))

	m.login.SetValue("../root")
	m, cmd := key(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command for an invalid identity")
	}
	if !strings.Contains(m.View(), "not a valid identity") {
		t.Errorf("expected error banner, got %q", m.View())
	}

	m, _ = key(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.banner != nil {
		t.Error("expected enter to dismiss the banner")
	}
}

func TestAppCreateEntry(t *testing.T) {
	f := newAppFixture(t, "alice", nil)
	m := start(t, f)

	m, _ = key(m, runes("n"))
	if m.CurrentView() != ViewForm {
		t.Fatalf("expected form view, got %d", m.CurrentView())
	}

	if _, cmd := key(m, tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Error("expected submit to be disabled while content is empty")
	}
	if !strings.Contains(m.View(), "write something first") {
		t.Error("expected disabled submit hint")
	}

	m.title.SetValue("  Garden ")
	m.content.SetValue("Planted tomatoes")
	m, _ = key(m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if !m.public {
		t.Fatal("expected ctrl+p to mark the entry public")
	}

	m, cmd := key(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected create command")
	}
	if _, again := key(m, tea.KeyMsg{Type: tea.KeyCtrlS}); again != nil {
		t.Error("expected second submit to be blocked while create is in flight")
	}
	if !strings.Contains(m.View(), "Saving") {
		t.Error("expected saving spinner")
	}

	m = run(t, m, cmd)
	if m.CurrentView() != ViewList {
		t.Fatalf("expected list view after create, got %d", m.CurrentView())
	}
	entries := f.journal.Entries()
	if len(entries) != 1 || entries[0].TitleOr("") != "Garden" || !entries[0].IsPublic {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if m.title.Value() != "" || m.content.Value() != "" || m.public {
		t.Error("expected form reset after create")
	}
}

func TestAppFormFrozenWhileSaving(t *testing.T) {
	f := newAppFixture(t, "alice", nil)
	m := start(t, f)

	m, _ = key(m, runes("n"))
	m.content.SetValue("first draft")
	m, cmd := key(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected create command")
	}

	m, _ = key(m, runes("typed late"))
	m, _ = key(m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if m.title.Value() != "" || m.public {
		t.Fatalf("expected form frozen while saving, got title %q public %v", m.title.Value(), m.public)
	}

	m = run(t, m, cmd)
	entries := f.journal.Entries()
	if len(entries) != 1 || entries[0].Content != "first draft" || entries[0].IsPublic {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestAppCreateFailureKeepsForm(t *testing.T) {
	f := newAppFixture(t, "alice", func(s storage.EntryService) storage.EntryService {
		return failingInsert{EntryService: s, err: errors.New("disk full")}
	})
	m := start(t, f)

	m, _ = key(m, runes("n"))
	m.content.SetValue("keep this")
	m, cmd := key(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, m, cmd)

	if !strings.Contains(m.View(), "disk full") {
		t.Errorf("expected error banner, got %q", m.View())
	}
	if m.CurrentView() != ViewForm || m.content.Value() != "keep this" {
		t.Error("expected form kept after failed create")
	}
	if len(f.journal.Entries()) != 0 {
		t.Error("expected mirror untouched after failed create")
	}

	// The banner blocks other input until dismissed.
	m, _ = key(m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.banner != nil || m.CurrentView() != ViewForm {
		t.Error("expected esc to only dismiss the banner")
	}
}

func TestAppDeleteNeedsConfirmation(t *testing.T) {
	f := newAppFixture(t, "alice", nil)
	c := models.NewCandidate("alice", models.Draft{Content: "to delete"}, models.Date{Year: 2024, Month: 6, Day: 1})
	if _, err := f.store.Insert(context.Background(), c); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	m := start(t, f)

	m, _ = key(m, runes("d"))
	if m.CurrentView() != ViewConfirm {
		t.Fatalf("expected confirm view, got %d", m.CurrentView())
	}
	if !strings.Contains(m.View(), journal.DeleteConfirmMessage) {
		t.Error("expected confirmation question in view")
	}

	m, cmd := key(m, runes("n"))
	if cmd != nil || m.CurrentView() != ViewList || len(f.journal.Entries()) != 1 {
		t.Fatal("expected declined delete to change nothing")
	}

	m, _ = key(m, runes("d"))
	m, cmd = key(m, runes("y"))
	m = run(t, m, cmd)
	if len(f.journal.Entries()) != 0 {
		t.Error("expected entry removed after confirmed delete")
	}
	remote, _ := f.store.ListByOwner(context.Background(), "alice")
	if len(remote) != 0 {
		t.Error("expected entry removed remotely")
	}
	if m.cursor != 0 {
		t.Errorf("expected cursor clamped, got %d", m.cursor)
	}
}

func TestAppDeleteAfterMirrorShrank(t *testing.T) {
	f := newAppFixture(t, "alice", nil)
	var created []*models.JournalEntry
	for d := 1; d <= 3; d++ {
		c := models.NewCandidate("alice", models.Draft{Content: fmt.Sprintf("day %d", d)}, models.Date{Year: 2024, Month: 6, Day: d})
		e, err := f.store.Insert(context.Background(), c)
		if err != nil {
			t.Fatalf("Insert error: %v", err)
		}
		created = append(created, e)
	}
	m := start(t, f)
	m, _ = key(m, runes("j"))
	m, _ = key(m, runes("j"))
	if m.cursor != 2 {
		t.Fatalf("expected cursor on the last entry, got %d", m.cursor)
	}

	// Another client removes two entries.
	for _, e := range created[1:] {
		if err := f.store.DeleteByID(context.Background(), "alice", e.ID); err != nil {
			t.Fatalf("DeleteByID error: %v", err)
		}
	}

	// The reload replaces the mirror before its result msg is delivered.
	m, cmd := key(m, runes("r"))
	if cmd == nil {
		t.Fatal("expected reload command")
	}
	pendingResult := cmd()

	m, _ = key(m, runes("d"))
	if m.CurrentView() != ViewConfirm {
		t.Fatalf("expected confirm view, got %d", m.CurrentView())
	}
	if m.cursor != 0 || m.target != created[0].ID {
		t.Errorf("expected remaining entry targeted, got cursor %d target %q", m.cursor, m.target)
	}

	updated, _ := m.Update(pendingResult)
	m = updated.(AppModel)
	if m.cursor != 0 {
		t.Errorf("expected cursor clamped, got %d", m.cursor)
	}
}

func TestAppLogout(t *testing.T) {
	f := newAppFixture(t, "alice", nil)
	m := start(t, f)

	m, cmd := key(m, runes("L"))
	m = run(t, m, cmd)
	if m.CurrentView() != ViewLogin {
		t.Fatalf("expected login view after logout, got %d", m.CurrentView())
	}
	if f.journal.Owner() != "" || len(f.journal.Entries()) != 0 {
		t.Error("expected mirror discarded after logout")
	}
	if id, _ := f.sessions.CurrentIdentity(context.Background()); id != "" {
		t.Errorf("expected session cleared, got %q", id)
	}
}

func TestAppReloadAfterSessionLostShowsLogin(t *testing.T) {
	f := newAppFixture(t, "alice", nil)
	m := start(t, f)

	if err := f.sessions.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	m, cmd := key(m, runes("r"))
	m = run(t, m, cmd)
	if m.CurrentView() != ViewLogin {
		t.Errorf("expected login view when session is gone, got %d", m.CurrentView())
	}
}

func TestAppWithoutSessionManager(t *testing.T) {
	f := newAppFixture(t, "", nil)
	m := NewAppModel(context.Background(), f.journal, nil)
	m = run(t, m, m.Init())

	if !strings.Contains(m.View(), "jot login") {
		t.Errorf("expected CLI login hint, got %q", m.View())
	}
	m.login.SetValue("alice")
	if _, cmd := key(m, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("expected no login without a session manager")
	}
}

func TestAppQuit(t *testing.T) {
	m := start(t, newAppFixture(t, "alice", nil))
	m, cmd := key(m, runes("q"))
	if cmd == nil || !m.Quitting() {
		t.Error("expected q to quit from the list")
	}
}
