// ABOUTME: Journal is the owned state container for one signed-in session.
// ABOUTME: Runs load, create, delete and end-session commands remote-first against the mirror.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389-research/jot/internal/models"
	"github.com/2389-research/jot/internal/session"
	"github.com/2389-research/jot/internal/storage"
)

// Command names a journal command for in-flight tracking and logging.
type Command string

const (
	CommandLoad       Command = "load"
	CommandCreate     Command = "create"
	CommandDelete     Command = "delete"
	CommandEndSession Command = "end_session"
)

// DeleteConfirmMessage is the question put to the Confirmer before a delete.
const DeleteConfirmMessage = "Are you sure you want to delete this entry?"

// Journal composes the session gate, the entry service and the local mirror.
type Journal struct {
	gate     *SessionGate
	provider session.Provider
	remote   storage.EntryService
	store    *EntryStore
	policy   InsertPolicy
	now      func() time.Time
	logger   *slog.Logger

	mu       sync.Mutex
	owner    string
	loaded   bool
	inFlight map[Command]bool
	lastErr  error
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// WithClock sets the clock used to compute today's date.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		if now != nil {
			j.now = now
		}
	}
}

// WithInsertPolicy sets where newly created entries land in the mirror.
func WithInsertPolicy(policy InsertPolicy) Option {
	return func(j *Journal) {
		j.policy = policy
	}
}

// New creates a Journal for the given session provider and entry service.
func New(provider session.Provider, remote storage.EntryService, opts ...Option) *Journal {
	j := &Journal{
		gate:     NewSessionGate(provider),
		provider: provider,
		remote:   remote,
		now:      time.Now,
		logger:   slog.Default(),
		inFlight: make(map[Command]bool),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.store = NewEntryStore(j.policy)
	return j
}

// Load fetches the current identity's entries and replaces the mirror with them.
func (j *Journal) Load(ctx context.Context) error {
	if err := j.begin(CommandLoad); err != nil {
		return err
	}
	return j.finish(CommandLoad, j.load(ctx))
}

func (j *Journal) load(ctx context.Context) error {
	identity, err := j.require(ctx)
	if err != nil {
		return err
	}

	entries, err := j.remote.ListByOwner(ctx, identity)
	if err != nil {
		return &RemoteError{Op: string(CommandLoad), Err: err}
	}
	for _, e := range entries {
		if e.OwnerID != identity {
			return &RemoteError{
				Op:  string(CommandLoad),
				Err: fmt.Errorf("entry %s belongs to %q, not %q", e.ID, e.OwnerID, identity),
			}
		}
	}

	j.mu.Lock()
	j.store.ReplaceAll(entries)
	j.owner = identity
	j.loaded = true
	j.mu.Unlock()

	j.logger.Debug("entries loaded", "owner", identity, "count", len(entries))
	return nil
}

// Create inserts a new entry built from draft. On success the entry joins the
// mirror and the draft is reset. On failure neither is touched.
func (j *Journal) Create(ctx context.Context, draft *models.Draft) (*models.JournalEntry, error) {
	if err := j.begin(CommandCreate); err != nil {
		return nil, err
	}
	entry, err := j.create(ctx, draft)
	return entry, j.finish(CommandCreate, err)
}

func (j *Journal) create(ctx context.Context, draft *models.Draft) (*models.JournalEntry, error) {
	identity, err := j.require(ctx)
	if err != nil {
		return nil, err
	}
	if draft == nil || !draft.Ready() {
		return nil, &ValidationError{Field: "content", Message: "is required"}
	}
	if err := j.checkOwner(identity); err != nil {
		return nil, err
	}

	candidate := models.NewCandidate(identity, *draft, models.Today(j.now()))
	created, err := j.remote.Insert(ctx, candidate)
	if err != nil {
		return nil, &RemoteError{Op: string(CommandCreate), Err: err}
	}
	if created.OwnerID != identity {
		return nil, &RemoteError{
			Op:  string(CommandCreate),
			Err: fmt.Errorf("created entry %s belongs to %q, not %q", created.ID, created.OwnerID, identity),
		}
	}

	j.commit(identity, func() { j.store.InsertNew(*created) })
	draft.Reset()

	j.logger.Info("entry created", "owner", identity, "id", created.ID, "date", created.Date.String())
	return created, nil
}

// Delete removes the entry with the given ID after confirm agrees. A declined
// or nil confirmer returns (false, nil) with no side effects.
func (j *Journal) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if err := j.begin(CommandDelete); err != nil {
		return false, err
	}

	identity, err := j.require(ctx)
	if err != nil {
		return false, j.finish(CommandDelete, err)
	}
	if err := j.checkOwner(identity); err != nil {
		return false, j.finish(CommandDelete, err)
	}

	if confirm == nil || !confirm.Confirm(ctx, DeleteConfirmMessage) {
		j.end(CommandDelete)
		j.logger.Debug("delete declined", "owner", identity, "id", id)
		return false, nil
	}

	if err := j.remote.DeleteByID(ctx, identity, id); err != nil {
		return false, j.finish(CommandDelete, &RemoteError{Op: string(CommandDelete), Err: err})
	}

	j.commit(identity, func() { j.store.Remove(id) })
	j.logger.Info("entry deleted", "owner", identity, "id", id)
	return true, j.finish(CommandDelete, nil)
}

// EndSession signs out and discards the mirror whatever the sign-out outcome.
func (j *Journal) EndSession(ctx context.Context) error {
	if err := j.begin(CommandEndSession); err != nil {
		return err
	}

	err := j.provider.SignOut(ctx)
	j.discard()
	if err != nil {
		j.logger.Warn("sign out failed", "error", err)
		return j.finish(CommandEndSession, &RemoteError{Op: string(CommandEndSession), Err: err})
	}

	j.logger.Debug("session ended")
	return j.finish(CommandEndSession, nil)
}

// Identity runs the session gate without touching the mirror.
func (j *Journal) Identity(ctx context.Context) (string, error) {
	return j.gate.Require(ctx)
}

// Entries returns the mirror in display order.
func (j *Journal) Entries() []models.JournalEntry {
	return j.store.List()
}

// Entry returns the mirrored entry with the given ID.
func (j *Journal) Entry(id string) (models.JournalEntry, bool) {
	return j.store.Get(id)
}

// Search returns mirrored entries whose title or content contains query, ignoring case.
func (j *Journal) Search(query string) []models.JournalEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	all := j.store.List()
	if q == "" {
		return all
	}

	var matches []models.JournalEntry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.TitleOr("")), q) || strings.Contains(strings.ToLower(e.Content), q) {
			matches = append(matches, e)
		}
	}
	return matches
}

// InFlight reports whether cmd is outstanding.
func (j *Journal) InFlight(cmd Command) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inFlight[cmd]
}

// LastError returns the outcome of the most recently completed command.
func (j *Journal) LastError() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Owner returns the identity the mirror belongs to, or "" if nothing is loaded.
func (j *Journal) Owner() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.loaded {
		return ""
	}
	return j.owner
}

// require runs the gate and discards the mirror when nobody is signed in.
func (j *Journal) require(ctx context.Context) (string, error) {
	identity, err := j.gate.Require(ctx)
	if IsUnauthenticated(err) {
		j.discard()
	}
	return identity, err
}

// checkOwner refuses mutations against a mirror built for someone else.
func (j *Journal) checkOwner(identity string) error {
	j.mu.Lock()
	stale := !j.loaded || j.owner != identity
	j.mu.Unlock()

	if stale {
		j.discard()
		return ErrStaleMirror
	}
	return nil
}

// commit applies a local mutation if the mirror still belongs to identity.
func (j *Journal) commit(identity string, apply func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.loaded && j.owner == identity {
		apply()
	}
}

func (j *Journal) discard() {
	j.mu.Lock()
	j.store.Clear()
	j.owner = ""
	j.loaded = false
	j.mu.Unlock()
}

func (j *Journal) begin(cmd Command) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.inFlight[cmd] {
		return ErrInFlight
	}
	j.inFlight[cmd] = true
	return nil
}

// end clears the in-flight flag without recording an outcome.
func (j *Journal) end(cmd Command) {
	j.mu.Lock()
	j.inFlight[cmd] = false
	j.mu.Unlock()
}

// finish clears the in-flight flag and records err as the last outcome.
func (j *Journal) finish(cmd Command, err error) error {
	j.mu.Lock()
	j.inFlight[cmd] = false
	j.lastErr = err
	j.mu.Unlock()

	if err != nil {
		j.logger.Debug("command failed", "command", string(cmd), "error", err)
	}
	return err
}
