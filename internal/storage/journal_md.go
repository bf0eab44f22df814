// ABOUTME: Markdown-based entry storage with one directory tree per owner.
// ABOUTME: Stores entries as markdown files with YAML frontmatter in date-based directories.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/2389-research/jot/internal/mdfile"
	"github.com/2389-research/jot/internal/models"
)

// MarkdownEntryService stores entries as markdown files under root/<owner>/<date>/.
type MarkdownEntryService struct {
	root string
	mu   sync.Mutex // serializes writes and deletes
	now  func() time.Time
}

// entryFrontmatter is the YAML frontmatter for entry files.
type entryFrontmatter struct {
	ID        string  `yaml:"id"`
	Owner     string  `yaml:"owner"`
	Date      string  `yaml:"date"`
	CreatedAt string  `yaml:"created_at"`
	Title     *string `yaml:"title,omitempty"`
	Public    bool    `yaml:"public"`
}

// NewMarkdownEntryService creates a markdown entry service rooted at root.
func NewMarkdownEntryService(root string) (*MarkdownEntryService, error) {
	if root == "" {
		return nil, fmt.Errorf("markdown root is required")
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create markdown root: %w", err)
	}
	return &MarkdownEntryService{root: root, now: time.Now}, nil
}

// ListByOwner lists the owner's entries, date descending.
func (s *MarkdownEntryService) ListByOwner(ctx context.Context, ownerID string) ([]models.JournalEntry, error) {
	if !models.ValidIdentity(ownerID) {
		return nil, fmt.Errorf("%w: owner_id %q is invalid", ErrInvalidEntry, ownerID)
	}
	entries, err := s.scan(ctx, filepath.Join(s.root, ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for %s: %w", ownerID, err)
	}
	SortByDateDesc(entries)
	return entries, nil
}

// Insert writes the candidate to disk with a fresh ID and creation time.
func (s *MarkdownEntryService) Insert(ctx context.Context, candidate *models.JournalEntry) (*models.JournalEntry, error) {
	if err := validateCandidate(candidate); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := *candidate
	entry.ID = uuid.New().String()
	entry.CreatedAt = s.now().UTC()

	fm := entryFrontmatter{
		ID:        entry.ID,
		Owner:     entry.OwnerID,
		Date:      entry.Date.String(),
		CreatedAt: mdfile.FormatTime(entry.CreatedAt),
		Title:     entry.Title,
		Public:    entry.IsPublic,
	}
	content, err := mdfile.RenderFrontmatter(fm, entry.Content+"\n")
	if err != nil {
		return nil, fmt.Errorf("failed to render frontmatter: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := mdfile.AtomicWrite(s.entryPath(&entry), []byte(content)); err != nil {
		return nil, fmt.Errorf("failed to write entry: %w", err)
	}
	return &entry, nil
}

// DeleteByID removes the owner's entry file.
func (s *MarkdownEntryService) DeleteByID(ctx context.Context, ownerID, id string) error {
	if !models.ValidIdentity(ownerID) {
		return fmt.Errorf("%w: owner_id %q is invalid", ErrInvalidEntry, ownerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(ctx, filepath.Join(s.root, ownerID), id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// ListPublic returns public entries across owners, newest first.
func (s *MarkdownEntryService) ListPublic(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	all, err := s.scan(ctx, s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list public entries: %w", err)
	}

	public := all[:0]
	for _, e := range all {
		if e.IsPublic {
			public = append(public, e)
		}
	}
	sort.SliceStable(public, func(i, j int) bool {
		return public[i].CreatedAt.After(public[j].CreatedAt)
	})

	if limit <= 0 {
		limit = DefaultPublicLimit
	}
	if len(public) > limit {
		public = public[:limit]
	}
	return public, nil
}

// Close releases any resources held by the service.
func (s *MarkdownEntryService) Close() error {
	return nil
}

// entryPath returns <root>/<owner>/<date>/<time>-<shortid>.md for an entry.
func (s *MarkdownEntryService) entryPath(e *models.JournalEntry) string {
	timeStr := e.CreatedAt.Format("15-04-05-000000")
	filename := timeStr + "-" + e.ID[:8] + ".md"
	return filepath.Join(s.root, e.OwnerID, e.Date.String(), filename)
}

// scan walks dir for entry files. A missing dir yields no entries.
func (s *MarkdownEntryService) scan(ctx context.Context, dir string) ([]models.JournalEntry, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var entries []models.JournalEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		entry, err := parseEntry(path, string(data))
		if err != nil {
			return nil
		}
		entries = append(entries, *entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// errEntryFound short-circuits the walk in find.
var errEntryFound = errors.New("entry found")

// find returns the path of the entry file with the given ID under dir.
func (s *MarkdownEntryService) find(ctx context.Context, dir, id string) (string, error) {
	var found string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		entry, err := parseEntry(path, string(data))
		if err != nil || entry.ID != id {
			return nil
		}
		found = path
		return errEntryFound
	})
	if walkErr != nil && walkErr != errEntryFound {
		return "", walkErr
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return found, nil
}

// parseEntry parses a markdown file into a JournalEntry.
func parseEntry(path string, content string) (*models.JournalEntry, error) {
	yamlStr, body := mdfile.ParseFrontmatter(content)
	if yamlStr == "" {
		return nil, fmt.Errorf("no frontmatter found in %s", path)
	}

	var fm entryFrontmatter
	if err := yaml.Unmarshal([]byte(yamlStr), &fm); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if fm.ID == "" {
		return nil, fmt.Errorf("missing id in %s", path)
	}

	date, err := models.ParseDate(fm.Date)
	if err != nil {
		return nil, err
	}
	createdAt, err := mdfile.ParseTime(fm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at in frontmatter: %w", err)
	}

	return &models.JournalEntry{
		ID:        fm.ID,
		OwnerID:   fm.Owner,
		CreatedAt: createdAt,
		Date:      date,
		Title:     fm.Title,
		Content:   strings.TrimSpace(body),
		IsPublic:  fm.Public,
	}, nil
}

// SortByDateDesc orders entries by date descending, newest creation first within a day.
func SortByDateDesc(entries []models.JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Date.Compare(entries[j].Date); c != 0 {
			return c > 0
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
