// ABOUTME: SQLite-backed entry storage used by the local backend and jot serve.
// ABOUTME: Applies pragmas, embedded schema and user_version migrations on open.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/2389-research/jot/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema
// 1 - Partial index for the public feed
const currentSchemaVersion = 1

// createdAtLayout keeps created_at lexically sortable in SQL.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteEntryService stores entries in a SQLite database.
type SQLiteEntryService struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite creates or opens a SQLite entry database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteEntryService, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteEntryService{db: db, now: time.Now}, nil
}

// ListByOwner returns the owner's entries ordered by date descending.
func (s *SQLiteEntryService) ListByOwner(ctx context.Context, ownerID string) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, created_at, entry_date, title, content, is_public
		FROM entries
		WHERE owner_id = ?
		ORDER BY entry_date DESC, created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return scanEntries(rows)
}

// Insert stores the candidate with a fresh ID and creation time.
func (s *SQLiteEntryService) Insert(ctx context.Context, candidate *models.JournalEntry) (*models.JournalEntry, error) {
	if err := validateCandidate(candidate); err != nil {
		return nil, err
	}

	entry := *candidate
	entry.ID = uuid.New().String()
	entry.CreatedAt = s.now().UTC()

	var title sql.NullString
	if entry.Title != nil {
		title = sql.NullString{String: *entry.Title, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, owner_id, created_at, entry_date, title, content, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.OwnerID,
		entry.CreatedAt.Format(createdAtLayout),
		entry.Date.String(),
		title,
		entry.Content,
		entry.IsPublic,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}
	return &entry, nil
}

// DeleteByID removes the owner's entry. Returns ErrNotFound if no row matched.
func (s *SQLiteEntryService) DeleteByID(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListPublic returns public entries across owners, newest first.
func (s *SQLiteEntryService) ListPublic(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		limit = DefaultPublicLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, created_at, entry_date, title, content, is_public
		FROM entries
		WHERE is_public = 1
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query public entries: %w", err)
	}
	return scanEntries(rows)
}

// Close closes the database connection.
func (s *SQLiteEntryService) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]models.JournalEntry, error) {
	defer func() { _ = rows.Close() }()

	entries := []models.JournalEntry{}
	for rows.Next() {
		var (
			e         models.JournalEntry
			createdAt string
			date      string
			title     sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &createdAt, &date, &title, &e.Content, &e.IsPublic); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		ts, err := time.Parse(createdAtLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}
		e.CreatedAt = ts

		d, err := models.ParseDate(date)
		if err != nil {
			return nil, err
		}
		e.Date = d

		if title.Valid {
			t := title.String
			e.Title = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_entries_public_created
			ON entries(created_at DESC) WHERE is_public = 1`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
