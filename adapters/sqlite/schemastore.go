// Package sqlite provides a SQLite-backed schema store. Schemas are
// persisted in dumped source form and re-parsed and fixed on load, so the
// store never depends on the in-memory representation staying stable.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/wireschema/core/schema"
)

// ErrNotFound is returned when the named schema is not stored.
var ErrNotFound = errors.New("schema not found")

// Open creates a new SQLite database connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// SchemaStore persists dumped schemas by name.
type SchemaStore struct {
	db *sql.DB
}

// NewSchemaStore creates a schema store and its table.
func NewSchemaStore(db *sql.DB) (*SchemaStore, error) {
	s := &SchemaStore{db: db}
	if err := s.createTable(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SchemaStore) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schemas (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create schemas table: %w", err)
	}
	return nil
}

// Save stores the schema's dumped source under a name, replacing any
// previous version.
func (s *SchemaStore) Save(ctx context.Context, name string, sc *schema.Schema) error {
	source, err := sc.Dump("yaml")
	if err != nil {
		return fmt.Errorf("dump schema %q: %w", name, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schemas (id, name, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at
	`, uuid.New().String(), name, string(source), now, now)
	if err != nil {
		return fmt.Errorf("save schema %q: %w", name, err)
	}
	return nil
}

// Load parses and fixes the stored schema. Returns ErrNotFound when the
// name is not stored.
func (s *SchemaStore) Load(ctx context.Context, name string) (*schema.Schema, error) {
	var source string
	err := s.db.QueryRowContext(ctx, `SELECT source FROM schemas WHERE name = ?`, name).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schema %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load schema %q: %w", name, err)
	}

	sc, err := schema.Parse([]byte(source))
	if err != nil {
		return nil, fmt.Errorf("parse stored schema %q: %w", name, err)
	}
	if err := sc.Fix(); err != nil {
		return nil, fmt.Errorf("fix stored schema %q: %w", name, err)
	}
	return sc, nil
}

// Entry describes one stored schema.
type Entry struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// List returns all stored schemas ordered by name.
func (s *SchemaStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM schemas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created, updated string
		if err := rows.Scan(&e.ID, &e.Name, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a stored schema. Returns ErrNotFound when the name is
// not stored.
func (s *SchemaStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schemas WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete schema %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schema %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("schema %q: %w", name, ErrNotFound)
	}
	return nil
}
