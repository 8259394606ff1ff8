package state

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sr093906/photok/internal/events"
	"github.com/sr093906/photok/internal/models"
)

// SQLiteStore implements SQLite-based index storage.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore creates a SQLite entry index.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_index"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS entries (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        blob_name TEXT NOT NULL UNIQUE,
        plaintext_size INTEGER NOT NULL,
        kind TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Save records a new entry.
func (s *SQLiteStore) Save(entry *models.Entry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validate entry: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"kind":     entry.Kind,
	}).Debug("Saving entry to SQLite")

	_, err := s.db.Exec(`
        INSERT INTO entries (id, name, blob_name, plaintext_size, kind, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, entry.ID, entry.Name, entry.BlobName, entry.PlaintextSize, string(entry.Kind), entry.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("entry %s: %w", entry.ID, ErrEntryExists)
		}
		return fmt.Errorf("insert entry: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID.
func (s *SQLiteStore) Get(id string) (*models.Entry, error) {
	var entry models.Entry
	var kind string

	err := s.db.QueryRow(`
        SELECT id, name, blob_name, plaintext_size, kind, created_at
        FROM entries
        WHERE id = ?
    `, id).Scan(&entry.ID, &entry.Name, &entry.BlobName, &entry.PlaintextSize, &kind, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}

	entry.Kind = models.MediaKind(kind)
	return &entry, nil
}

// List returns all entries ordered by creation time.
func (s *SQLiteStore) List() ([]*models.Entry, error) {
	rows, err := s.db.Query(`
        SELECT id, name, blob_name, plaintext_size, kind, created_at
        FROM entries
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		var entry models.Entry
		var kind string

		if err := rows.Scan(&entry.ID, &entry.Name, &entry.BlobName,
			&entry.PlaintextSize, &kind, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}

		entry.Kind = models.MediaKind(kind)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// Delete removes an entry record.
func (s *SQLiteStore) Delete(id string) error {
	s.logger.WithField("entry_id", id).Debug("Deleting entry from SQLite")

	result, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	return nil
}

// Count returns the number of entries.
func (s *SQLiteStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
