package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sr093906/photok/internal/events"
	"github.com/sr093906/photok/internal/models"
)

// JSONStore implements a file-based entry index. The whole index
// lives in one checksummed JSON file; every mutation rewrites it
// atomically and keeps the previous version as a backup.
type JSONStore struct {
	path   string
	logger *events.Logger

	mu      sync.RWMutex
	entries map[string]*models.Entry
}

// indexFile is the on-disk layout.
type indexFile struct {
	SchemaVersion int              `json:"schema_version"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Checksum      string           `json:"checksum,omitempty"`
	Entries       []persistedEntry `json:"entries"`
}

// persistedEntry mirrors models.Entry. The model hides the blob name
// from serialization, so the index keeps its own record that does
// store it.
type persistedEntry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	BlobName      string    `json:"blob_name"`
	PlaintextSize int64     `json:"plaintext_size"`
	Kind          string    `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewJSONStore opens or creates a JSON entry index at path.
func NewJSONStore(path string, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	store := &JSONStore{
		path:    path,
		logger:  logger.WithField("component", "json_index"),
		entries: make(map[string]*models.Entry),
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

// Save records a new entry.
func (s *JSONStore) Save(entry *models.Entry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validate entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; exists {
		return fmt.Errorf("entry %s: %w", entry.ID, ErrEntryExists)
	}

	copied := *entry
	s.entries[entry.ID] = &copied

	if err := s.persist(); err != nil {
		delete(s.entries, entry.ID)
		return err
	}

	s.logger.WithField("entry_id", entry.ID).Debug("Saved entry to JSON index")
	return nil
}

// Get retrieves an entry by ID.
func (s *JSONStore) Get(id string) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}

	copied := *entry
	return &copied, nil
}

// List returns all entries ordered by creation time.
func (s *JSONStore) List() ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*models.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		copied := *entry
		entries = append(entries, &copied)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

// Delete removes an entry record.
func (s *JSONStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrEntryNotFound
	}

	delete(s.entries, id)

	if err := s.persist(); err != nil {
		s.entries[id] = entry
		return err
	}

	s.logger.WithField("entry_id", id).Debug("Deleted entry from JSON index")
	return nil
}

// Count returns the number of entries.
func (s *JSONStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries), nil
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

// load reads the index file, falling back to the backup when the
// main file is corrupt. A missing file means a fresh index.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read index file: %w", err)
	}

	file, err := decodeIndex(data)
	if err != nil {
		s.logger.WithError(err).Error("Index file corrupt, trying backup")

		backup, berr := os.ReadFile(s.path + ".backup")
		if berr != nil {
			return ErrIndexCorrupt
		}
		file, err = decodeIndex(backup)
		if err != nil {
			return ErrIndexCorrupt
		}
		s.logger.Warn("Loaded entry index from backup")
	}

	for _, p := range file.Entries {
		s.entries[p.ID] = &models.Entry{
			ID:            p.ID,
			Name:          p.Name,
			BlobName:      p.BlobName,
			PlaintextSize: p.PlaintextSize,
			Kind:          models.MediaKind(p.Kind),
			CreatedAt:     p.CreatedAt,
		}
	}

	return nil
}

// decodeIndex parses and checksum-verifies an index file.
func decodeIndex(data []byte) (*indexFile, error) {
	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	if file.Checksum != "" {
		verification := file
		verification.Checksum = ""

		verifyData, err := json.Marshal(verification)
		if err != nil {
			return nil, fmt.Errorf("marshal for checksum: %w", err)
		}

		hash := sha256.Sum256(verifyData)
		if hex.EncodeToString(hash[:]) != file.Checksum {
			return nil, fmt.Errorf("index checksum mismatch")
		}
	}

	return &file, nil
}

// persist writes the index atomically. Callers hold the write lock.
func (s *JSONStore) persist() error {
	file := indexFile{
		SchemaVersion: CurrentSchemaVersion,
		UpdatedAt:     time.Now().UTC(),
		Entries:       make([]persistedEntry, 0, len(s.entries)),
	}

	for _, entry := range s.entries {
		file.Entries = append(file.Entries, persistedEntry{
			ID:            entry.ID,
			Name:          entry.Name,
			BlobName:      entry.BlobName,
			PlaintextSize: entry.PlaintextSize,
			Kind:          string(entry.Kind),
			CreatedAt:     entry.CreatedAt,
		})
	}

	sort.Slice(file.Entries, func(i, j int) bool {
		return file.Entries[i].ID < file.Entries[j].ID
	})

	checksumData, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal index for checksum: %w", err)
	}
	hash := sha256.Sum256(checksumData)
	file.Checksum = hex.EncodeToString(hash[:])

	jsonData, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	// Keep the previous version around for corruption recovery
	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".backup", prev, 0600); err != nil {
			s.logger.WithError(err).Warn("Failed to write index backup")
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonData, 0600); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}

	if file, err := os.Open(tmpPath); err == nil {
		_ = file.Sync()
		file.Close()
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return nil
}
