package state

import (
	"errors"
	"fmt"

	"github.com/sr093906/photok/internal/models"
)

// Store persists the entry index. The index is the only place blob
// names live; losing it orphans the ciphertext, so implementations
// guard their writes (transactions or checksummed atomic files).
type Store interface {
	// Save records a new entry. Entries are immutable: saving an ID
	// that already exists fails with ErrEntryExists.
	Save(entry *models.Entry) error

	// Get retrieves an entry by ID.
	Get(id string) (*models.Entry, error)

	// List returns all entries ordered by creation time.
	List() ([]*models.Entry, error)

	// Delete removes an entry record.
	Delete(id string) error

	// Count returns the number of entries.
	Count() (int, error)

	// Close releases resources.
	Close() error
}

// Errors
var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrEntryExists   = errors.New("entry already exists")
	ErrIndexCorrupt  = errors.New("entry index is corrupt")
)

// CurrentSchemaVersion for migrations.
const CurrentSchemaVersion = 1

// Migrate copies every entry from src into dst. Entries already in
// dst are skipped, so an interrupted migration can be resumed.
func Migrate(src, dst Store) (int, error) {
	entries, err := src.List()
	if err != nil {
		return 0, fmt.Errorf("list source entries: %w", err)
	}

	migrated := 0
	for _, entry := range entries {
		if err := dst.Save(entry); err != nil {
			if errors.Is(err, ErrEntryExists) {
				continue
			}
			return migrated, fmt.Errorf("save entry %s: %w", entry.ID, err)
		}
		migrated++
	}

	return migrated, nil
}
