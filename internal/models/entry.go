package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind classifies the plaintext content of a vault entry.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
	MediaOther MediaKind = "other"
)

// Valid reports whether the kind is one of the known values.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaOther:
		return true
	}
	return false
}

// Entry represents a single encrypted media item in the vault.
// Entries are immutable once recorded: import creates them, delete
// removes them, nothing mutates them in between.
//
// BlobName locates the ciphertext inside the vault data directory. It
// is deliberately excluded from the JSON shape; consumers only ever see
// decrypted streams, never the ciphertext location.
type Entry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	BlobName      string    `json:"-"`
	PlaintextSize int64     `json:"plaintext_size"`
	Kind          MediaKind `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate validates the entry structure and data.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("entry ID is required")
	}

	if strings.TrimSpace(e.BlobName) == "" {
		return fmt.Errorf("blob name is required")
	}

	if e.PlaintextSize < 0 {
		return fmt.Errorf("plaintext size cannot be negative")
	}

	if !e.Kind.Valid() {
		return fmt.Errorf("unknown media kind: %q", e.Kind)
	}

	if e.CreatedAt.IsZero() {
		return fmt.Errorf("created_at timestamp is required")
	}

	return nil
}
