package storage

import (
	"errors"
	"io"
	"time"
)

// Errors returned by blob stores.
var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrBlobExists   = errors.New("blob already exists")
	ErrWriterDone   = errors.New("blob writer already finalized")
)

// BlobStore persists opaque ciphertext blobs under flat names. The
// store never sees plaintext; callers hand it already encrypted
// streams.
type BlobStore interface {
	// OpenWrite stages a new blob. Nothing is visible under name
	// until Commit returns.
	OpenWrite(name string) (BlobWriter, error)

	// Open returns a reader over a committed blob.
	Open(name string) (io.ReadCloser, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(name string) error

	// Exists reports whether a committed blob is present.
	Exists(name string) (bool, error)

	// Stat returns blob metadata.
	Stat(name string) (BlobInfo, error)

	// List enumerates committed blobs.
	List() ([]BlobInfo, error)
}

// BlobWriter stages blob data. Commit publishes the blob atomically;
// Abort discards the partial data. Exactly one of the two must be
// called, and Abort after a failed Commit is safe.
type BlobWriter interface {
	io.Writer
	Commit() error
	Abort() error
}

// BlobInfo contains blob metadata.
type BlobInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}
