package entries

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sr093906/photok/internal/crypto"
	"github.com/sr093906/photok/internal/events"
	"github.com/sr093906/photok/internal/models"
	"github.com/sr093906/photok/internal/state"
	"github.com/sr093906/photok/internal/storage"
	"github.com/sr093906/photok/internal/streams"
)

// KeySource supplies stream keys for an unlocked vault and receives
// activity signals. The session service implements it; tests inject
// their own.
type KeySource interface {
	// Keys returns the stream keys, or models.ErrVaultLocked.
	Keys() (*crypto.StreamKey, error)

	// Activity reports that an entry was read or written, pushing the
	// idle auto-lock out.
	Activity()
}

// Service manages vault entries end to end: import encrypts plaintext
// into a staged blob and records the entry only once the blob is
// committed; open returns a verified decrypting stream positioned at
// a requested plaintext offset.
type Service struct {
	keys   KeySource
	blobs  storage.BlobStore
	index  state.Store
	closer *streams.CloserPool
	logger *events.Logger
}

// NewService creates an entries service.
func NewService(keys KeySource, blobs storage.BlobStore, index state.Store, closer *streams.CloserPool, logger *events.Logger) *Service {
	return &Service{
		keys:   keys,
		blobs:  blobs,
		index:  index,
		closer: closer,
		logger: logger.WithField("service", "entries"),
	}
}

// Import encrypts src into a new blob and records the entry. The blob
// is staged while being written and published only after the
// authentication tag is finalized, so a failure at any point leaves
// neither a partial blob nor an index record.
func (s *Service) Import(ctx context.Context, src io.Reader, name string) (*models.Entry, error) {
	keys, err := s.keys.Keys()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blobName := uuid.NewString()
	logger := s.logger.WithFields(map[string]interface{}{
		"name": name,
		"blob": blobName,
	})
	logger.Debug("Importing entry")

	w, err := s.blobs.OpenWrite(blobName)
	if err != nil {
		return nil, fmt.Errorf("stage blob: %w", err)
	}

	enc, err := crypto.NewEncryptingWriter(w, keys)
	if err != nil {
		_ = w.Abort()
		return nil, err
	}

	size, kind, err := s.encryptFrom(ctx, enc, src)
	if err != nil {
		_ = w.Abort()
		return nil, err
	}

	if err := enc.Close(); err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("finalize stream: %w", err)
	}
	if err := w.Commit(); err != nil {
		return nil, fmt.Errorf("commit blob: %w", err)
	}

	entry := &models.Entry{
		ID:            uuid.NewString(),
		Name:          name,
		BlobName:      blobName,
		PlaintextSize: size,
		Kind:          kind,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.index.Save(entry); err != nil {
		// The blob is already committed; remove it so a failed
		// import leaves nothing behind.
		if derr := s.blobs.Delete(blobName); derr != nil {
			logger.WithError(derr).Warn("Failed to remove blob after index failure")
		}
		return nil, fmt.Errorf("record entry: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"kind":     entry.Kind,
		"size":     entry.PlaintextSize,
	}).Info("Entry imported")

	copied := *entry
	return &copied, nil
}

// encryptFrom sniffs the media kind from the leading bytes and pipes
// the rest of src through the encrypting writer. Returns the
// plaintext byte count.
func (s *Service) encryptFrom(ctx context.Context, enc io.Writer, src io.Reader) (int64, models.MediaKind, error) {
	reader := &ctxReader{ctx: ctx, r: src}
	dst := &streams.ActivityWriter{W: enc, OnActivity: s.keys.Activity}

	head := make([]byte, models.SniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, "", fmt.Errorf("read source: %w", err)
	}
	short := err != nil

	kind := models.DetectMediaKind(head[:n])

	total := int64(n)
	if n > 0 {
		if _, werr := dst.Write(head[:n]); werr != nil {
			return 0, "", fmt.Errorf("encrypt source: %w", werr)
		}
	}

	if !short {
		copied, cerr := io.Copy(dst, reader)
		total += copied
		if cerr != nil {
			return total, kind, fmt.Errorf("encrypt source: %w", cerr)
		}
	}

	return total, kind, nil
}

// Open returns a decrypting stream over the entry, positioned at
// startOffset plaintext bytes. The offset is validated against the
// recorded plaintext size up front; reaching it goes through the
// decrypt-and-authenticate path byte for byte, never an underlying
// seek. The returned handle is forward-only and owned by the caller.
func (s *Service) Open(ctx context.Context, id string, startOffset int64) (*Handle, error) {
	keys, err := s.keys.Keys()
	if err != nil {
		return nil, err
	}

	entry, err := s.index.Get(id)
	if err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}

	if startOffset < 0 || startOffset > entry.PlaintextSize {
		return nil, &models.InvalidOffsetError{Requested: startOffset, Size: entry.PlaintextSize}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := s.blobs.Open(entry.BlobName)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}

	dec, err := crypto.NewDecryptingReader(blob, keys)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}

	if startOffset > 0 {
		skipped, err := streams.SkipTo(dec, startOffset)
		if err != nil {
			_ = blob.Close()
			return nil, fmt.Errorf("skip to offset %d: %w", startOffset, err)
		}
		if skipped < startOffset {
			// The tag verified at a shorter length than the index
			// records, so the record itself is wrong.
			_ = blob.Close()
			return nil, fmt.Errorf("entry %s: plaintext ends at byte %d, index records %d: %w",
				id, skipped, entry.PlaintextSize, state.ErrIndexCorrupt)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"entry_id": id,
		"offset":   startOffset,
	}).Debug("Entry opened")

	stream := streams.WithActivity(streams.NewStream(dec, blob.Close), s.keys.Activity)

	copied := *entry
	return &Handle{
		Entry:  &copied,
		stream: stream,
		closer: s.closer,
	}, nil
}

// Export copies the entry's plaintext from startOffset into dst and
// returns the byte count. The stream handle is released through the
// closer pool.
func (s *Service) Export(ctx context.Context, id string, dst io.Writer, startOffset int64) (int64, error) {
	handle, err := s.Open(ctx, id, startOffset)
	if err != nil {
		return 0, err
	}
	defer handle.Release()

	n, err := io.Copy(dst, &ctxReader{ctx: ctx, r: handle})
	if err != nil {
		return n, fmt.Errorf("export entry %s: %w", id, err)
	}
	return n, nil
}

// Verify reads the entry to completion, discarding the plaintext.
// Tampering or truncation surfaces as an AuthenticationError; a size
// that disagrees with the index record is reported as corruption.
func (s *Service) Verify(ctx context.Context, id string) error {
	handle, err := s.Open(ctx, id, 0)
	if err != nil {
		return err
	}
	defer func() { _ = handle.Close() }()

	n, err := io.Copy(io.Discard, &ctxReader{ctx: ctx, r: handle})
	if err != nil {
		return fmt.Errorf("verify entry %s: %w", id, err)
	}

	if n != handle.Entry.PlaintextSize {
		return fmt.Errorf("entry %s: plaintext is %d bytes, index records %d: %w",
			id, n, handle.Entry.PlaintextSize, state.ErrIndexCorrupt)
	}

	return nil
}

// Delete removes the entry's ciphertext and then its index record.
// Ciphertext goes first: if blob removal fails the record is left
// untouched and the entry stays usable. A blob already missing counts
// as removed.
func (s *Service) Delete(ctx context.Context, id string) error {
	entry, err := s.index.Get(id)
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.blobs.Delete(entry.BlobName); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	if err := s.index.Delete(id); err != nil {
		return fmt.Errorf("delete entry record: %w", err)
	}

	s.logger.WithField("entry_id", id).Info("Entry deleted")
	return nil
}

// Get returns an entry's metadata.
func (s *Service) Get(id string) (*models.Entry, error) {
	return s.index.Get(id)
}

// List returns all entries ordered by creation time.
func (s *Service) List() ([]*models.Entry, error) {
	return s.index.List()
}

// Count returns the number of entries.
func (s *Service) Count() (int, error) {
	return s.index.Count()
}

// ctxReader stops a copy loop once ctx is cancelled. Cancellation
// mid-stream abandons the handle; there is no resuming a partially
// authenticated read.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
