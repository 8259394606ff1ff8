package entries

import (
	"github.com/sr093906/photok/internal/models"
	"github.com/sr093906/photok/internal/streams"
)

// Handle is an open decrypting stream over one vault entry. It is
// forward-only and exclusively owned by the consumer that opened it;
// a single goroutine reads at a time. Close releases the underlying
// blob handle synchronously, Release defers it to the closer pool.
type Handle struct {
	// Entry is a copy of the entry metadata at open time.
	Entry *models.Entry

	stream streams.Stream
	closer *streams.CloserPool
}

// Read yields decrypted plaintext. After the final byte the stream's
// authentication tag is checked; a mismatch surfaces as an
// AuthenticationError in place of io.EOF.
func (h *Handle) Read(p []byte) (int, error) {
	return h.stream.Read(p)
}

// Close releases the underlying resources on the calling goroutine.
// It is idempotent.
func (h *Handle) Close() error {
	return h.stream.Close()
}

// Release schedules the close on the background pool and returns
// immediately. Consumers on latency-sensitive paths use this instead
// of Close; failures are logged by the pool, never reported back.
func (h *Handle) Release() {
	if h.closer == nil {
		_ = h.stream.Close()
		return
	}
	h.closer.Schedule("entry "+h.Entry.ID, h.stream)
}
