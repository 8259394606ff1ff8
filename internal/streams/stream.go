package streams

import (
	"io"
	"sync"

	"github.com/sr093906/photok/internal/models"
)

// Stream is the read capability handed to consumers. It exposes
// nothing about the underlying file or cipher state.
type Stream interface {
	io.Reader
	io.Closer
}

// handle binds a reader to the cleanup of the resources behind it.
type handle struct {
	r       io.Reader
	closeFn func() error

	mu     sync.Mutex
	closed bool
}

// NewStream builds a Stream from a reader and a close function. Close
// is idempotent; reads after Close fail with ErrHandleClosed.
func NewStream(r io.Reader, closeFn func() error) Stream {
	return &handle{r: r, closeFn: closeFn}
}

func (h *handle) Read(p []byte) (int, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, models.ErrHandleClosed
	}
	h.mu.Unlock()

	return h.r.Read(p)
}

func (h *handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	if h.closeFn == nil {
		return nil
	}
	return h.closeFn()
}

// activityStream reports reads to an injected callback. The session
// uses this to keep the idle lock timer honest while a consumer is
// draining a large entry.
type activityStream struct {
	inner      Stream
	onActivity func()
}

// WithActivity decorates a stream so every read that yields data
// fires onActivity. A nil callback returns the stream unchanged.
func WithActivity(s Stream, onActivity func()) Stream {
	if onActivity == nil {
		return s
	}
	return &activityStream{inner: s, onActivity: onActivity}
}

func (s *activityStream) Read(p []byte) (int, error) {
	n, err := s.inner.Read(p)
	if n > 0 {
		s.onActivity()
	}
	return n, err
}

func (s *activityStream) Close() error {
	return s.inner.Close()
}

// ActivityWriter reports successful writes to an injected callback.
type ActivityWriter struct {
	W          io.Writer
	OnActivity func()
}

func (w *ActivityWriter) Write(p []byte) (int, error) {
	n, err := w.W.Write(p)
	if err == nil && w.OnActivity != nil {
		w.OnActivity()
	}
	return n, err
}
