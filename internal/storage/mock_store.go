package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// MockStore is an in-memory blob store for tests. The Fail fields
// inject failures at specific points so callers can exercise their
// rollback paths.
type MockStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	FailOpenWrite bool
	FailCommit    bool
	FailOpen      bool
	FailDelete    bool
}

// NewMockStore creates an empty mock blob store.
func NewMockStore() *MockStore {
	return &MockStore{
		blobs: make(map[string][]byte),
	}
}

// OpenWrite stages a new blob in memory.
func (m *MockStore) OpenWrite(name string) (BlobWriter, error) {
	if m.FailOpenWrite {
		return nil, errors.New("mock: open write failed")
	}

	m.mu.RLock()
	_, exists := m.blobs[name]
	m.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("stage blob %s: %w", name, ErrBlobExists)
	}

	return &mockWriter{store: m, name: name}, nil
}

// Open returns a reader over a stored blob.
func (m *MockStore) Open(name string) (io.ReadCloser, error) {
	if m.FailOpen {
		return nil, errors.New("mock: open failed")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, fmt.Errorf("open blob %s: %w", name, ErrBlobNotFound)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return io.NopCloser(bytes.NewReader(buf)), nil
}

// Delete removes a blob.
func (m *MockStore) Delete(name string) error {
	if m.FailDelete {
		return errors.New("mock: delete failed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// Exists checks if a blob is present.
func (m *MockStore) Exists(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.blobs[name]
	return exists, nil
}

// Stat returns blob metadata.
func (m *MockStore) Stat(name string) (BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return BlobInfo{}, fmt.Errorf("stat blob %s: %w", name, ErrBlobNotFound)
	}

	return BlobInfo{
		Name:    name,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}, nil
}

// List enumerates stored blobs.
func (m *MockStore) List() ([]BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var blobs []BlobInfo
	for name, data := range m.blobs {
		blobs = append(blobs, BlobInfo{
			Name:    name,
			Size:    int64(len(data)),
			ModTime: time.Now(),
		})
	}
	return blobs, nil
}

// Put seeds a blob directly (helper for tests).
func (m *MockStore) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.blobs[name] = buf
}

// Get returns a stored blob's bytes (helper for tests).
func (m *MockStore) Get(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, false
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, true
}

// Count returns the number of stored blobs (helper for tests).
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blobs)
}

type mockWriter struct {
	store *MockStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (w *mockWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrWriterDone
	}
	return w.buf.Write(p)
}

func (w *mockWriter) Commit() error {
	if w.done {
		return ErrWriterDone
	}
	w.done = true

	if w.store.FailCommit {
		return errors.New("mock: commit failed")
	}

	w.store.Put(w.name, w.buf.Bytes())
	return nil
}

func (w *mockWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.buf.Reset()
	return nil
}
