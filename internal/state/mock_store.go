package state

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sr093906/photok/internal/models"
)

// MockStore is an in-memory index for tests. The Err fields inject
// failures so callers can exercise rollback paths.
type MockStore struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry

	SaveErr   error
	GetErr    error
	ListErr   error
	DeleteErr error
}

// NewMockStore creates an empty mock index.
func NewMockStore() *MockStore {
	return &MockStore{
		entries: make(map[string]*models.Entry),
	}
}

// Save records a new entry.
func (m *MockStore) Save(entry *models.Entry) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[entry.ID]; exists {
		return fmt.Errorf("entry %s: %w", entry.ID, ErrEntryExists)
	}

	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

// Get retrieves an entry by ID.
func (m *MockStore) Get(id string) (*models.Entry, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}

	copied := *entry
	return &copied, nil
}

// List returns all entries ordered by creation time.
func (m *MockStore) List() ([]*models.Entry, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*models.Entry, 0, len(m.entries))
	for _, entry := range m.entries {
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
func (m *MockStore) Delete(id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrEntryNotFound
	}

	delete(m.entries, id)
	return nil
}

// Count returns the number of entries.
func (m *MockStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries), nil
}

// Close releases resources.
func (m *MockStore) Close() error {
	return nil
}
