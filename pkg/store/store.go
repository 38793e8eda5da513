// Package store persists final-page screenshots keyed by the identifier
// the engine generates per run. Writes are append-only; entries are never
// mutated, so no cross-run coordination is needed.
package store

import (
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("screenshot not found")
	ErrEmptyID  = errors.New("empty screenshot id")
)

// Store is the screenshot storage surface.
type Store interface {
	// Put saves the PNG bytes under id. Ids are fresh per run; Put never
	// overwrites an existing entry.
	Put(id string, data []byte) error
	// Get returns the stored bytes or ErrNotFound.
	Get(id string) ([]byte, error)
}

// MemoryStore keeps screenshots in process memory. Used in tests and in
// one-shot CLI runs where nothing outlives the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Put(id string, data []byte) error {
	if id == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; exists {
		return errors.New("screenshot id already used")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.items[id] = cp
	return nil
}

func (s *MemoryStore) Get(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
