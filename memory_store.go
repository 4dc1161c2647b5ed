package auth

import (
	"sync"

	"github.com/google/uuid"
)

// MemorySessionStore is a map backed SessionStore for a single client.
// It suits tests and single process callers.
type MemorySessionStore struct {
	mu        sync.RWMutex
	id        string
	values    map[string]any
	destroyed bool
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		id:     uuid.NewString(),
		values: map[string]any{},
	}
}

func (s *MemorySessionStore) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *MemorySessionStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemorySessionStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.destroyed = false
	return nil
}

func (s *MemorySessionStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Destroy drops every key and issues a fresh identifier
func (s *MemorySessionStore) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]any{}
	s.id = uuid.NewString()
	s.destroyed = true
	return nil
}

// Regenerate issues a fresh identifier and keeps the data
func (s *MemorySessionStore) Regenerate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.NewString()
	return nil
}

// Destroyed reports whether Destroy ran since the last Set
func (s *MemorySessionStore) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

// Len is the number of stored keys
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
