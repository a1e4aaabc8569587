package memory

import (
	"context"
	"sync"
)

// InMemoryStore is a naive process-local Store.
//
// Concurrency: protected by RWMutex.
// Recall: returns the newest entries first. Suitable for tests and demos;
// use the sqlite subpackage when memories must survive a restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[string][]Entry // owner -> entries, oldest first
}

// NewInMemoryStore creates a new in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]Entry)}
}

// Store appends a memory for owner.
func (s *InMemoryStore) Store(_ context.Context, owner, content string, tick uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.entries[owner] = append(s.entries[owner], Entry{
		ID:      s.nextID,
		Owner:   owner,
		Content: content,
		Tick:    tick,
	})
	return nil
}

// Recall returns up to limit of owner's most recent memories, newest first.
func (s *InMemoryStore) Recall(_ context.Context, owner string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.entries[owner]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]Entry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
