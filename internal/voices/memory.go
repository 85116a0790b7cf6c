package voices

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It backs single-node deployments
// that run without Redis, and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// Load returns a copy of the caller's document.
func (s *MemoryStore) Load(_ context.Context, caller string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[caller]
	if !ok {
		return &Document{}, nil
	}

	out := Document{Voices: make([]Custom, len(doc.Voices))}
	copy(out.Voices, doc.Voices)
	return &out, nil
}

// Save replaces the caller's document with a copy of doc.
func (s *MemoryStore) Save(_ context.Context, caller string, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := Document{Voices: make([]Custom, len(doc.Voices))}
	copy(saved.Voices, doc.Voices)
	s.docs[caller] = saved
	return nil
}
