// Package storage persists session state documents in a key-value fashion.
package storage

import (
	"sync"

	"github.com/envlab/monitor-trainer/backend/internal/models"
)

// StateStore persists one JSON state document per session id.
// Load returns (nil, nil) when no state is saved for the id; a malformed
// stored document is treated the same way, never as an error.
type StateStore interface {
	Save(sessionID string, doc *models.PersistedState) error
	Load(sessionID string) (*models.PersistedState, error)
	Delete(sessionID string) error
	Close() error
}

// MemoryStore is an in-process StateStore used in tests and when durable
// persistence is disabled in the config.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*models.PersistedState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*models.PersistedState)}
}

// Save stores the document for the session id.
func (s *MemoryStore) Save(sessionID string, doc *models.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[sessionID] = doc
	return nil
}

// Load returns the saved document, or nil when none exists.
func (s *MemoryStore) Load(sessionID string) (*models.PersistedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[sessionID], nil
}

// Delete removes the saved document, if any.
func (s *MemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, sessionID)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
