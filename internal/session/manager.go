package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/models"
	"github.com/envlab/monitor-trainer/backend/internal/storage"
	"github.com/google/uuid"
)

// MaxSessions limits concurrent in-memory sessions to prevent memory
// exhaustion; persisted state remains loadable after eviction.
const MaxSessions = 100

// Manager registers active processing sessions by id. Each session owns its
// state exclusively; the manager only routes to it, restores persisted state
// and sweeps idle sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rules    *models.RuleSet
	store    storage.StateStore
	hub      *EventHub
}

// NewManager creates a session manager. store may be nil to disable
// persistence.
func NewManager(rules *models.RuleSet, store storage.StateStore) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		rules:    rules,
		store:    store,
		hub:      NewEventHub(),
	}
}

// Hub exposes the event hub for subscribers (the websocket layer).
func (m *Manager) Hub() *EventHub {
	return m.hub
}

// Create returns the session for the given id, restoring persisted state if
// any exists, or a brand-new session. An empty id gets a generated one.
func (m *Manager) Create(id string) (*Session, error) {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		sess.lastAccessed = time.Now()
		return sess, nil
	}

	m.evictIdleLocked()

	sess := NewSession(id, m.rules, m.store, m.hub)
	if m.store != nil {
		doc, err := m.store.Load(id)
		if err != nil {
			// Treated as absent state: a storage failure must not block
			// starting a fresh session.
			fmt.Printf("[Manager] Failed to load state for session %s: %v\n", shortID(id), err)
		} else if doc != nil {
			sess.restore(doc)
			fmt.Printf("[Manager] Restored session %s (%d records)\n", shortID(id), len(doc.State.MonitoringData))
		}
	}

	m.sessions[id] = sess
	return sess, nil
}

// Get returns an active session and refreshes its keep-alive timestamp.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if ok {
		sess.lastAccessed = time.Now()
	}
	return sess, ok
}

// Delete discards a session and its persisted state. An id that is neither
// active nor persisted is an error regardless of the store configuration.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.store == nil {
		if !ok {
			return fmt.Errorf("session not found: %s", id)
		}
		return nil
	}

	if !ok {
		doc, err := m.store.Load(id)
		if err != nil {
			return fmt.Errorf("checking persisted state: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("session not found: %s", id)
		}
	}
	if err := m.store.Delete(id); err != nil {
		return fmt.Errorf("deleting persisted state: %w", err)
	}
	return nil
}

// CleanupIdleSessions evicts sessions not accessed within maxAge. Their
// persisted state stays in the store and can be restored via Create.
func (m *Manager) CleanupIdleSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, sess := range m.sessions {
		if sess.lastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			fmt.Printf("[Manager] Evicted idle session %s (last accessed %s ago)\n",
				shortID(id), time.Since(sess.lastAccessed).Round(time.Second))
		}
	}
}

// evictIdleLocked makes room when at capacity by dropping the least recently
// accessed session. Callers must hold m.mu.
func (m *Manager) evictIdleLocked() {
	if len(m.sessions) < MaxSessions {
		return
	}

	var oldestID string
	var oldest time.Time
	for id, sess := range m.sessions {
		if oldestID == "" || sess.lastAccessed.Before(oldest) {
			oldestID = id
			oldest = sess.lastAccessed
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		fmt.Printf("[Manager] Evicted session %s to stay under the session limit\n", shortID(oldestID))
	}
}
