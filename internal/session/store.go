package session

import (
	"sync"
	"time"

	"github.com/dkovalov/confidant/internal/models"
)

// Store keeps live sessions keyed by their opaque token. Implementations
// must be safe for concurrent use.
type Store interface {
	Get(token string) (*models.Session, bool)
	Put(token string, s *models.Session)
	Delete(token string)
	// Sweep removes every session expired at the given moment and returns
	// how many were removed.
	Sweep(now time.Time) int
}

// MemoryStore is the in-process Store used by a single manager instance.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*models.Session{}}
}

func (m *MemoryStore) Get(token string) (*models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

func (m *MemoryStore) Put(token string, s *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[token] = &cp
}

func (m *MemoryStore) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for token, s := range m.sessions {
		if s.ExpiredAt(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of live sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
