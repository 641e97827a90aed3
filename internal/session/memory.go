package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telegram-wager-bot/internal/model"
)

// MemoryStore keeps sessions in process memory. Sessions older than ttl are
// treated as absent and dropped on access.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[model.AccountKey]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an empty store. A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[model.AccountKey]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key model.AccountKey) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(key)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s.State == StateIdle {
		return fmt.Errorf("%w: idle sessions are not stored", ErrInvalidTransition)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = m.now()
	m.sessions[s.Key()] = *s
	return nil
}

// Take implements Store.
func (m *MemoryStore) Take(_ context.Context, key model.AccountKey) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.live(key)
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, key)
	return &s, nil
}

// All implements Store.
func (m *MemoryStore) All(_ context.Context) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*Session, 0, len(m.sessions))
	for key := range m.sessions {
		if s, ok := m.live(key); ok {
			result = append(result, &s)
		}
	}
	return result, nil
}

// live must be called with m.mu held; it evicts a stale session.
func (m *MemoryStore) live(key model.AccountKey) (Session, bool) {
	s, ok := m.sessions[key]
	if !ok {
		return Session{}, false
	}
	if s.Stale(m.now(), m.ttl) {
		delete(m.sessions, key)
		return Session{}, false
	}
	return s, true
}

// Sweep drops every stale session and returns how many were removed.
func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.sessions)
	for key := range m.sessions {
		m.live(key)
	}
	return before - len(m.sessions), nil
}
