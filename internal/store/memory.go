package store

import (
	"context"
	"sync"

	"leadbot-backend/internal/dialog"
)

// MemoryStore keeps sessions in a process-local map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*dialog.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*dialog.Session)}
}

// GetOrCreate returns a copy of the stored session, creating a chat-mode
// session for unseen ids.
func (m *MemoryStore) GetOrCreate(_ context.Context, sessionID string, industry dialog.Industry) (*dialog.Session, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return s.Clone(), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		return s.Clone(), nil
	}
	s = dialog.NewSession(sessionID, industry)
	m.sessions[sessionID] = s
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *dialog.Session) error {
	if s == nil || s.ID == "" {
		return ErrEmptySessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Len reports how many sessions are live.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Peek returns a copy of a session without creating it.
func (m *MemoryStore) Peek(sessionID string) (*dialog.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}
