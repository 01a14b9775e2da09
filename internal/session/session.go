// Package session stores per-session message history so the extraction
// pipeline can hand the graph a complete, ordered transcript on every turn.
package session

import (
	"context"
	"sync"
)

// Repository persists the ordered user messages of a session.
type Repository interface {
	Append(ctx context.Context, sessionID, message string) error
	History(ctx context.Context, sessionID string) ([]string, error)
	Clear(ctx context.Context, sessionID string) error
	Count(ctx context.Context, sessionID string) (int, error)
}

// MemoryRepository keeps histories in process memory, used when no redis
// endpoint is configured and in tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string][]string)}
}

func (m *MemoryRepository) Append(_ context.Context, sessionID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], message)
	return nil
}

func (m *MemoryRepository) History(_ context.Context, sessionID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.sessions[sessionID]
	out := make([]string, len(history))
	copy(out, history)
	return out, nil
}

func (m *MemoryRepository) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryRepository) Count(_ context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID]), nil
}

var _ Repository = (*MemoryRepository)(nil)
