package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shipmentbot/server/internal/extract/model"
)

// Store persists serialized conversation state between invocations of the
// same thread.
type Store interface {
	Get(ctx context.Context, threadID string) ([]byte, bool, error)
	Set(ctx context.Context, threadID string, data []byte) error
}

// MemoryStore keeps checkpoints in process memory. Contents are lost on
// restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, threadID string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.items[threadID]
	return data, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, threadID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[threadID] = data
	return nil
}

func restore(ctx context.Context, store Store, threadID string) (model.ConversationState, bool, error) {
	data, ok, err := store.Get(ctx, threadID)
	if err != nil {
		return model.ConversationState{}, false, fmt.Errorf("load checkpoint %s: %w", threadID, err)
	}
	if !ok {
		return model.ConversationState{}, false, nil
	}
	var state model.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.ConversationState{}, false, fmt.Errorf("decode checkpoint %s: %w", threadID, err)
	}
	return state, true, nil
}

func persist(ctx context.Context, store Store, threadID string, state model.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode checkpoint %s: %w", threadID, err)
	}
	if err := store.Set(ctx, threadID, data); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", threadID, err)
	}
	return nil
}
