package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/yourname/dailywords/internal"
)

// MemoryStore is the in-memory StateRepository used by tests. It round-trips
// the document through JSON on every call so tests exercise the same
// serialization the real backends do.
type MemoryStore struct {
	mu        sync.Mutex
	doc       []byte
	user1Name string
	user2Name string

	// FailSaves makes every Save return ErrStorage.
	FailSaves bool
	SaveCount int
}

func NewMemoryStore(user1Name, user2Name string) *MemoryStore {
	return &MemoryStore{user1Name: user1Name, user2Name: user2Name}
}

func (m *MemoryStore) Load(_ context.Context) (*internal.AppState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return internal.DefaultState(m.user1Name, m.user2Name, time.Now()), nil
	}
	state := &internal.AppState{}
	if err := json.Unmarshal(m.doc, state); err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrStorage, err)
	}
	state.Normalize(m.user1Name, m.user2Name, time.Now())
	return state, nil
}

func (m *MemoryStore) Save(_ context.Context, state *internal.AppState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves {
		return fmt.Errorf("%w: save disabled", internal.ErrStorage)
	}
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: %v", internal.ErrStorage, err)
	}
	m.doc = doc
	m.SaveCount++
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ StateRepository = (*MemoryStore)(nil)
