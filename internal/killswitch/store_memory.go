package killswitch

import (
	"context"
	"sync"

	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps the state document for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	state *State
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Get(_ context.Context) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.state.Clone(), nil
}

func (s *InMemoryStore) CompareAndSwap(_ context.Context, expected int64, next *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(0)
	if s.state != nil {
		current = s.state.Version
	}
	if current != expected {
		return sentinel.ErrConflict
	}
	s.state = next.Clone()
	return nil
}
