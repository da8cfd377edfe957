package behavior

import (
	"context"
	"sync"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded map store for tests and local runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]*Profile)}
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (s *InMemoryStore) Replace(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}
