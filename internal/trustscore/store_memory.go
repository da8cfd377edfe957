package trustscore

import (
	"context"
	"sync"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps snapshot history per user for tests and local runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[id.UserID][]*Snapshot
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[id.UserID][]*Snapshot)}
}

func (s *InMemoryStore) Save(_ context.Context, snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snapshot
	s.snapshots[snapshot.UserID] = append(s.snapshots[snapshot.UserID], &copied)
	return nil
}

func (s *InMemoryStore) Latest(_ context.Context, userID id.UserID) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.snapshots[userID]
	if len(history) == 0 {
		return nil, sentinel.ErrNotFound
	}
	copied := *history[len(history)-1]
	return &copied, nil
}

// History returns all snapshots oldest-first. Test helper.
func (s *InMemoryStore) History(userID id.UserID) []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Snapshot, 0, len(s.snapshots[userID]))
	for _, snapshot := range s.snapshots[userID] {
		copied := *snapshot
		out = append(out, &copied)
	}
	return out
}
