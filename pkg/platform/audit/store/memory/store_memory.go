// Package memory provides an in-memory append-only audit store for tests
// and single-node deployments.
package memory

import (
	"context"
	"sync"

	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/audit"
)

type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) ListByActor(ctx context.Context, actor string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Actor == actor {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every captured event. Test helper.
func (s *Store) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Find returns events matching an action. Test helper.
func (s *Store) Find(action string) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
