package alerting

import (
	"context"
	"sort"
	"sync"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps alerts in a mutex-guarded map. Used by tests and
// single-node deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	alerts map[id.AlertID]*Alert
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{alerts: make(map[id.AlertID]*Alert)}
}

func (s *InMemoryStore) Create(ctx context.Context, alert *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alerts[alert.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *alert
	s.alerts[alert.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, alertID id.AlertID) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[alertID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *InMemoryStore) Update(ctx context.Context, alert *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[alert.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *alert
	s.alerts[alert.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindRecentDuplicate(ctx context.Context, dedupKey string, after time.Time) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *Alert
	for _, a := range s.alerts {
		if a.DedupKey() != dedupKey || a.CreatedAt.Before(after) {
			continue
		}
		if newest == nil || a.CreatedAt.After(newest.CreatedAt) {
			newest = a
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (s *InMemoryStore) ListEscalationDue(ctx context.Context, now time.Time, interval time.Duration) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []*Alert
	for _, a := range s.alerts {
		if a.Status == StatusRead || a.Status == StatusActioned {
			continue
		}
		if a.EscalationLevel >= MaxEscalationLevel {
			continue
		}
		// Only originals escalate; linked alerts are leaves of the chain.
		if a.EscalatedFrom != nil {
			continue
		}
		ref := a.CreatedAt
		if a.LastEscalatedAt != nil {
			ref = *a.LastEscalatedAt
		}
		if now.Sub(ref) >= interval {
			cp := *a
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	return due, nil
}

func (s *InMemoryStore) ListByTarget(ctx context.Context, target Target, unreadOnly bool) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Alert
	for _, a := range s.alerts {
		if a.Target != target {
			continue
		}
		if unreadOnly && (a.Status == StatusRead || a.Status == StatusActioned) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
