package device

import (
	"context"
	"sort"
	"sync"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded map store for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func deviceKey(userID id.UserID, fingerprint string) string {
	return userID.String() + "|" + fingerprint
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID, fingerprint string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[deviceKey(userID, fingerprint)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := deviceKey(record.UserID, record.Fingerprint)
	if _, exists := s.records[key]; exists {
		return sentinel.ErrConflict
	}
	copied := *record
	s.records[key] = &copied
	return nil
}

func (s *InMemoryStore) Touch(_ context.Context, userID id.UserID, fingerprint, ip string, at time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[deviceKey(userID, fingerprint)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record.LoginCount++
	record.LastSeenAt = at
	if ip != "" {
		record.LastSeenIP = ip
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) RecordOperation(_ context.Context, userID id.UserID, fingerprint string, success bool) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[deviceKey(userID, fingerprint)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if success {
		record.SuccessfulOps++
	} else {
		record.FailedOps++
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) SetTrustLevel(_ context.Context, userID id.UserID, fingerprint string, level TrustLevel) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[deviceKey(userID, fingerprint)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record.TrustLevel = level
	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) SetBlocked(_ context.Context, userID id.UserID, fingerprint string, blocked bool) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[deviceKey(userID, fingerprint)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record.IsBlocked = blocked
	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, record := range s.records {
		if record.UserID == userID {
			copied := *record
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeenAt.After(out[j].LastSeenAt)
	})
	return out, nil
}
