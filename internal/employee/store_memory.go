package employee

import (
	"context"
	"sync"
	"time"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps the action log and anomalies for tests and local runs.
type InMemoryStore struct {
	mu           sync.RWMutex
	actions      map[id.EmployeeID][]ActionRecord
	baselines    map[id.EmployeeID]*Baseline
	anomalies    map[id.AnomalyID]*Anomaly
	byEmployee   map[id.EmployeeID][]id.AnomalyID
	dualApproval map[id.EmployeeID]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		actions:      make(map[id.EmployeeID][]ActionRecord),
		baselines:    make(map[id.EmployeeID]*Baseline),
		anomalies:    make(map[id.AnomalyID]*Anomaly),
		byEmployee:   make(map[id.EmployeeID][]id.AnomalyID),
		dualApproval: make(map[id.EmployeeID]string),
	}
}

func (s *InMemoryStore) RecordAction(_ context.Context, action ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions[action.EmployeeID] = append(s.actions[action.EmployeeID], action)
	return nil
}

func (s *InMemoryStore) ListActions(_ context.Context, employeeID id.EmployeeID, since time.Time) ([]ActionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ActionRecord
	for _, action := range s.actions[employeeID] {
		if action.At.After(since) {
			out = append(out, action)
		}
	}
	return out, nil
}

func (s *InMemoryStore) GetBaseline(_ context.Context, employeeID id.EmployeeID) (*Baseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	baseline, ok := s.baselines[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyBaseline(baseline), nil
}

func (s *InMemoryStore) ReplaceBaseline(_ context.Context, baseline *Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.baselines[baseline.EmployeeID] = copyBaseline(baseline)
	return nil
}

func (s *InMemoryStore) CreateAnomaly(_ context.Context, anomaly *Anomaly) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.anomalies[anomaly.ID] = copyAnomaly(anomaly)
	s.byEmployee[anomaly.EmployeeID] = append(s.byEmployee[anomaly.EmployeeID], anomaly.ID)
	return nil
}

func (s *InMemoryStore) GetAnomaly(_ context.Context, anomalyID id.AnomalyID) (*Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anomaly, ok := s.anomalies[anomalyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyAnomaly(anomaly), nil
}

func (s *InMemoryStore) TransitionAnomaly(_ context.Context, anomalyID id.AnomalyID, from, to Status, note string) (*Anomaly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	anomaly, ok := s.anomalies[anomalyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if anomaly.Status != from {
		return nil, sentinel.ErrConflict
	}
	anomaly.Status = to
	if note != "" {
		anomaly.ActionsTaken = append(anomaly.ActionsTaken, note)
	}
	return copyAnomaly(anomaly), nil
}

func (s *InMemoryStore) ListAnomalies(_ context.Context, employeeID id.EmployeeID, limit int) ([]*Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byEmployee[employeeID]
	out := make([]*Anomaly, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyAnomaly(s.anomalies[ids[i]]))
	}
	return out, nil
}

func (s *InMemoryStore) RequireDualApproval(_ context.Context, employeeID id.EmployeeID, reason string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dualApproval[employeeID] = reason
	return nil
}

func (s *InMemoryStore) DualApprovalRequired(_ context.Context, employeeID id.EmployeeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.dualApproval[employeeID]
	return ok, nil
}

func copyBaseline(baseline *Baseline) *Baseline {
	copied := *baseline
	copied.WorkDays = append([]time.Weekday(nil), baseline.WorkDays...)
	copied.AssignedClientIDs = append([]string(nil), baseline.AssignedClientIDs...)
	copied.KnownIPs = append([]string(nil), baseline.KnownIPs...)
	return &copied
}

func copyAnomaly(anomaly *Anomaly) *Anomaly {
	copied := *anomaly
	copied.ActionsTaken = append([]string(nil), anomaly.ActionsTaken...)
	return &copied
}
