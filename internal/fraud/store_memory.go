package fraud

import (
	"context"
	"sync"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps evaluations per user for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[id.UserID][]*Evaluation
	byID   map[id.EvaluationID]*Evaluation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byUser: make(map[id.UserID][]*Evaluation),
		byID:   make(map[id.EvaluationID]*Evaluation),
	}
}

func (s *InMemoryStore) Create(_ context.Context, evaluation *Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := copyEvaluation(evaluation)
	s.byUser[evaluation.UserID] = append(s.byUser[evaluation.UserID], copied)
	s.byID[evaluation.ID] = copied
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, evaluationID id.EvaluationID) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evaluation, ok := s.byID[evaluationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEvaluation(evaluation), nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, limit int) ([]*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byUser[userID]
	out := make([]*Evaluation, 0, limit)
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyEvaluation(history[i]))
	}
	return out, nil
}

func copyEvaluation(evaluation *Evaluation) *Evaluation {
	copied := *evaluation
	copied.RiskFactors = append([]Factor(nil), evaluation.RiskFactors...)
	return &copied
}
