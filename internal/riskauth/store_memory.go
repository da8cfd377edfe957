package riskauth

import (
	"context"
	"sync"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// InMemoryStore keeps assessments per user for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[id.UserID][]*Assessment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[id.UserID][]*Assessment)}
}

func (s *InMemoryStore) Create(_ context.Context, assessment *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := copyAssessment(assessment)
	s.byUser[assessment.UserID] = append(s.byUser[assessment.UserID], copied)
	return nil
}

func (s *InMemoryStore) LatestForSession(_ context.Context, userID id.UserID, sessionID id.SessionID) (*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byUser[userID]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].SessionID == sessionID {
			return copyAssessment(history[i]), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) MarkChallengeCompleted(_ context.Context, assessmentID id.AssessmentID) (*Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, history := range s.byUser {
		for _, assessment := range history {
			if assessment.ID != assessmentID {
				continue
			}
			if assessment.ChallengeCompleted {
				return nil, sentinel.ErrConflict
			}
			assessment.ChallengeCompleted = true
			return copyAssessment(assessment), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, limit int) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byUser[userID]
	out := make([]*Assessment, 0, limit)
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyAssessment(history[i]))
	}
	return out, nil
}

func copyAssessment(assessment *Assessment) *Assessment {
	copied := *assessment
	copied.RiskFactors = append([]Factor(nil), assessment.RiskFactors...)
	return &copied
}
