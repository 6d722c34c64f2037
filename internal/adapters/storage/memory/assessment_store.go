package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

type AssessmentStore struct {
	mu     sync.RWMutex
	byUser map[domain.UserID][]*domain.AssessmentRecord
}

func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{
		byUser: make(map[domain.UserID][]*domain.AssessmentRecord),
	}
}

func (s *AssessmentStore) AppendAssessment(_ context.Context, rec *domain.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec)
	return nil
}

func (s *AssessmentStore) ListAssessments(_ context.Context, userID domain.UserID) ([]*domain.AssessmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.byUser[userID]
	out := make([]*domain.AssessmentRecord, len(recs))
	copy(out, recs)
	return out, nil
}
