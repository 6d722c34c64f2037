package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// KnowledgeStore serves a fixed set of documents, typically seeded from a file.
type KnowledgeStore struct {
	mu   sync.RWMutex
	docs []domain.KnowledgeDocument
}

func NewKnowledgeStore(docs ...domain.KnowledgeDocument) *KnowledgeStore {
	return &KnowledgeStore{docs: docs}
}

func (s *KnowledgeStore) Add(docs ...domain.KnowledgeDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
}

func (s *KnowledgeStore) ListKnowledge(_ context.Context) ([]domain.KnowledgeDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.KnowledgeDocument, len(s.docs))
	copy(out, s.docs)
	return out, nil
}
