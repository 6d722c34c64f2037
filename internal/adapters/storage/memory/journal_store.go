package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

// JournalStore is a simple in-memory implementation of domain.JournalStore.
// It is NOT persistent and is only suitable for development / local mode.
type JournalStore struct {
	mu     sync.RWMutex
	byUser map[domain.UserID][]*domain.JournalEntry
}

// NewJournalStore creates a new in-memory JournalStore.
func NewJournalStore() *JournalStore {
	return &JournalStore{
		byUser: make(map[domain.UserID][]*domain.JournalEntry),
	}
}

// AppendJournalEntry saves a new journal entry.
func (s *JournalStore) AppendJournalEntry(_ context.Context, entry *domain.JournalEntry) error {
	if entry == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[entry.UserID] = append(s.byUser[entry.UserID], entry)
	return nil
}

// ListJournalEntries returns the last `limit` entries for a user, newest first.
// If limit <= 0, returns all.
func (s *JournalStore) ListJournalEntries(_ context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.byUser[userID]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	out := make([]*domain.JournalEntry, 0, limit)
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}
