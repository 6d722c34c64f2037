package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.UserID][]*domain.ChatMessage
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.UserID][]*domain.ChatMessage),
	}
}

func (s *MessageStore) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.messages[msg.UserID], msg)
	// Stable: equal timestamps keep insertion order.
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	s.messages[msg.UserID] = msgs
	return nil
}

func (s *MessageStore) ListMessages(_ context.Context, userID domain.UserID, limit int) ([]*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[userID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	out := make([]*domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MessageStore) ClearMessages(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, userID)
	return nil
}
