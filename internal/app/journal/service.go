package journal

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/healthai-agent/internal/app/modelchain"
	"github.com/PabloGalante/healthai-agent/internal/app/prompt"
	"github.com/PabloGalante/healthai-agent/internal/domain"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

const (
	DefaultEmotion    = "Reflexivo"
	DefaultReflection = "Sigue escribiendo para conocerte mejor."

	defaultListLimit = 20
)

// Service holds the logic of writing and reading journal entries
type Service struct {
	store domain.JournalStore
	chain *modelchain.Chain
	now   func() time.Time
}

// NewService creates a journal service from a JournalStore
func NewService(store domain.JournalStore, chain *modelchain.Chain) *Service {
	return &Service{
		store: store,
		chain: chain,
		now:   time.Now,
	}
}

// Create enriches the text with an emotion and a reflection, then stores it.
func (s *Service) Create(ctx context.Context, userID domain.UserID, text string) (*domain.JournalEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}

	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	raw := s.chain.GenerateOr(ctx, domain.GenerationRequest{
		Message: prompt.JournalAnalysis(text),
	}, modelchain.FallbackJournal)
	emotion, reflection := ParseAnalysis(raw)

	entry := &domain.JournalEntry{
		ID:         domain.JournalEntryID(uuid.NewString()),
		UserID:     userID,
		Text:       text,
		Emotion:    emotion,
		Reflection: reflection,
		CreatedAt:  s.now(),
	}

	if err := s.store.AppendJournalEntry(ctx, entry); err != nil {
		log.Error("failed to append journal entry", "error", err)
		return nil, err
	}

	log.Info("journal entry saved", "entry_id", entry.ID, "emotion", emotion)
	return entry, nil
}

// List returns the last `limit` journal entries for a user, newest first.
// If limit <= 0, a reasonable default value is used.
func (s *Service) List(ctx context.Context, userID domain.UserID, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListJournalEntries(ctx, userID, limit)
}

// ParseAnalysis extracts the "Emoción:" and "Reflexión:" lines of a model
// reply. Missing lines keep their defaults.
func ParseAnalysis(raw string) (emotion, reflection string) {
	emotion, reflection = DefaultEmotion, DefaultReflection

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "Emoción:"); ok {
			if v = strings.TrimSpace(v); v != "" {
				emotion = v
			}
		}
		if v, ok := strings.CutPrefix(line, "Reflexión:"); ok {
			if v = strings.TrimSpace(v); v != "" {
				reflection = v
			}
		}
	}
	return emotion, reflection
}
