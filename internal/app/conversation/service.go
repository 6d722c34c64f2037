package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/PabloGalante/healthai-agent/internal/app/knowledge"
	"github.com/PabloGalante/healthai-agent/internal/app/modelchain"
	"github.com/PabloGalante/healthai-agent/internal/app/prompt"
	"github.com/PabloGalante/healthai-agent/internal/domain"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

// Greeting is written once into an empty history.
const Greeting = "Hola, soy Health-AI. Estoy aquí para escucharte. ¿Cómo te sientes hoy?"

// DefaultHistoryLimit is how many previous messages are sent to the backend.
const DefaultHistoryLimit = 20

// State describes a user's conversation as last observed.
type State string

const (
	StateEmpty                State = "EMPTY"
	StateAwaitingFirstMessage State = "AWAITING_FIRST_MESSAGE"
	StateReady                State = "READY"
)

// Service owns a user's chat history: the greeting, message exchange and
// clearing. Mutations for one user never overlap.
type Service struct {
	chain     *modelchain.Chain
	filter    *knowledge.Filter
	messages  domain.ChatStore
	knowledge domain.KnowledgeStore
	profiles  domain.ProfileStore
	now       func() time.Time

	historyLimit int

	mu     sync.Mutex
	flight map[domain.UserID]*userGate
}

// userGate is the single-flight semaphore of one user. refs counts callers
// holding or waiting on it; the entry is dropped when it reaches zero.
type userGate struct {
	sem  *semaphore.Weighted
	refs int
}

// Config tunes a Service. Zero values pick the defaults.
type Config struct {
	HistoryLimit int
}

// NewService wires a conversation service over its stores and model chain.
func NewService(
	chain *modelchain.Chain,
	filter *knowledge.Filter,
	messages domain.ChatStore,
	knowledgeStore domain.KnowledgeStore,
	profiles domain.ProfileStore,
	cfg Config,
) *Service {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Service{
		chain:        chain,
		filter:       filter,
		messages:     messages,
		knowledge:    knowledgeStore,
		profiles:     profiles,
		now:          time.Now,
		historyLimit: cfg.HistoryLimit,
		flight:       make(map[domain.UserID]*userGate),
	}
}

// gate pins the per-user single-flight semaphore. Call unpin once done with
// it, after releasing any slot acquired.
func (s *Service) gate(userID domain.UserID) (sem *semaphore.Weighted, unpin func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.flight[userID]
	if !ok {
		g = &userGate{sem: semaphore.NewWeighted(1)}
		s.flight[userID] = g
	}
	g.refs++

	return g.sem, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		g.refs--
		if g.refs == 0 {
			delete(s.flight, userID)
		}
	}
}

// EnsureGreeting appends the scripted greeting when the history is empty.
// It reports whether a greeting was written.
func (s *Service) EnsureGreeting(ctx context.Context, userID domain.UserID) (bool, error) {
	g, unpin := s.gate(userID)
	defer unpin()
	if err := g.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer g.Release(1)

	msg, err := s.greetIfEmpty(ctx, userID)
	return msg != nil, err
}

// greetIfEmpty must run while holding the user's gate.
func (s *Service) greetIfEmpty(ctx context.Context, userID domain.UserID) (*domain.ChatMessage, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	existing, err := s.messages.ListMessages(ctx, userID, 1)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	greeting := s.newMessage(userID, domain.RoleAssistant, Greeting, s.now())
	if err := s.messages.AppendMessage(ctx, greeting); err != nil {
		log.Error("failed to append greeting", "error", err)
		return nil, err
	}

	log.Info("greeting written")
	return greeting, nil
}

// History returns the full conversation, oldest first, greeting included.
func (s *Service) History(ctx context.Context, userID domain.UserID) ([]*domain.ChatMessage, error) {
	if _, err := s.EnsureGreeting(ctx, userID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListMessages(ctx, userID, 0)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list messages", "user_id", userID, "error", err)
		return nil, err
	}
	return msgs, nil
}

// State reports where the conversation stands without modifying it.
func (s *Service) State(ctx context.Context, userID domain.UserID) (State, error) {
	msgs, err := s.messages.ListMessages(ctx, userID, 0)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return StateEmpty, nil
	}
	for _, m := range msgs {
		if m.Role == domain.RoleUser {
			return StateReady, nil
		}
	}
	return StateAwaitingFirstMessage, nil
}

type SendMessageOutput struct {
	UserMessage      *domain.ChatMessage
	AssistantMessage *domain.ChatMessage
}

// Send records the user's message, generates a reply and records it.
// Only one Send per user may be in flight; others get ErrSendInFlight.
func (s *Service) Send(ctx context.Context, userID domain.UserID, text string) (*SendMessageOutput, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}

	g, unpin := s.gate(userID)
	defer unpin()
	if !g.TryAcquire(1) {
		return nil, domain.ErrSendInFlight
	}
	defer g.Release(1)

	log := observability.LoggerFromContext(ctx).With("user_id", userID)
	log.Info("sending message", "text_len", len(text))

	greeting, err := s.greetIfEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}

	var history []*domain.ChatMessage
	if greeting != nil {
		history = []*domain.ChatMessage{greeting}
	} else {
		history, err = s.messages.ListMessages(ctx, userID, s.historyLimit)
		if err != nil {
			log.Error("failed to load history", "error", err)
			return nil, err
		}
	}

	userMsg := s.newMessage(userID, domain.RoleUser, text, s.now())
	if len(history) > 0 {
		userMsg.CreatedAt = notBefore(userMsg.CreatedAt, history[len(history)-1].CreatedAt)
	}
	if err := s.messages.AppendMessage(ctx, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	reply := s.reply(ctx, userID, history, text)

	assistantMsg := s.newMessage(userID, domain.RoleAssistant, reply, notBefore(s.now(), userMsg.CreatedAt))
	if err := s.messages.AppendMessage(ctx, assistantMsg); err != nil {
		log.Error("failed to append assistant message", "error", err)
		return nil, err
	}

	log.Info("send message completed")

	return &SendMessageOutput{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

// Clear deletes the whole conversation. Confirmation is the caller's job.
// It fails with ErrSendInFlight while a Send for the same user is running.
func (s *Service) Clear(ctx context.Context, userID domain.UserID) error {
	g, unpin := s.gate(userID)
	defer unpin()
	if !g.TryAcquire(1) {
		return domain.ErrSendInFlight
	}
	defer g.Release(1)

	log := observability.LoggerFromContext(ctx).With("user_id", userID)
	if err := s.messages.ClearMessages(ctx, userID); err != nil {
		log.Error("failed to clear history", "error", err)
		return err
	}
	log.Info("history cleared")
	return nil
}

// reply tries the retrieval-augmented prompt first and, if that attempt
// fails as a whole, the persona-only prompt. It never fails.
func (s *Service) reply(ctx context.Context, userID domain.UserID, history []*domain.ChatMessage, text string) string {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)
	bio := s.bio(ctx, userID)

	out, err := s.augmentedReply(ctx, history, text, bio)
	if err == nil {
		return out
	}
	log.Warn("augmented reply failed, using simplified prompt", "error", err)

	return s.chain.GenerateOr(ctx, domain.GenerationRequest{
		SystemPrompt: prompt.Simplified(bio),
		History:      history,
		Message:      text,
	}, modelchain.FallbackConversation)
}

func (s *Service) augmentedReply(ctx context.Context, history []*domain.ChatMessage, text, bio string) (string, error) {
	docs, err := s.knowledge.ListKnowledge(ctx)
	if err != nil {
		return "", fmt.Errorf("load knowledge: %w", err)
	}

	relevant := s.filter.Relevant(text, docs)
	observability.LoggerFromContext(ctx).Debug("knowledge filtered",
		"documents", len(docs),
		"relevant_chars", len(relevant))

	return s.chain.Generate(ctx, domain.GenerationRequest{
		SystemPrompt: prompt.System(relevant, bio),
		History:      history,
		Message:      text,
	})
}

// bio is best effort: a missing or unreadable profile means "new user".
func (s *Service) bio(ctx context.Context, userID domain.UserID) string {
	if s.profiles == nil {
		return ""
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return ""
	}
	return p.Bio
}

func (s *Service) newMessage(userID domain.UserID, role domain.Role, text string, at time.Time) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        domain.MessageID(newID()),
		UserID:    userID,
		Role:      role,
		Text:      text,
		CreatedAt: at,
	}
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

// newID returns a time-ordered id so equal timestamps still sort by insertion.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
