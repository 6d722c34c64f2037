package domain

import "context"

// LLMClient defines how the core application talks to a generative backend.
// modelID selects the backend model for this single call.
type LLMClient interface {
	GenerateReply(ctx context.Context, modelID string, req GenerationRequest) (string, error)
}

// GenerationRequest is everything a backend needs for one reply.
type GenerationRequest struct {
	SystemPrompt string
	History      []*ChatMessage
	Message      string
}

// ChatStore persists a user's conversation.
// ListMessages returns messages ascending by CreatedAt; limit > 0 keeps the last N.
type ChatStore interface {
	AppendMessage(ctx context.Context, msg *ChatMessage) error
	ListMessages(ctx context.Context, userID UserID, limit int) ([]*ChatMessage, error)
	ClearMessages(ctx context.Context, userID UserID) error
}

// JournalStore lists entries newest first.
type JournalStore interface {
	AppendJournalEntry(ctx context.Context, entry *JournalEntry) error
	ListJournalEntries(ctx context.Context, userID UserID, limit int) ([]*JournalEntry, error)
}

// AssessmentStore lists records ascending by creation time.
type AssessmentStore interface {
	AppendAssessment(ctx context.Context, rec *AssessmentRecord) error
	ListAssessments(ctx context.Context, userID UserID) ([]*AssessmentRecord, error)
}

// KnowledgeStore is the shared knowledge collection. It is read in full on every turn.
type KnowledgeStore interface {
	ListKnowledge(ctx context.Context) ([]KnowledgeDocument, error)
}

// ProfileStore returns ErrNotFound when the user has no profile yet.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID UserID) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
}
