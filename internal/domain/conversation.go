package domain

// ChatMessage is one turn of a user's conversation with the assistant.
// Messages are append-only and ordered by CreatedAt.
type ChatMessage struct {
	ID        MessageID
	UserID    UserID
	Role      Role
	Text      string
	CreatedAt Timestamp
}

// Profile holds the free-text note the user writes about themselves.
// It is injected into the conversational system prompt.
type Profile struct {
	UserID   UserID
	FullName string
	Bio      string
}

// KnowledgeDocument is a shared, read-only background document.
type KnowledgeDocument struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}
