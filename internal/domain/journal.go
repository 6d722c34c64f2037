package domain

// JournalEntry is a free-text entry enriched with a detected emotion
// and a short reflection.
type JournalEntry struct {
	ID     JournalEntryID `json:"id"`
	UserID UserID         `json:"user_id"`

	Text       string `json:"text"`
	Emotion    string `json:"emotion"`
	Reflection string `json:"reflection"`

	CreatedAt Timestamp `json:"created_at"`
}
