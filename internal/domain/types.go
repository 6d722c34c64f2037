package domain

import "time"

type UserID string
type MessageID string
type JournalEntryID string
type AssessmentID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Timestamp = time.Time
