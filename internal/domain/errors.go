package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyMessage      = errors.New("text is required")
	ErrIncompleteAnswers = errors.New("assessment is incomplete")
	ErrInvalidAnswer     = errors.New("invalid answer")
	ErrSendInFlight      = errors.New("a message is already being sent")
)
