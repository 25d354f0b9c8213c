package models

import (
	"time"
)

// ConversationTurn is one user-message/AI-response exchange. Turns are
// append-only: both fields are written together or not at all, and the
// store-assigned ID gives the insertion order within a participant.
type ConversationTurn struct {
	ID            int64     `json:"id" db:"id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	UserMessage   string    `json:"user_message" db:"user_message"`
	AIResponse    string    `json:"ai_response" db:"ai_response"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
}
