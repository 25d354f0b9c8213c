package models

import (
	"time"
)

// Scenario is the AI-generated case text plus initial discussion question
// presented before the conversation. At most one exists per participant and
// it is immutable once written.
type Scenario struct {
	ID              int64     `json:"id" db:"id"`
	ParticipantID   string    `json:"participant_id" db:"participant_id"`
	ScenarioText    string    `json:"scenario_text" db:"scenario_text"`
	InitialQuestion string    `json:"initial_question" db:"initial_question"`
	GeneratedAt     time.Time `json:"generation_timestamp" db:"generation_timestamp"`
}
