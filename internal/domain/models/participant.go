package models

import (
	"time"
)

// ParticipantStatus is the lifecycle status of a participant.
type ParticipantStatus string

const (
	StatusActive    ParticipantStatus = "active"
	StatusCompleted ParticipantStatus = "completed"
	StatusAbandoned ParticipantStatus = "abandoned"
)

// Participant is the root entity of a study record. It is created on first
// contact and only its status and end time ever change afterwards.
type Participant struct {
	ID        string            `json:"id" db:"id"`
	StartTime time.Time         `json:"start_time" db:"start_time"`
	EndTime   *time.Time        `json:"end_time,omitempty" db:"end_time"`
	Status    ParticipantStatus `json:"status" db:"status"`
}
