package repositories

import (
	"context"
	"time"

	"elenchus/internal/domain/models"
)

// Store is the uniform persistence interface over the two interchangeable
// backends (remote Postgres, local SQLite fallback). Callers never branch on
// which backend is active.
//
// Error contract:
//   - Get* return domain.ErrNotFound (wrapped) when no record exists.
//   - CreateScenario returns domain.ErrConflict when a scenario already
//     exists for the participant.
//   - SubmitQuestionnaire returns domain.ErrAlreadyCompleted on a duplicate
//     submission, and writes the response row and the participant's
//     completed status atomically.
//   - The remote backend wraps transient failures that survive its retry
//     budget in domain.ErrPersistenceUnavailable.
type Store interface {
	// CreateParticipant inserts a participant if absent. Re-inserting an
	// existing ID is a no-op (first contact is idempotent).
	CreateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]models.Participant, error)

	// MarkAbandoned flips active participants whose start time is before the
	// cutoff to abandoned, returning how many rows changed.
	MarkAbandoned(ctx context.Context, before time.Time) (int64, error)

	CreateScenario(ctx context.Context, s *models.Scenario) error
	GetScenario(ctx context.Context, participantID string) (*models.Scenario, error)

	// AppendTurn writes one complete exchange: user message and AI response
	// land in a single row, so a turn is either fully present or absent.
	AppendTurn(ctx context.Context, t *models.ConversationTurn) error
	ListTurns(ctx context.Context, participantID string) ([]models.ConversationTurn, error)
	CountTurns(ctx context.Context, participantID string) (int, error)

	SubmitQuestionnaire(ctx context.Context, q *models.QuestionnaireResponse) error
	GetQuestionnaire(ctx context.Context, participantID string) (*models.QuestionnaireResponse, error)

	Close() error
}
