package admin

import (
	"context"
	"errors"
	"log/slog"

	"elenchus/internal/domain"
	"elenchus/internal/domain/models"
	"elenchus/internal/domain/repositories"
)

// Aggregator serves the researcher-facing read side: participant listings,
// full per-participant records, study-wide stats and CSV exports. It only
// reads; all writes go through the study service.
type Aggregator struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewAggregator(store repositories.Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// ParticipantSummary is one row of the admin listing.
type ParticipantSummary struct {
	models.Participant
	State     models.State `json:"state"`
	TurnCount int          `json:"turn_count"`
}

// Record is everything recorded for one participant.
type Record struct {
	Participant   *models.Participant           `json:"participant"`
	State         models.State                  `json:"state"`
	Scenario      *models.Scenario              `json:"scenario,omitempty"`
	Turns         []models.ConversationTurn     `json:"turns"`
	Questionnaire *models.QuestionnaireResponse `json:"questionnaire,omitempty"`
}

// Stats is the study-wide dashboard summary.
type Stats struct {
	TotalParticipants     int     `json:"total_participants"`
	ActiveParticipants    int     `json:"active_participants"`
	CompletedParticipants int     `json:"completed_participants"`
	AbandonedParticipants int     `json:"abandoned_participants"`
	TotalTurns            int     `json:"total_turns"`
	AverageTurns          float64 `json:"average_turns"`
	AverageScore          float64 `json:"average_score"`
}

// ListParticipants returns every participant with their reconstructed state
// and exchange count, in the store's order (start time, oldest first).
func (a *Aggregator) ListParticipants(ctx context.Context) ([]ParticipantSummary, error) {
	participants, err := a.store.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ParticipantSummary, 0, len(participants))
	for i := range participants {
		p := &participants[i]

		hasScenario, err := a.hasScenario(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		turnCount, err := a.store.CountTurns(ctx, p.ID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, ParticipantSummary{
			Participant: *p,
			State:       models.Classify(p, hasScenario, turnCount, p.Status == models.StatusCompleted),
			TurnCount:   turnCount,
		})
	}
	return summaries, nil
}

// FullRecord assembles the complete record for one participant.
func (a *Aggregator) FullRecord(ctx context.Context, participantID string) (*Record, error) {
	participant, err := a.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	scenario, err := a.store.GetScenario(ctx, participantID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	turns, err := a.store.ListTurns(ctx, participantID)
	if err != nil {
		return nil, err
	}
	questionnaire, err := a.store.GetQuestionnaire(ctx, participantID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return &Record{
		Participant:   participant,
		State:         models.Classify(participant, scenario != nil, len(turns), questionnaire != nil),
		Scenario:      scenario,
		Turns:         turns,
		Questionnaire: questionnaire,
	}, nil
}

// Stats aggregates study-wide counters. Average score covers completed
// participants only.
func (a *Aggregator) Stats(ctx context.Context) (*Stats, error) {
	participants, err := a.store.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalParticipants: len(participants)}
	var scoreSum float64
	var scored int

	for i := range participants {
		p := &participants[i]
		switch p.Status {
		case models.StatusCompleted:
			stats.CompletedParticipants++
		case models.StatusAbandoned:
			stats.AbandonedParticipants++
		default:
			stats.ActiveParticipants++
		}

		turnCount, err := a.store.CountTurns(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		stats.TotalTurns += turnCount

		if p.Status == models.StatusCompleted {
			q, err := a.store.GetQuestionnaire(ctx, p.ID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, err
			}
			scoreSum += q.Score
			scored++
		}
	}

	if stats.TotalParticipants > 0 {
		stats.AverageTurns = float64(stats.TotalTurns) / float64(stats.TotalParticipants)
	}
	if scored > 0 {
		stats.AverageScore = scoreSum / float64(scored)
	}
	return stats, nil
}

func (a *Aggregator) hasScenario(ctx context.Context, participantID string) (bool, error) {
	_, err := a.store.GetScenario(ctx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
