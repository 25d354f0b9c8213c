package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elenchus/internal/domain"
	"elenchus/internal/domain/models"
	"elenchus/internal/domain/repositories"
)

// Store implements repositories.Store against a remote PostgreSQL database.
// Every operation runs inside a bounded retry envelope for transient network
// failures.
type Store struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewStore creates a postgres-backed store.
func NewStore(pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) repositories.Store {
	return &Store{
		pool:   pool,
		tables: tables,
		logger: logger,
	}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CreateParticipant inserts a participant row, ignoring duplicates so first
// contact stays idempotent under page refresh.
func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, start_time, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, s.tables.Participants)

	return withRetry(ctx, s.logger, "create participant", func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, query, p.ID, p.StartTime, p.Status)
		if err != nil {
			return fmt.Errorf("create participant: %w", err)
		}
		return nil
	})
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	query := fmt.Sprintf(`
		SELECT id, start_time, end_time, status
		FROM %s
		WHERE id = $1
	`, s.tables.Participants)

	var p models.Participant
	err := withRetry(ctx, s.logger, "get participant", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.StartTime, &p.EndTime, &p.Status)
	})
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("participant %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	return &p, nil
}

func (s *Store) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	query := fmt.Sprintf(`
		SELECT id, start_time, end_time, status
		FROM %s
		ORDER BY start_time, id
	`, s.tables.Participants)

	var participants []models.Participant
	err := withRetry(ctx, s.logger, "list participants", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		defer rows.Close()

		participants = participants[:0]
		for rows.Next() {
			var p models.Participant
			if err := rows.Scan(&p.ID, &p.StartTime, &p.EndTime, &p.Status); err != nil {
				return fmt.Errorf("scan participant: %w", err)
			}
			participants = append(participants, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (s *Store) MarkAbandoned(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, end_time = $2
		WHERE status = $3 AND start_time < $4
	`, s.tables.Participants)

	var affected int64
	err := withRetry(ctx, s.logger, "mark abandoned", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, query, models.StatusAbandoned, time.Now(), models.StatusActive, before)
		if err != nil {
			return fmt.Errorf("mark abandoned: %w", err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// CreateScenario inserts the single scenario for a participant. A second
// insert hits the unique index and maps to domain.ErrConflict so the
// orchestrator can reuse the existing row.
func (s *Store) CreateScenario(ctx context.Context, sc *models.Scenario) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (participant_id, scenario_text, initial_question, generation_timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.tables.Scenarios)

	err := withRetry(ctx, s.logger, "create scenario", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, query,
			sc.ParticipantID,
			sc.ScenarioText,
			sc.InitialQuestion,
			sc.GeneratedAt,
		).Scan(&sc.ID)
	})
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("scenario for participant %s: %w", sc.ParticipantID, domain.ErrConflict)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("participant %s: %w", sc.ParticipantID, domain.ErrNotFound)
		}
		return fmt.Errorf("create scenario: %w", err)
	}

	return nil
}

func (s *Store) GetScenario(ctx context.Context, participantID string) (*models.Scenario, error) {
	query := fmt.Sprintf(`
		SELECT id, participant_id, scenario_text, initial_question, generation_timestamp
		FROM %s
		WHERE participant_id = $1
	`, s.tables.Scenarios)

	var sc models.Scenario
	err := withRetry(ctx, s.logger, "get scenario", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, query, participantID).Scan(
			&sc.ID, &sc.ParticipantID, &sc.ScenarioText, &sc.InitialQuestion, &sc.GeneratedAt,
		)
	})
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("scenario for participant %s: %w", participantID, domain.ErrNotFound)
		}
		return nil, err
	}

	return &sc, nil
}

// AppendTurn writes one complete exchange as a single row. Per-row atomicity
// is what guarantees the both-fields-or-neither invariant.
func (s *Store) AppendTurn(ctx context.Context, t *models.ConversationTurn) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (participant_id, user_message, ai_response, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.tables.Conversations)

	err := withRetry(ctx, s.logger, "append turn", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, query,
			t.ParticipantID,
			t.UserMessage,
			t.AIResponse,
			t.Timestamp,
		).Scan(&t.ID)
	})
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("participant %s: %w", t.ParticipantID, domain.ErrNotFound)
		}
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

func (s *Store) ListTurns(ctx context.Context, participantID string) ([]models.ConversationTurn, error) {
	query := fmt.Sprintf(`
		SELECT id, participant_id, user_message, ai_response, timestamp
		FROM %s
		WHERE participant_id = $1
		ORDER BY timestamp, id
	`, s.tables.Conversations)

	var turns []models.ConversationTurn
	err := withRetry(ctx, s.logger, "list turns", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, query, participantID)
		if err != nil {
			return fmt.Errorf("list turns: %w", err)
		}
		defer rows.Close()

		turns = turns[:0]
		for rows.Next() {
			var t models.ConversationTurn
			if err := rows.Scan(&t.ID, &t.ParticipantID, &t.UserMessage, &t.AIResponse, &t.Timestamp); err != nil {
				return fmt.Errorf("scan turn: %w", err)
			}
			turns = append(turns, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return turns, nil
}

func (s *Store) CountTurns(ctx context.Context, participantID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE participant_id = $1`, s.tables.Conversations)

	var count int
	err := withRetry(ctx, s.logger, "count turns", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, query, participantID).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}

	return count, nil
}

// SubmitQuestionnaire inserts the questionnaire row and flips the participant
// to completed in one transaction. The unique index on participant_id makes a
// duplicate submission fail before either write takes effect.
func (s *Store) SubmitQuestionnaire(ctx context.Context, q *models.QuestionnaireResponse) error {
	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (
			participant_id, age, education, ct_experience,
			post_q1_easy_to_use, post_q2_felt_confident, post_q3_use_again,
			post_q4_engaging, post_q5_natural_flow, post_q6_disengagement,
			post_q7_encouraged_reflection, post_q8_multiple_perspectives,
			post_q9_critical_thinking_ways, post_q10_learned_something,
			post_q11_design_support, post_q12_confusion, post_q13_application,
			post_q14_improvements, post_q15_valuable, post_q16_recommend,
			post_q17_other_comments, critical_thinking_score, completion_time
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id
	`, s.tables.Questionnaires)

	updateQuery := fmt.Sprintf(`
		UPDATE %s SET status = $1, end_time = $2 WHERE id = $3
	`, s.tables.Participants)

	err := withRetry(ctx, s.logger, "submit questionnaire", func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			err := tx.QueryRow(ctx, insertQuery,
				q.ParticipantID, q.Age, q.Education, q.CTExperience,
				q.EasyToUse, q.FeltConfident, q.UseAgain,
				q.Engaging, q.NaturalFlow, q.Disengagement,
				q.EncouragedReflection, q.MultiplePerspectives,
				q.CriticalThinkingWays, q.LearnedSomething,
				q.DesignSupport, q.Confusion, q.Application,
				q.Improvements, q.Valuable, q.Recommend,
				q.OtherComments, q.Score, q.CompletedAt,
			).Scan(&q.ID)
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, updateQuery, models.StatusCompleted, q.CompletedAt, q.ParticipantID)
			return err
		})
	})
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("questionnaire for participant %s: %w", q.ParticipantID, domain.ErrAlreadyCompleted)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("participant %s: %w", q.ParticipantID, domain.ErrNotFound)
		}
		return fmt.Errorf("submit questionnaire: %w", err)
	}

	return nil
}

func (s *Store) GetQuestionnaire(ctx context.Context, participantID string) (*models.QuestionnaireResponse, error) {
	query := fmt.Sprintf(`
		SELECT id, participant_id, age, education, ct_experience,
		       post_q1_easy_to_use, post_q2_felt_confident, post_q3_use_again,
		       post_q4_engaging, post_q5_natural_flow, post_q6_disengagement,
		       post_q7_encouraged_reflection, post_q8_multiple_perspectives,
		       post_q9_critical_thinking_ways, post_q10_learned_something,
		       post_q11_design_support, post_q12_confusion, post_q13_application,
		       post_q14_improvements, post_q15_valuable, post_q16_recommend,
		       post_q17_other_comments, critical_thinking_score, completion_time
		FROM %s
		WHERE participant_id = $1
	`, s.tables.Questionnaires)

	var q models.QuestionnaireResponse
	err := withRetry(ctx, s.logger, "get questionnaire", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, query, participantID).Scan(
			&q.ID, &q.ParticipantID, &q.Age, &q.Education, &q.CTExperience,
			&q.EasyToUse, &q.FeltConfident, &q.UseAgain,
			&q.Engaging, &q.NaturalFlow, &q.Disengagement,
			&q.EncouragedReflection, &q.MultiplePerspectives,
			&q.CriticalThinkingWays, &q.LearnedSomething,
			&q.DesignSupport, &q.Confusion, &q.Application,
			&q.Improvements, &q.Valuable, &q.Recommend,
			&q.OtherComments, &q.Score, &q.CompletedAt,
		)
	})
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("questionnaire for participant %s: %w", participantID, domain.ErrNotFound)
		}
		return nil, err
	}

	return &q, nil
}
