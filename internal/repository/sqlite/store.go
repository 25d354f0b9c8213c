package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"elenchus/internal/domain"
	"elenchus/internal/domain/models"
	"elenchus/internal/domain/repositories"
)

// Store implements repositories.Store on a local SQLite file. It is the
// fallback when no remote database is configured: always available, but not
// shared across instances. No retry envelope is needed — a local file does
// not fail transiently.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (creating if needed) the SQLite database at path and
// bootstraps the schema.
func NewStore(path string, logger *slog.Logger) (repositories.Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent participants.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS participants (
			id TEXT PRIMARY KEY,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE TABLE IF NOT EXISTS study_scenarios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			participant_id TEXT NOT NULL UNIQUE,
			scenario_text TEXT NOT NULL,
			initial_question TEXT NOT NULL,
			generation_timestamp TIMESTAMP NOT NULL,
			FOREIGN KEY (participant_id) REFERENCES participants (id)
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			participant_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			FOREIGN KEY (participant_id) REFERENCES participants (id)
		)`,
		`CREATE TABLE IF NOT EXISTS questionnaire_responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			participant_id TEXT NOT NULL UNIQUE,
			age INTEGER NOT NULL,
			education TEXT NOT NULL,
			ct_experience TEXT NOT NULL,
			post_q1_easy_to_use INTEGER NOT NULL,
			post_q2_felt_confident INTEGER NOT NULL,
			post_q3_use_again INTEGER NOT NULL,
			post_q4_engaging INTEGER NOT NULL,
			post_q5_natural_flow INTEGER NOT NULL,
			post_q6_disengagement TEXT NOT NULL DEFAULT '',
			post_q7_encouraged_reflection INTEGER NOT NULL,
			post_q8_multiple_perspectives INTEGER NOT NULL,
			post_q9_critical_thinking_ways TEXT NOT NULL DEFAULT '',
			post_q10_learned_something TEXT NOT NULL DEFAULT '',
			post_q11_design_support TEXT NOT NULL DEFAULT '',
			post_q12_confusion TEXT NOT NULL DEFAULT '',
			post_q13_application TEXT NOT NULL DEFAULT '',
			post_q14_improvements TEXT NOT NULL DEFAULT '',
			post_q15_valuable INTEGER NOT NULL,
			post_q16_recommend INTEGER NOT NULL,
			post_q17_other_comments TEXT NOT NULL DEFAULT '',
			critical_thinking_score REAL NOT NULL,
			completion_time TIMESTAMP NOT NULL,
			FOREIGN KEY (participant_id) REFERENCES participants (id)
		)`,
		`CREATE INDEX IF NOT EXISTS conversations_participant_idx
			ON conversations (participant_id, timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO participants (id, start_time, status)
		VALUES (?, ?, ?)
	`, p.ID, p.StartTime, p.Status)
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	var p models.Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, start_time, end_time, status
		FROM participants
		WHERE id = ?
	`, id).Scan(&p.ID, &p.StartTime, &p.EndTime, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (s *Store) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_time, end_time, status
		FROM participants
		ORDER BY start_time, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.StartTime, &p.EndTime, &p.Status); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (s *Store) MarkAbandoned(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participants
		SET status = ?, end_time = ?
		WHERE status = ? AND start_time < ?
	`, models.StatusAbandoned, time.Now(), models.StatusActive, before)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) CreateScenario(ctx context.Context, sc *models.Scenario) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO study_scenarios (participant_id, scenario_text, initial_question, generation_timestamp)
		VALUES (?, ?, ?, ?)
	`, sc.ParticipantID, sc.ScenarioText, sc.InitialQuestion, sc.GeneratedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("scenario for participant %s: %w", sc.ParticipantID, domain.ErrConflict)
		}
		return fmt.Errorf("create scenario: %w", err)
	}

	sc.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) GetScenario(ctx context.Context, participantID string) (*models.Scenario, error) {
	var sc models.Scenario
	err := s.db.QueryRowContext(ctx, `
		SELECT id, participant_id, scenario_text, initial_question, generation_timestamp
		FROM study_scenarios
		WHERE participant_id = ?
	`, participantID).Scan(&sc.ID, &sc.ParticipantID, &sc.ScenarioText, &sc.InitialQuestion, &sc.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scenario for participant %s: %w", participantID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get scenario: %w", err)
	}
	return &sc, nil
}

func (s *Store) AppendTurn(ctx context.Context, t *models.ConversationTurn) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (participant_id, user_message, ai_response, timestamp)
		VALUES (?, ?, ?, ?)
	`, t.ParticipantID, t.UserMessage, t.AIResponse, t.Timestamp)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	t.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) ListTurns(ctx context.Context, participantID string) ([]models.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant_id, user_message, ai_response, timestamp
		FROM conversations
		WHERE participant_id = ?
		ORDER BY timestamp, id
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.ID, &t.ParticipantID, &t.UserMessage, &t.AIResponse, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *Store) CountTurns(ctx context.Context, participantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE participant_id = ?`,
		participantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return count, nil
}

func (s *Store) SubmitQuestionnaire(ctx context.Context, q *models.QuestionnaireResponse) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("submit questionnaire: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO questionnaire_responses (
			participant_id, age, education, ct_experience,
			post_q1_easy_to_use, post_q2_felt_confident, post_q3_use_again,
			post_q4_engaging, post_q5_natural_flow, post_q6_disengagement,
			post_q7_encouraged_reflection, post_q8_multiple_perspectives,
			post_q9_critical_thinking_ways, post_q10_learned_something,
			post_q11_design_support, post_q12_confusion, post_q13_application,
			post_q14_improvements, post_q15_valuable, post_q16_recommend,
			post_q17_other_comments, critical_thinking_score, completion_time
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ParticipantID, q.Age, q.Education, q.CTExperience,
		q.EasyToUse, q.FeltConfident, q.UseAgain,
		q.Engaging, q.NaturalFlow, q.Disengagement,
		q.EncouragedReflection, q.MultiplePerspectives,
		q.CriticalThinkingWays, q.LearnedSomething,
		q.DesignSupport, q.Confusion, q.Application,
		q.Improvements, q.Valuable, q.Recommend,
		q.OtherComments, q.Score, q.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("questionnaire for participant %s: %w", q.ParticipantID, domain.ErrAlreadyCompleted)
		}
		return fmt.Errorf("submit questionnaire: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE participants SET status = ?, end_time = ? WHERE id = ?
	`, models.StatusCompleted, q.CompletedAt, q.ParticipantID)
	if err != nil {
		return fmt.Errorf("complete participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("submit questionnaire: %w", err)
	}

	q.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) GetQuestionnaire(ctx context.Context, participantID string) (*models.QuestionnaireResponse, error) {
	var q models.QuestionnaireResponse
	err := s.db.QueryRowContext(ctx, `
		SELECT id, participant_id, age, education, ct_experience,
		       post_q1_easy_to_use, post_q2_felt_confident, post_q3_use_again,
		       post_q4_engaging, post_q5_natural_flow, post_q6_disengagement,
		       post_q7_encouraged_reflection, post_q8_multiple_perspectives,
		       post_q9_critical_thinking_ways, post_q10_learned_something,
		       post_q11_design_support, post_q12_confusion, post_q13_application,
		       post_q14_improvements, post_q15_valuable, post_q16_recommend,
		       post_q17_other_comments, critical_thinking_score, completion_time
		FROM questionnaire_responses
		WHERE participant_id = ?
	`, participantID).Scan(
		&q.ID, &q.ParticipantID, &q.Age, &q.Education, &q.CTExperience,
		&q.EasyToUse, &q.FeltConfident, &q.UseAgain,
		&q.Engaging, &q.NaturalFlow, &q.Disengagement,
		&q.EncouragedReflection, &q.MultiplePerspectives,
		&q.CriticalThinkingWays, &q.LearnedSomething,
		&q.DesignSupport, &q.Confusion, &q.Application,
		&q.Improvements, &q.Valuable, &q.Recommend,
		&q.OtherComments, &q.Score, &q.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("questionnaire for participant %s: %w", participantID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get questionnaire: %w", err)
	}
	return &q, nil
}
