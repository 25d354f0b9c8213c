package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the study tables if they do not exist. Safe to run on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'active'
		)`, tables.Participants),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			participant_id TEXT NOT NULL UNIQUE REFERENCES %s (id),
			scenario_text TEXT NOT NULL,
			initial_question TEXT NOT NULL,
			generation_timestamp TIMESTAMPTZ NOT NULL
		)`, tables.Scenarios, tables.Participants),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			participant_id TEXT NOT NULL REFERENCES %s (id),
			user_message TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL
		)`, tables.Conversations, tables.Participants),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			participant_id TEXT NOT NULL UNIQUE REFERENCES %s (id),
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
			critical_thinking_score DOUBLE PRECISION NOT NULL,
			completion_time TIMESTAMPTZ NOT NULL
		)`, tables.Questionnaires, tables.Participants),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_participant_idx ON %s (participant_id, timestamp)`,
			tables.Conversations, tables.Conversations),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
