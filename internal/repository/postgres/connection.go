package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TableNames holds dynamically prefixed table names so dev/test/prod can
// share one database.
type TableNames struct {
	Participants   string
	Scenarios      string
	Conversations  string
	Questionnaires string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Participants:   fmt.Sprintf("%sparticipants", prefix),
		Scenarios:      fmt.Sprintf("%sstudy_scenarios", prefix),
		Conversations:  fmt.Sprintf("%sconversations", prefix),
		Questionnaires: fmt.Sprintf("%squestionnaire_responses", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool and verifies it with a
// ping. Dynamic table prefixes are interpolated into SQL before statements
// reach the database, so each environment gets its own prepared statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
