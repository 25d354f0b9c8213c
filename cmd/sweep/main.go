package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"elenchus/internal/config"
	"elenchus/internal/domain/repositories"
	"elenchus/internal/repository/postgres"
	"elenchus/internal/repository/sqlite"
)

// Marks stale active sessions as abandoned. Meant to run from cron; the
// server exposes the same sweep on its admin surface.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	olderThan := flag.Duration("older-than", cfg.AbandonAfter, "mark active sessions older than this as abandoned")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	cutoff := time.Now().Add(-*olderThan)
	n, err := store.MarkAbandoned(ctx, cutoff)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	fmt.Printf("abandoned %d sessions (cutoff %s)\n", n, cutoff.Format(time.RFC3339))
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool, postgres.NewTableNames(cfg.TablePrefix), logger), nil
	case config.BackendSQLite:
		return sqlite.NewStore(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
