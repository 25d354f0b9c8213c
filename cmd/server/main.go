package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"elenchus/internal/config"
	"elenchus/internal/domain/repositories"
	"elenchus/internal/handler"
	"elenchus/internal/middleware"
	"elenchus/internal/repository/postgres"
	"elenchus/internal/repository/sqlite"
	"elenchus/internal/service/admin"
	"elenchus/internal/service/ai"
	"elenchus/internal/service/ai/providers/anthropic"
	"elenchus/internal/service/ai/providers/lorem"
	"elenchus/internal/service/study"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
	)

	studyCfg, err := config.LoadStudy(cfg.StudyConfigPath)
	if err != nil {
		log.Fatalf("Failed to load study config: %v", err)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	gateway, err := setupGateway(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup AI gateway: %v", err)
	}

	studyService := study.NewService(store, gateway, studyCfg, logger)
	aggregator := admin.NewAggregator(store, logger)

	sessionHandler := handler.NewSessionHandler(studyService, logger)
	adminHandler := handler.NewAdminHandler(aggregator, studyService, cfg.AbandonAfter, logger)

	logger.Info("services initialized", "ai_provider", cfg.AIProvider)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Participant routes
	mux.HandleFunc("POST /api/sessions", sessionHandler.Begin)
	mux.HandleFunc("GET /api/sessions/{id}", sessionHandler.Get)
	mux.HandleFunc("POST /api/sessions/{id}/messages", sessionHandler.Message)
	mux.HandleFunc("POST /api/sessions/{id}/questionnaire", sessionHandler.Questionnaire)

	// Researcher routes, behind the admin token
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /admin/api/participants", adminHandler.ListParticipants)
	adminMux.HandleFunc("GET /admin/api/participants/{id}", adminHandler.GetParticipant)
	adminMux.HandleFunc("GET /admin/api/stats", adminHandler.Stats)
	adminMux.HandleFunc("GET /admin/api/export", adminHandler.Export)
	adminMux.HandleFunc("POST /admin/api/sweep", adminHandler.Sweep)
	mux.Handle("/admin/", middleware.AdminAuth(cfg.AdminToken)(adminMux))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Admin-Token"},
		AllowCredentials: true,
	})

	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)
	root = corsMiddleware.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// openStore selects the persistence backend. Postgres is the remote default
// for deployments; SQLite keeps local development and pilots self-contained.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.Migrate(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database connected", "backend", "postgres", "table_prefix", cfg.TablePrefix)
		return postgres.NewStore(pool, tables, logger), nil

	case config.BackendSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected", "backend", "sqlite", "path", cfg.SQLitePath)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func setupGateway(cfg *config.Config, logger *slog.Logger) (*ai.Gateway, error) {
	var provider ai.Provider
	switch cfg.AIProvider {
	case "anthropic":
		p, err := anthropic.NewProvider(cfg.AIModel)
		if err != nil {
			return nil, err
		}
		provider = p
	case "lorem":
		provider = lorem.NewProvider()
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}

	keys := cfg.AIKeys
	if cfg.AIProvider == "lorem" && len(keys) == 0 {
		keys = []string{"lorem"}
	}
	keyring, err := ai.NewKeyring(keys, cfg.KeyCooldown, cfg.KeyRate, cfg.KeyBurst)
	if err != nil {
		return nil, err
	}

	return ai.NewGateway(provider, keyring, cfg.GenerateTimeout, cfg.GenerateAttempts, logger), nil
}
