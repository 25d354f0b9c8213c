package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selectors for the persistence layer.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Persistence
	StoreBackend string // "postgres" (remote) or "sqlite" (local fallback)
	DatabaseURL  string
	SQLitePath   string
	TablePrefix  string

	// AI provider
	AIProvider       string // "anthropic" or "lorem"
	AIModel          string
	AIKeys           []string // credential pool, rotated on failure
	GenerateTimeout  time.Duration
	GenerateAttempts int
	KeyCooldown      time.Duration
	KeyRate          float64 // sustained requests/second per credential
	KeyBurst         int

	// Admin surface
	AdminToken   string
	AbandonAfter time.Duration

	// Study definition
	StudyConfigPath string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		StoreBackend: getEnv("STORE_BACKEND", BackendSQLite),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLitePath:   getEnv("SQLITE_PATH", "study_data.db"),
		TablePrefix:  getTablePrefix(env),

		AIProvider:       getEnv("AI_PROVIDER", "anthropic"),
		AIModel:          getEnv("AI_MODEL", "claude-haiku-4-5-20251001"),
		AIKeys:           splitList(getEnv("AI_API_KEYS", os.Getenv("ANTHROPIC_API_KEY"))),
		GenerateTimeout:  getDuration("GENERATE_TIMEOUT", 30*time.Second),
		GenerateAttempts: getInt("GENERATE_ATTEMPTS", 3),
		KeyCooldown:      getDuration("KEY_COOLDOWN", 30*time.Second),
		KeyRate:          getFloat("KEY_RATE", 1),
		KeyBurst:         getInt("KEY_BURST", 3),

		AdminToken:   getEnv("ADMIN_TOKEN", ""),
		AbandonAfter: getDuration("ABANDON_AFTER", 24*time.Hour),

		StudyConfigPath: getEnv("STUDY_CONFIG", ""),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
