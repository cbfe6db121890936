package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment. It is built once in
// main and passed down explicitly; nothing reads env vars after Load.
type Config struct {
	Port      string
	JWTSecret string

	// DatabaseDSN selects the MySQL backend when set; empty means a local
	// sqlite file (dev and tests).
	DatabaseDSN  string
	DatabasePath string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiEnabled bool

	// AssistantTimeoutSeconds bounds a single generation call so a slow
	// upstream can never stall a chat turn.
	AssistantTimeoutSeconds int
}

func Load() (*Config, error) {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getOr("PORT", "5000"),
		JWTSecret:               os.Getenv("JWT_SECRET_KEY"),
		DatabaseDSN:             os.Getenv("DATABASE_DSN"),
		DatabasePath:            getOr("DATABASE_PATH", "app.db"),
		GeminiAPIKey:            os.Getenv("GEMINI_API_KEY"),
		GeminiModel:             getOr("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiEnabled:           os.Getenv("IS_GEMINI_ENABLED") == "1",
		AssistantTimeoutSeconds: atoiOr(os.Getenv("ASSISTANT_TIMEOUT_SECONDS"), 30),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY must be set")
	}
	return cfg, nil
}

func getOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
