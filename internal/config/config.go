package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable not set")

type Config struct {
	Env          string
	Port         int
	DatabaseURL  string
	JWTSecret    string
	TokenTTLDays int
	// CORS origins; "*" allows any origin.
	AllowedOrigins []string
	// OTLP gRPC endpoint; tracing is off when empty.
	OTLPEndpoint string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present so local runs don't need exports.
func Load() (Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		return Config{}, ErrMissingDatabaseURL
	}

	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnvInt("PORT", 8080),
		DatabaseURL:    dbURL,
		JWTSecret:      getEnv("SECRET_KEY", "temporary_dev_secret"),
		TokenTTLDays:   getEnvInt("TOKEN_TTL_DAYS", 30),
		AllowedOrigins: splitOrigins(getEnv("CORS_ORIGINS", "*")),
		OTLPEndpoint:   os.Getenv("OTLP_ENDPOINT"),
	}

	return cfg, nil
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLDays) * 24 * time.Hour
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")

	origins := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			origins = append(origins, p)
		}
	}

	return origins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}
