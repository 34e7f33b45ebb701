package config

import (
	"fmt"
	"os"
	"time"
)

// APIConfig configures the api process.
//
// These values are deployment-provided.
type APIConfig struct {
	Port           string
	StorageBackend string
	DatabaseURL    string

	// IdempotencyTTL bounds retention of idempotency records. Expiry is
	// advisory: a key re-presented after its record expired is treated as a
	// fresh request with fresh conflict checking.
	IdempotencyTTL time.Duration
}

func LoadAPIConfigFromEnv() (APIConfig, error) {
	cfg := APIConfig{
		Port:           getenv("PORT", "8080"),
		StorageBackend: getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		IdempotencyTTL: 24 * time.Hour,
	}

	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return APIConfig{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return APIConfig{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return APIConfig{}, fmt.Errorf("IDEMPOTENCY_TTL must be a duration (e.g. 24h): %w", err)
		}
		if d <= 0 {
			return APIConfig{}, fmt.Errorf("IDEMPOTENCY_TTL must be positive")
		}
		cfg.IdempotencyTTL = d
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
