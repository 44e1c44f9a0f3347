// Package config loads the engine's runtime configuration from the
// environment, with .env support for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	StoreType      string
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins []string

	// DefaultAdminID is the designated recipient for admin-addressed
	// messages that carry no explicit admin id. Injected here instead of
	// being discovered via a "first admin row" query.
	DefaultAdminID int64

	// StudentContentLimit caps student-authored content at the boundary.
	// 0 disables the cap. The store itself imposes no length limit.
	StudentContentLimit int

	// SweepIncludeRead makes the expiry sweep purge read expired
	// messages too. Off by default: read messages are retained.
	SweepIncludeRead bool
	// SweepRetentionDays is the advertised retention window.
	SweepRetentionDays int
	// SweepInterval enables the in-process periodic sweep when positive.
	// Zero leaves sweeping to the cleanup command / external scheduler.
	SweepInterval time.Duration
}

// Load reads configuration from the environment. A missing .env file is
// not an error; production sets real environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                envOr("PORT", "8080"),
		Env:                 envOr("ENV", "development"),
		StoreType:           envOr("STORE_TYPE", "postgres"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StudentContentLimit: 150,
		SweepRetentionDays:  2,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	var err error
	if cfg.DefaultAdminID, err = envInt64("DEFAULT_ADMIN_ID", 0); err != nil {
		return nil, err
	}
	if cfg.StudentContentLimit, err = envInt("STUDENT_CONTENT_LIMIT", cfg.StudentContentLimit); err != nil {
		return nil, err
	}
	if cfg.SweepRetentionDays, err = envInt("SWEEP_RETENTION_DAYS", cfg.SweepRetentionDays); err != nil {
		return nil, err
	}
	cfg.SweepIncludeRead = os.Getenv("SWEEP_INCLUDE_READ") == "true"

	if interval := os.Getenv("SWEEP_INTERVAL"); interval != "" {
		cfg.SweepInterval, err = time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid SWEEP_INTERVAL %q: %w", interval, err)
		}
	}

	if cfg.StoreType == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
