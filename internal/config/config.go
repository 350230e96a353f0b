// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/admin.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	MatchesTable      = "matches"
	PredictionsTable  = "predictions"
	WeeklyScoresTable = "weekly_scores"
	GroupsTable       = "groups"
	GroupMembersTable = "group_members"
	CycleRunsTable    = "cycle_runs"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// External provider (football-data.org)
	FDAPIToken          string
	FDRequestsPerMinute int
	Competition         string // provider competition code, e.g. "PL"
	SeasonLabel         string // label stamped on inserted matches, e.g. "2025/26"

	// Local time zone for windows and kickoff normalization
	Timezone string

	// Identity
	JWTSecret string

	// Prediction gate
	DevPredictionBypass bool // accept submissions outside the open window

	// Weekly cycle
	CycleHour    int // local hour of the Thursday trigger
	CycleEnabled bool

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		FDAPIToken:          envOr("FOOTBALL_DATA_API_KEY", ""),
		FDRequestsPerMinute: envInt("FD_REQUESTS_PER_MINUTE", 10),
		Competition:         envOr("COMPETITION", "PL"),
		SeasonLabel:         envOr("SEASON_LABEL", "2025/26"),

		Timezone: envOr("TIMEZONE", "Asia/Singapore"),

		JWTSecret: envOr("JWT_SECRET", "dev-change-me"),

		DevPredictionBypass: envBool("DEV_PRED_BYPASS", false),

		CycleHour:    envInt("CYCLE_HOUR", 9),
		CycleEnabled: envBool("CYCLE_ENABLED", true),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves the configured time zone. If the zone is not available
// it falls back to UTC and reports degraded=true so callers can log it;
// window math still runs, just in the reference zone.
func (c *Config) Location() (loc *time.Location, degraded bool) {
	l, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, true
	}
	return l, false
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
