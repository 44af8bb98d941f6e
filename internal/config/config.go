package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Game log sources.
const (
	SourcePostgres   = "postgres"
	SourceClickHouse = "clickhouse"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	// Server
	Port     int
	Env      string
	LogLevel string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// GameLogSource selects the store game logs and rosters are read from.
	GameLogSource string

	// Cache
	CacheBackend       string
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	// Fallback backoff
	FallbackBaseInterval time.Duration
	FallbackMaxInterval  time.Duration

	// Rolling splits precompute
	SplitsCron    string
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	RosterLookupConcurrency int
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists. It returns an error if critical configuration is
// missing or inconsistent.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Port:     getEnvInt("PORT", 8080),
		Env:      getEnv("ENV", "development"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		GameLogSource: strings.ToLower(getEnv("GAMELOG_SOURCE", SourcePostgres)),

		CacheBackend:       strings.ToLower(getEnv("CACHE_BACKEND", CacheMemory)),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),

		FallbackBaseInterval: getEnvDuration("FALLBACK_BASE_INTERVAL", 5*time.Second),
		FallbackMaxInterval:  getEnvDuration("FALLBACK_MAX_INTERVAL", 5*time.Minute),

		SplitsCron:    getEnv("SPLITS_CRON", "0 6 * * *"),
		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		QueueSize:     getEnvInt("QUEUE_SIZE", 1000),
		BatchSize:     getEnvInt("BATCH_SIZE", 200),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 2*time.Second),

		RosterLookupConcurrency: getEnvInt("ROSTER_LOOKUP_CONCURRENCY", 8),
	}
	if os.Getenv("SPLITS_CRON") == "off" {
		cfg.SplitsCron = ""
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	rawOrigins := strings.Split(origins, ",")
	for _, o := range rawOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.GameLogSource {
	case SourcePostgres:
	case SourceClickHouse:
		if c.ClickHouseURL == "" {
			return errors.New("GAMELOG_SOURCE=clickhouse requires CLICKHOUSE_URL")
		}
	default:
		return fmt.Errorf("unsupported GAMELOG_SOURCE %q", c.GameLogSource)
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("CACHE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.FallbackMaxInterval < c.FallbackBaseInterval {
		return fmt.Errorf("FALLBACK_MAX_INTERVAL (%s) is below FALLBACK_BASE_INTERVAL (%s)", c.FallbackMaxInterval, c.FallbackBaseInterval)
	}
	return nil
}

// IsProduction reports whether ENV selects production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
