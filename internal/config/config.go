package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config is the server configuration, read from the environment
type Config struct {
	Port            int
	StorageType     string
	RedisURL        string
	RedisKeyPrefix  string
	DatabaseURL     string
	RankPolicy      string
	SeedFile        string // optional YAML roster loaded into an empty store
	SessionDuration time.Duration
	LogLevel        slog.Level
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:            8080,
		StorageType:     StorageMemory,
		RankPolicy:      "manual",
		SessionDuration: 24 * time.Hour,
		LogLevel:        slog.LevelInfo,
	}
}

// Load reads the environment, first filling it from .env files when they
// exist. Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load(files...)
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any variable source
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT: %w", err)
		}
		if port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
		}
		cfg.Port = port
	}

	if v := get("STORAGE_TYPE"); v != "" {
		cfg.StorageType = strings.ToLower(v)
	}
	cfg.RedisURL = get("REDIS_URL")
	cfg.RedisKeyPrefix = get("REDIS_KEY_PREFIX")
	cfg.DatabaseURL = get("DATABASE_URL")

	switch cfg.StorageType {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
		}
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or postgres", cfg.StorageType)
	}

	if v := get("RANK_POLICY"); v != "" {
		cfg.RankPolicy = strings.ToLower(v)
	}
	cfg.SeedFile = get("SEED_FILE")

	if v := get("SESSION_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SESSION_DURATION: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("SESSION_DURATION must be positive, got %s", d)
		}
		cfg.SessionDuration = d
	}

	if v := get("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}
