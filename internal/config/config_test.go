package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultsWhenNothingSet(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, "manual", cfg.RankPolicy)
}

func TestReadsAllVariables(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PORT":             "9090",
		"STORAGE_TYPE":     "Postgres",
		"DATABASE_URL":     "postgres://localhost/league",
		"RANK_POLICY":      "record",
		"SEED_FILE":        "seed.yaml",
		"SESSION_DURATION": "2h",
		"LOG_LEVEL":        "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.StorageType)
	assert.Equal(t, "postgres://localhost/league", cfg.DatabaseURL)
	assert.Equal(t, "record", cfg.RankPolicy)
	assert.Equal(t, "seed.yaml", cfg.SeedFile)
	assert.Equal(t, 2*time.Hour, cfg.SessionDuration)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestReadsRedisSettings(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"STORAGE_TYPE":     "redis",
		"REDIS_URL":        "redis://cache:6379/2",
		"REDIS_KEY_PREFIX": "league-b",
	}))
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, "league-b", cfg.RedisKeyPrefix)
}

func TestRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port not a number", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"unknown storage", map[string]string{"STORAGE_TYPE": "sqlite"}},
		{"redis without url", map[string]string{"STORAGE_TYPE": "redis"}},
		{"postgres without url", map[string]string{"STORAGE_TYPE": "postgres"}},
		{"bad duration", map[string]string{"SESSION_DURATION": "soon"}},
		{"negative duration", map[string]string{"SESSION_DURATION": "-1h"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("RANK_POLICY=record\n"), 0o600))

	t.Setenv("RANK_POLICY", "")
	require.NoError(t, os.Unsetenv("RANK_POLICY"))
	t.Setenv("STORAGE_TYPE", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "record", cfg.RankPolicy)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7000\n"), 0o600))

	t.Setenv("PORT", "7100")
	t.Setenv("STORAGE_TYPE", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
}
