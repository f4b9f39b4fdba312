package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/dartleague/internal/api"
	"github.com/mcoot/dartleague/internal/api/sse"
	"github.com/mcoot/dartleague/internal/config"
	"github.com/mcoot/dartleague/internal/dependencies/clock"
	"github.com/mcoot/dartleague/internal/dependencies/idgen"
	"github.com/mcoot/dartleague/internal/seed"
	"github.com/mcoot/dartleague/internal/services/auth"
	"github.com/mcoot/dartleague/internal/services/confirmation"
	"github.com/mcoot/dartleague/internal/services/leaderboard"
	"github.com/mcoot/dartleague/internal/services/roster"
	"github.com/mcoot/dartleague/internal/services/schedule"
	"github.com/mcoot/dartleague/internal/services/standings"
	"github.com/mcoot/dartleague/internal/storage"
	"github.com/mcoot/dartleague/internal/storage/memory"
	"github.com/mcoot/dartleague/internal/storage/postgres"
	redisstorage "github.com/mcoot/dartleague/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	IDs    idgen.Generator
	Logger *slog.Logger

	// Services
	AuthService        *auth.Service
	RosterService      *roster.Service
	ScheduleService    *schedule.Service
	LeaderboardService *leaderboard.Service
	ConfirmationEngine *confirmation.Engine
	StandingsUpdater   *standings.Updater
	History            *standings.History

	// Live event stream shared by all API clients
	Events *sse.Hub

	closer io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds database settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// RankPolicy names the ordering used when a week is advanced. Defaults to manual.
	RankPolicy string
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// SeedFile is loaded into the store when it has no players (optional)
	SeedFile string
}

// ConfigFrom maps environment configuration onto factory configuration
func ConfigFrom(cfg config.Config, logger *slog.Logger) Config {
	out := Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		RankPolicy:  cfg.RankPolicy,
		AuthConfig:  auth.Config{SessionDuration: cfg.SessionDuration},
		SeedFile:    cfg.SeedFile,
	}

	switch cfg.StorageType {
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		if cfg.RedisKeyPrefix != "" {
			redisCfg.KeyPrefix = cfg.RedisKeyPrefix
		}
		out.RedisConfig = &redisCfg
	case config.StoragePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.DatabaseURL
		out.PostgresConfig = &pgCfg
	}
	return out
}

// New creates a new application with all dependencies wired. Postgres is
// migrated and the seed file applied before New returns.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	policy, err := leaderboard.PolicyByName(cfg.RankPolicy)
	if err != nil {
		return nil, err
	}

	store, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), idgen.New(), policy, cfg.AuthConfig, logger)
	app.closer = closer

	if cfg.SeedFile != "" {
		if err := app.applySeed(ctx, cfg.SeedFile); err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	logger.Info("application ready",
		slog.String("storage", storageName(cfg.StorageType)),
		slog.String("rank_policy", policy.Name()),
	)
	return app, nil
}

func storageName(t string) string {
	if t == "" {
		return config.StorageMemory
	}
	return t
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, io.Closer, error) {
	switch storageName(cfg.StorageType) {
	case config.StorageMemory:
		return memory.New(), nil, nil
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StoragePostgres:
		if cfg.PostgresConfig == nil {
			return nil, nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		store, err := postgres.New(*cfg.PostgresConfig)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid StorageType %q: must be memory, redis or postgres", cfg.StorageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	ids idgen.Generator,
	policy leaderboard.Policy,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, ids, authCfg)

	events := sse.NewHub(logger)
	go events.Run()

	return &App{
		Storage:            store,
		Clock:              clk,
		IDs:                ids,
		Logger:             logger,
		AuthService:        authService,
		RosterService:      roster.New(store, authService, clk, ids, logger),
		ScheduleService:    schedule.New(store, clk, ids, logger),
		LeaderboardService: leaderboard.New(store, policy, clk, logger),
		ConfirmationEngine: confirmation.New(store, clk, logger),
		StandingsUpdater:   standings.NewUpdater(store, clk, logger),
		History:            standings.NewHistory(store),
		Events:             events,
	}
}

func (a *App) applySeed(ctx context.Context, path string) error {
	f, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, f, a.RosterService, a.LeaderboardService, a.ScheduleService)
	if err != nil {
		return err
	}
	if res.Players == 0 {
		a.Logger.Info("seed skipped, league already has players", slog.String("file", path))
		return nil
	}
	a.Logger.Info("league seeded",
		slog.String("file", path),
		slog.Int("players", res.Players),
		slog.Int("matches", res.Matches),
	)
	return nil
}

// RouterConfig returns the API router configuration for this app
func (a *App) RouterConfig() api.RouterConfig {
	return api.RouterConfig{
		Logger:             a.Logger,
		AuthService:        a.AuthService,
		RosterService:      a.RosterService,
		ScheduleService:    a.ScheduleService,
		LeaderboardService: a.LeaderboardService,
		ConfirmationEngine: a.ConfirmationEngine,
		StandingsUpdater:   a.StandingsUpdater,
		History:            a.History,
		Events:             a.Events,
	}
}

// Close stops the event stream and releases the storage connection, if any
func (a *App) Close() error {
	a.Events.Close()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
