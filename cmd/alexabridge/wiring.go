package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa/directive"
	"github.com/nerrad567/gray-logic-alexa/internal/alexa/discovery"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/openhab"
	"github.com/nerrad567/gray-logic-alexa/internal/settings"
	"github.com/nerrad567/gray-logic-alexa/migrations"
)

// redisDialTimeout bounds the initial Redis ping.
const redisDialTimeout = 5 * time.Second

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(path string) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logging.New(cfg.Logging, version), nil
}

// openDatabase opens SQLite and applies the embedded migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // best effort on the error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// settingsBackend is the selected user-settings store plus its lifecycle
// hooks. health and close are nil for the SQLite backend, whose database
// is checked and closed on its own.
type settingsBackend struct {
	store  settings.Store
	health func(context.Context) error
	close  func() error
}

func openSettings(ctx context.Context, cfg *config.Config, db *database.DB) (settingsBackend, error) {
	switch cfg.Settings.Backend {
	case config.BackendRedis:
		rs, err := settings.OpenRedis(ctx, settings.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: redisDialTimeout,
		})
		if err != nil {
			return settingsBackend{}, fmt.Errorf("connecting to Redis: %w", err)
		}
		return settingsBackend{store: rs, health: rs.HealthCheck, close: rs.Close}, nil
	default:
		return settingsBackend{store: settings.NewSQLiteStore(db.DB)}, nil
	}
}

func newOpenHABClient(cfg *config.Config) (*openhab.Client, error) {
	client, err := openhab.NewClient(openhab.Config{
		BaseURL:   cfg.OpenHAB.BaseURL,
		Timeout:   cfg.OpenHABTimeout(),
		UserAgent: cfg.OpenHAB.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("creating openHAB client: %w", err)
	}
	return client, nil
}

// newDispatcher wires the discovery engine and the dispatcher around one
// openHAB client. grants and observer may be nil.
func newDispatcher(client *openhab.Client, grants directive.GrantStore, observer directive.Observer, log *logging.Logger) *directive.Dispatcher {
	engine := discovery.New(client)
	engine.SetLogger(log.Component("discovery"))

	return directive.New(directive.Deps{
		Items:      client,
		Discoverer: engine,
		Grants:     grants,
		Observer:   observer,
		Logger:     log.Component("directive"),
	})
}
