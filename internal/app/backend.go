package app

import (
	"context"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/bookmarker/internal/auth"
	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/config"
	"github.com/MrSnakeDoc/bookmarker/internal/connect"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	redisconn "github.com/MrSnakeDoc/bookmarker/internal/redis"
	"github.com/MrSnakeDoc/bookmarker/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarker/internal/session"
	"github.com/MrSnakeDoc/bookmarker/internal/store/memory"
	"github.com/MrSnakeDoc/bookmarker/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/bookmarker/internal/store/redis"
	"github.com/MrSnakeDoc/bookmarker/internal/store/supabase"
)

// backend is the storage driver selected by configuration.
type backend struct {
	name      string
	directory auth.Directory
	repo      bookmarks.Repository
	slots     session.SlotStore
	storage   deps.Pinger

	// Sweepers for the collector; nil when the driver keeps integrity itself.
	orphans scheduler.OrphanSweeper
	expired scheduler.SlotSweeper

	closer io.Closer
}

func retryPolicy(cfg *config.Config) connect.Policy {
	return connect.Policy{
		Timeout:       cfg.ConnectTimeout,
		RetryInterval: cfg.RetryInterval,
		MaxWait:       cfg.MaxWait,
		PingTimeout:   cfg.PingTimeout,
		WarnThreshold: cfg.WarnThreshold,
	}
}

// openBackend connects the configured driver. Drivers that cannot hold
// session slots themselves get an in-memory slot store.
func openBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client, err := redisconn.New(ctx, redisconn.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry:        retryPolicy(cfg),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		store := redisstore.NewStore(client)
		return &backend{
			name:      cfg.Backend,
			directory: auth.NewLocalDirectory(store),
			repo:      store,
			slots:     store,
			storage:   store,
			orphans:   store,
			closer:    client,
		}, nil

	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN, retryPolicy(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info("postgres schema up to date")

		slots := memory.NewStore()
		return &backend{
			name:      cfg.Backend,
			directory: auth.NewLocalDirectory(store),
			repo:      store,
			slots:     slots,
			storage:   store,
			expired:   slots,
			closer:    store,
		}, nil

	case config.BackendSupabase:
		client := supabase.New(supabase.Config{
			URL:        cfg.SupabaseURL,
			AnonKey:    cfg.SupabaseAnonKey,
			ServiceKey: cfg.SupabaseServiceKey,
			Timeout:    cfg.SupabaseTimeout,
		}, log)
		if err := connect.Retry(ctx, "supabase", cfg.SupabaseURL, retryPolicy(cfg), client.Ping, log); err != nil {
			return nil, fmt.Errorf("failed to reach supabase: %w", err)
		}
		if cfg.SupabaseServiceKey == "" {
			log.Warn("no supabase service key, user management is disabled")
		}

		slots := memory.NewStore()
		return &backend{
			name:      cfg.Backend,
			directory: client,
			repo:      client,
			slots:     slots,
			storage:   client,
			expired:   slots,
		}, nil

	case config.BackendMemory:
		store := memory.NewStore()
		log.Warn("memory backend selected, data is lost on restart")
		return &backend{
			name:      cfg.Backend,
			directory: auth.NewLocalDirectory(store),
			repo:      store,
			slots:     store,
			storage:   store,
			orphans:   store,
			expired:   store,
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
