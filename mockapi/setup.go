package mockapi

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"prism-todos/config"
)

// Build assembles the backend chain described by cfg: the storage backend,
// an optional Redis read-through cache in front of Azure Tables, and an
// optional change feed. The returned cleanup releases client connections.
func Build(ctx context.Context, cfg config.Mock, logger *log.Logger) (Backend, func(), error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	cleanup := func() {}

	var rc *redis.Client
	if cfg.RedisConn != "" {
		rc = redis.NewClient(config.RedisOptions(cfg.RedisConn))
		cleanup = func() { _ = rc.Close() }
	}

	var backend Backend
	switch cfg.Backend {
	case config.BackendMemory:
		backend = NewMemoryBackend(nil)
	case config.BackendRedis:
		if rc == nil {
			return nil, cleanup, fmt.Errorf("redis backend requires REDIS_CONNECTION_STRING")
		}
		backend = NewRedisBackend(rc)
	case config.BackendTables:
		tb, err := NewTablesBackend(ctx, cfg.StorageConn, cfg.TasksTable)
		if err != nil {
			return nil, cleanup, fmt.Errorf("tables backend: %w", err)
		}
		backend = tb
		if rc != nil {
			backend = NewCache(backend, rc, cfg.CacheTTL)
		}
	default:
		return nil, cleanup, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.ChangeQueue != "" {
		if cfg.StorageConn == "" {
			return nil, cleanup, fmt.Errorf("change feed requires STORAGE_CONNECTION_STRING")
		}
		q, err := NewChangeQueue(ctx, cfg.StorageConn, cfg.ChangeQueue)
		if err != nil {
			return nil, cleanup, fmt.Errorf("change queue: %w", err)
		}
		backend = NewChangeFeed(backend, q, logger)
	}

	if cfg.SeedCount > 0 {
		if seeder, ok := backend.(Seeder); ok {
			if err := seeder.Seed(ctx, SeedTasks(cfg.SeedCount)); err != nil {
				return nil, cleanup, fmt.Errorf("seed: %w", err)
			}
		}
	}

	logger.WithFields(log.Fields{
		"backend":      cfg.Backend,
		"cache":        rc != nil && cfg.Backend == config.BackendTables,
		"change_queue": cfg.ChangeQueue,
		"seeded":       cfg.SeedCount,
	}).Info("todos.mock.backend_ready")
	return backend, cleanup, nil
}
