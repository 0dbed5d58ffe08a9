package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskflow/internal/config"
	boltInfra "github.com/fastygo/taskflow/internal/infrastructure/bolt"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskflow/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskflow/internal/infrastructure/redis"
	"github.com/fastygo/taskflow/internal/services/lifecycle"
	"github.com/fastygo/taskflow/repository"
	boltRepo "github.com/fastygo/taskflow/repository/bolt"
	"github.com/fastygo/taskflow/repository/memory"
	"github.com/fastygo/taskflow/repository/postgres"
	redisRepo "github.com/fastygo/taskflow/repository/redis"
)

type stores struct {
	tasks repository.TaskRepository
	users repository.UserRepository
}

// openStores connects the configured driver, registers its health probe and
// its shutdown hook.
func openStores(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, manager *lifecycle.Manager, mon *monitor.Monitor) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		mon.Register("postgresql", pool.Ping)
		return &stores{
			tasks: postgres.NewTaskRepository(pool),
			users: postgres.NewUserRepository(pool),
		}, nil

	case config.DriverRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		manager.Register("redis", func(ctx context.Context) error {
			return client.Close()
		})
		mon.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		return &stores{
			tasks: redisRepo.NewTaskRepository(client),
			users: redisRepo.NewUserRepository(client),
		}, nil

	case config.DriverBolt:
		db, err := boltInfra.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, err
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return db.Close()
		})
		mon.Register("bolt", func(ctx context.Context) error {
			return boltInfra.Ping(db)
		})
		return &stores{
			tasks: boltRepo.NewTaskRepository(db),
			users: boltRepo.NewUserRepository(db),
		}, nil

	case config.DriverMemory:
		zapLogger.Warn("using in-memory store; data is lost on restart")
		store := memory.New()
		return &stores{tasks: store.Tasks(), users: store.Users()}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
