package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"studio-system/internal/listeners"
	"studio-system/internal/repositories"
	"studio-system/internal/services"
	"studio-system/pkg/config"
	"studio-system/pkg/database/postgresql"
	"studio-system/pkg/eventbus"
	applogger "studio-system/pkg/logger"
)

// runtime bundles the connections and services every command needs.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *pgxpool.Pool
	redis    *redis.Client
	bus      *eventbus.Bus
	registry *services.Registry
}

func newLogger() (*config.Config, *zap.Logger) {
	cfg := config.New()
	return cfg, applogger.NewLogger(cfg.Log)
}

func connectDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	return postgresql.ConnectDB(ctx, cfg.Postgres, logger)
}

// newRuntime connects PostgreSQL and Redis, wires the event listeners and
// builds the services.
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, logger := newLogger()

	db, err := connectDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Redis.Address, err)
	}
	cache := repositories.NewRedisCacheRepository(redisClient)

	bus := eventbus.New(logger.Named("events"))
	listeners.NewCacheListener(cache, logger.Named("cache")).Register(bus)
	listeners.NewAuditListener(logger).Register(bus)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		bus:      bus,
		registry: services.NewRegistry(db, cache, bus, cfg, logger),
	}, nil
}

// Close waits for in-flight listeners before dropping the connections.
func (r *runtime) Close() {
	r.bus.Wait()
	if err := r.redis.Close(); err != nil {
		r.logger.Warn("closing redis", zap.Error(err))
	}
	r.db.Close()
	r.logger.Sync() //nolint:errcheck
}
