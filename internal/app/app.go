// Package app wires the planning services onto PostgreSQL and Redis.
// Both cmd/server and cmd/worker build their object graph through it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lumpiah/internal/config"
	"lumpiah/internal/domain/forecast"
	"lumpiah/internal/domain/production"
	"lumpiah/internal/infrastructure/cache"
	"lumpiah/internal/infrastructure/lock"
	"lumpiah/internal/infrastructure/storage/postgres"
	"lumpiah/internal/infrastructure/storage/postgres/catalog_repo"
	"lumpiah/internal/infrastructure/storage/postgres/forecast_repo"
	"lumpiah/internal/infrastructure/storage/postgres/production_repo"
	"lumpiah/internal/infrastructure/storage/postgres/sales_repo"
	"lumpiah/pkg/logger"
)

// Config selects the backing stores.
type Config struct {
	DatabaseURL string
	MaxConns    int32

	// RedisAddress enables the generation lock. Empty disables it.
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	WeightCacheEnabled bool

	GenerationMaxWait time.Duration
	GenerationTimeout time.Duration
}

// App holds the wired services.
type App struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Redis     *redis.Client

	WeightCache *cache.WeightCache
	Branches    *catalog_repo.BranchRepo
	Audit       *postgres.AuditService

	Configs    *forecast.ConfigService
	Forecasts  *forecast.Service
	Production *production.Service
}

// New connects to the stores and builds the services.
func New(ctx context.Context, cfg Config) (*App, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &App{Pool: pool, TxManager: postgres.NewTxManager(pool)}

	audit, err := postgres.NewAuditService(a.TxManager)
	if err != nil {
		pool.Close()
		return nil, err
	}
	a.Audit = audit

	var locker production.Locker
	if cfg.RedisAddress != "" {
		rdb, err := lock.Connect(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// The lock only reduces contention; run without it.
			logger.Warn(ctx, "redis unavailable, plan generation lock disabled",
				"address", cfg.RedisAddress, "error", err)
		} else {
			a.Redis = rdb
			locker = lock.NewRedisLocker(rdb)
		}
	}

	var weights forecast.ConfigRepository = forecast_repo.NewWeightRepo(a.TxManager)
	if cfg.WeightCacheEnabled {
		a.WeightCache = cache.NewWeightCache(weights, pool.Unwrap(), forecast_repo.ChangeChannel)
		weights = a.WeightCache
	}

	sales := sales_repo.NewSalesRepo(a.TxManager)
	a.Branches = catalog_repo.NewBranchRepo(a.TxManager)
	a.Configs = forecast.NewConfigService(weights)
	a.Forecasts = forecast.NewService(a.Configs, sales)
	a.Production = production.NewService(production.ServiceConfig{
		Products:          catalog_repo.NewProductRepo(a.TxManager),
		Plans:             production_repo.NewPlanRepo(a.TxManager),
		Sales:             sales,
		Forecaster:        a.Forecasts,
		TxManager:         a.TxManager,
		Events:            postgres.NewOutboxPublisher(a.TxManager),
		Audit:             audit,
		Locker:            locker,
		GenerationMaxWait: cfg.GenerationMaxWait,
		GenerationTimeout: cfg.GenerationTimeout,
	})

	return a, nil
}

// Start runs background listeners.
func (a *App) Start(ctx context.Context) error {
	if a.WeightCache != nil {
		if err := a.WeightCache.Start(ctx); err != nil {
			return fmt.Errorf("start weight cache: %w", err)
		}
	}
	return nil
}

// Close stops listeners and releases connections.
func (a *App) Close() {
	if a.WeightCache != nil {
		a.WeightCache.Stop()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}

// ConfigFromEnv reads Config from the process environment.
func ConfigFromEnv() Config {
	return Config{
		DatabaseURL:        config.MustEnv("DATABASE_URL"),
		MaxConns:           int32(config.GetEnvInt("DB_MAX_CONNS", 25)),
		RedisAddress:       config.GetEnv("REDIS_ADDRESS", ""),
		RedisPassword:      config.GetEnv("REDIS_PASSWORD", ""),
		RedisDB:            config.GetEnvInt("REDIS_DB", 0),
		WeightCacheEnabled: config.GetEnvBool("WEIGHT_CACHE_ENABLED", true),
		GenerationMaxWait:  config.GetEnvDuration("PLAN_TX_MAX_WAIT", production.DefaultGenerationMaxWait),
		GenerationTimeout:  config.GetEnvDuration("PLAN_TX_TIMEOUT", production.DefaultGenerationTimeout),
	}
}
