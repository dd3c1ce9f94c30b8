package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nourhamdy/ordermgmt/internal/infrastructure/config"
	"github.com/nourhamdy/ordermgmt/internal/infrastructure/observability"
	infraRedis "github.com/nourhamdy/ordermgmt/internal/infrastructure/redis"
	"github.com/nourhamdy/ordermgmt/internal/repository/postgres"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App bundles the shared process-level dependencies: config, logger,
// metrics, and connections to Postgres and Redis.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
}

// New loads configuration and brings up every backing connection. A
// failing tracer is logged and skipped; a failing database or Redis
// connection aborts startup.
func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	if cfg.Observability.EnableTracing {
		startTracing(ctx, logger, serviceName, cfg.Observability.JaegerEndpoint)
	}

	metrics := observability.NewMetrics(metricsNamespace, nil)

	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("Connected to PostgreSQL")

	redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Metrics: metrics,
	}, nil
}

// startTracing initializes the tracer provider and flushes it once ctx
// is cancelled. Tracing is best-effort.
func startTracing(ctx context.Context, logger zerolog.Logger, serviceName, endpoint string) {
	tp, err := observability.InitTracer(serviceName, endpoint)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		return
	}
	go func() {
		<-ctx.Done()
		if err := observability.Shutdown(context.Background(), tp); err != nil {
			logger.Warn().Err(err).Msg("Tracer shutdown failed")
		}
	}()
	logger.Info().Msg("Tracing enabled")
}

// Close releases the connections the App holds.
func (a *App) Close() {
	if err := a.Redis.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Closing redis client failed")
	}
	a.Pool.Close()
}
