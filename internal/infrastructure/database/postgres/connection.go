package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"library-engine/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName       = "library-engine"
	defaultMaxConns       = 10
	defaultConnectTimeout = 5 * time.Second
)

var errEmptyURL = errors.New("database URL is empty in configuration")

// NewConnectionPool opens a pool on cfg.URL and pings it once before returning.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger = defaultLogger(logger, "NewConnectionPool").With("component", "postgres")

	poolConfig, err := configurePool(cfg)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Connecting to PostgreSQL...", "host", poolConfig.ConnConfig.Host, "db", poolConfig.ConnConfig.Database)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg))
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.ErrorContext(ctx, "Failed to ping database", slog.Any("error", err))
		return nil, fmt.Errorf("failed to ping database on connect: %w", err)
	}

	logger.InfoContext(ctx, "Connected to PostgreSQL.", "maxConns", poolConfig.MaxConns)
	return pool, nil
}

func configurePool(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg.URL == "" {
		return nil, errEmptyURL
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = defaultMaxConns
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout(cfg)
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolConfig, nil
}

func connectTimeout(cfg config.DatabaseConfig) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return defaultConnectTimeout
}
