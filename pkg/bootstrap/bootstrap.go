// Package bootstrap holds the start-up helpers shared by the service binaries.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unabstore/shop/pkg/config"
	"github.com/unabstore/shop/pkg/logger"
)

// NewLogger creates a new slog.Logger instance with the specified log level.
// Records are written as JSON to stdout and enriched with trace and request IDs.
func NewLogger(level string) *slog.Logger {
	return newLogger(os.Stdout, level)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	logLevel := toLevel(level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	logHandler := slog.NewJSONHandler(w, loggerOpts)
	return slog.New(logger.NewContextHandler(logHandler))
}

// NewDbPool opens a connection pool and pings the database, so a wrong URL fails at start-up.
// appName is reported to PostgreSQL as application_name.
func NewDbPool(ctx context.Context, cfg config.DatabaseConfig, appName string) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg, appName)
	if err != nil {
		return nil, err
	}
	poolCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	dbPool, err := pgxpool.NewWithConfig(poolCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if err := dbPool.Ping(poolCtx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbPool, nil
}

func poolConfig(cfg config.DatabaseConfig, appName string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL %s: %w", config.MaskURL(cfg.URL), err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout
	if appName != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = appName
	}
	return poolCfg, nil
}

// toLevel converts a string representation of a log level to slog.Level.
func toLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
