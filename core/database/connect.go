package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/avtobot/core/logger"
)

// Connect opens the pool, retrying until the server answers or ctx expires.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	start := time.Now()
	var (
		db      *sqlx.DB
		err     error
		attempt int
	)
	for {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		db, err = sqlx.ConnectContext(pingCtx, "postgres", cfg.DSN())
		cancel()
		if err == nil {
			break
		}
		logger.DB.Warn("db connect attempt failed",
			slog.String("event", "db.connect"),
			slog.String("status", "retry"),
			slog.String("host", cfg.Host),
			slog.String("db", cfg.Name),
			slog.Int("attempts", attempt),
			logger.Err(err),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect: %w", err)
		case <-time.After(2 * time.Second):
		}
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("status", "ok"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("attempts", attempt),
		slog.Duration("duration", logger.Took(start)),
	)
	return db, nil
}
