package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appconfig "payment_binder/internal/config"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// ConnectPostgres opens the connection pool and pings the server.
func ConnectPostgres(ctx context.Context, cfg appconfig.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established", zap.String("connection", cfg.LogString()))
	return db, nil
}
