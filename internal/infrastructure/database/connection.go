package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/vetolabs/veto-backend/internal/infrastructure/config"
)

// Connection wraps the pgx pool together with a database/sql view of it
// for the repository layer.
type Connection struct {
	Pool   *pgxpool.Pool
	DB     *sql.DB
	logger *zap.Logger
}

// Connect establishes the Postgres connection pool and verifies it with a
// ping before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("database connected",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Duration("conn_max_lifetime", cfg.ConnMaxLifetime))

	return &Connection{Pool: pool, DB: db, logger: logger}, nil
}

// Close shuts down the pool. The sql.DB view shares the pool and must not
// be closed separately.
func (c *Connection) Close() {
	c.Pool.Close()
	c.logger.Info("database connection closed")
}

// Health checks connectivity within the given context.
func (c *Connection) Health(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}
