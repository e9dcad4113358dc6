package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingo-app/lingo-backend/pkg/logger"
)

// PoolConfig contains connection pool tuning
type PoolConfig struct {
	MaxConns          int
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolConfig returns the default pool tuning
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxConns:          25,
		ConnMaxLifetime:   1 * time.Hour,
		ConnMaxIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

// DB wraps a pgx connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new connection pool and verifies connectivity
func NewDB(ctx context.Context, connString string, poolConfig *PoolConfig) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	if poolConfig == nil {
		poolConfig = DefaultPoolConfig()
	}

	config.MaxConns = int32(poolConfig.MaxConns)
	config.MaxConnLifetime = poolConfig.ConnMaxLifetime
	config.MaxConnIdleTime = poolConfig.ConnMaxIdleTime
	config.HealthCheckPeriod = poolConfig.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	db.Pool.Close()
	logger.Info("Database connection pool closed")
}
