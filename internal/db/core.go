package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool health checks run often enough that a failover is noticed before
// the next sweep page is read.
const healthCheckPeriod = 30 * time.Second

// PoolConfig parses databaseURL and tags connections with appName so the
// API and the worker can be told apart in pg_stat_activity. Settings given
// in the URL win.
func PoolConfig(databaseURL, appName string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse core db config: %w", err)
	}

	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok && appName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = appName
	}
	cfg.HealthCheckPeriod = healthCheckPeriod
	return cfg, nil
}

// NewCorePool connects to the database holding mail_domains.
func NewCorePool(ctx context.Context, databaseURL, appName string) (*pgxpool.Pool, error) {
	cfg, err := PoolConfig(databaseURL, appName)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create core db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping core db: %w", err)
	}

	return pool, nil
}
