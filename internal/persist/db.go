package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthfall/settlement/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// connectPostgres opens a pgx pool sized from cfg and pings it once.
func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(max(cfg.MaxOpenConns, 1))
	poolCfg.MinConns = int32(min(max(cfg.MaxIdleConns, 0), max(cfg.MaxOpenConns, 1)))
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to save db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping save db: %w", err)
	}
	return pool, nil
}

// Open connects the store selected by cfg.Driver and brings its schema up
// to date. It returns a nil Store when persistence is disabled ("none").
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("save store ready", zap.String("driver", "postgres"), zap.Int32("max_conns", pool.Config().MaxConns))
		return NewPGStore(pool), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("save store ready", zap.String("driver", "sqlite"), zap.String("path", cfg.SQLitePath))
		return s, nil
	case "none", "":
		log.Info("persistence disabled")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
