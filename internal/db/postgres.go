package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/khuong2924/smart-order/internal/config"
)

func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL not set")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	log.Info().Str("host", poolConfig.ConnConfig.Host).Msg("connected to postgres")

	if err := InitSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return pool, nil
}

// InitSchema creates or updates the database schema
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {

	// -------------------------------
	// MENU ITEM AVAILABILITY
	// -------------------------------
	// available is nullable: NULL means no value has been reported
	availabilitySQL := `
		CREATE TABLE IF NOT EXISTS menu_item_availability (
			menu_item_id BIGINT PRIMARY KEY,
			available BOOLEAN NULL,
			updated_by TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := pool.Exec(ctx, availabilitySQL); err != nil {
		return err
	}

	indexSQL := `
		CREATE INDEX IF NOT EXISTS idx_menu_item_availability_available
		ON menu_item_availability (available)
	`
	if _, err := pool.Exec(ctx, indexSQL); err != nil {
		return err
	}

	log.Info().Msg("schema initialized")
	return nil
}
