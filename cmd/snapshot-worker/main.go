package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/khuong2924/smart-order/internal/availability"
	"github.com/khuong2924/smart-order/internal/config"
	"github.com/khuong2924/smart-order/internal/db"
	"github.com/khuong2924/smart-order/internal/logger"
	"github.com/khuong2924/smart-order/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Setup(cfg.LogLevel, cfg.AppEnv)

	if cfg.Database.URL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	if !cfg.Storage.Enabled() {
		log.Fatal().Msg("R2_BUCKET_NAME is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgDB, err := db.ConnectPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres")
	}
	defer pgDB.Close()

	r2Client, err := storage.NewR2Client(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("r2 init failed")
	}

	service := availability.NewService(availability.NewPostgresRepository(pgDB), r2Client)

	log.Info().Dur("interval", cfg.SnapshotInterval).Msg("snapshot worker running")

	ticker := time.NewTicker(cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("snapshot worker stopped")
			return
		case <-ticker.C:
			res, err := service.ExportSnapshot(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Warn().Err(err).Msg("snapshot export failed")
				continue
			}
			log.Debug().Str("url", res.URL).Msg("snapshot written")
		}
	}
}
