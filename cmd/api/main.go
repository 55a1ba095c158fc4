package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/khuong2924/smart-order/internal/auth"
	"github.com/khuong2924/smart-order/internal/availability"
	"github.com/khuong2924/smart-order/internal/config"
	"github.com/khuong2924/smart-order/internal/db"
	"github.com/khuong2924/smart-order/internal/logger"
	"github.com/khuong2924/smart-order/internal/router"
	"github.com/khuong2924/smart-order/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run() error {
	// ───────────────────────── CONFIG ─────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Setup(cfg.LogLevel, cfg.AppEnv)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ───────────────────────── STORE ─────────────────────────
	var repo availability.Repository
	if cfg.Database.URL != "" {
		pgDB, err := db.ConnectPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pgDB.Close()
		repo = availability.NewPostgresRepository(pgDB)
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory availability store")
		repo = availability.NewMemoryRepository()
	}

	// ───────────────────────── SNAPSHOT STORAGE ─────────────────────────
	var snapshots availability.Storage
	if cfg.Storage.Enabled() {
		r2Client, err := storage.NewR2Client(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("r2 init failed: %w", err)
		}
		snapshots = r2Client
	}

	// ───────────────────────── AUTH ─────────────────────────
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	// ───────────────────────── HTTP ─────────────────────────
	service := availability.NewService(repo, snapshots)
	r := router.NewRouter(router.Options{
		Availability: availability.NewHandler(service),
		Tokens:       tokens,
		CORSOrigins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("API running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
