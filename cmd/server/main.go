package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogo/internal/config"
	"catalogo/internal/infra"
	"catalogo/internal/router"
	"catalogo/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownGrace = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config: load failed")
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("catalogo stopped")
	}
	log.Info().Msg("catalogo stopped cleanly")
}

// setupLogger prints human-readable logs in development and JSON otherwise.
func setupLogger(cfg *config.Config) {
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := infra.NewDatabase(cfg)
	if err != nil {
		return fmt.Errorf("database (%s): %w", cfg.DBDriver, err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := infra.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: product cache and image queue disabled")
	} else {
		defer rdb.Close()
	}

	storage := infra.NewFileStorage(cfg.UploadPath, cfg.MaxUploadMB)
	worker.NewPool(rdb, map[string]worker.Processor{
		worker.JobEliminarImagen: worker.NewImagenWorker(storage),
	}).Start(ctx, cfg.WorkerPoolSize)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.New(cfg, db, rdb, storage),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("catalogo listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
