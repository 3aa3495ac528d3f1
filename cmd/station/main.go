package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vuhoangviet271/packing-video-app/internal/config"
	"github.com/vuhoangviet271/packing-video-app/internal/infra"
	"github.com/vuhoangviet271/packing-video-app/internal/repository"
	"github.com/vuhoangviet271/packing-video-app/internal/router"
	"github.com/vuhoangviet271/packing-video-app/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	store, err := infra.NewDiskStore(cfg.VideoStoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare video storage")
	}

	// With no capture input configured the station runs scan-only: sessions
	// with an empty capture are discarded without a ledger entry.
	var capture infra.CaptureDevice = infra.NewNoopCapture()
	if cfg.CaptureInput != "" {
		capture = infra.NewFFmpegCapture(cfg.FFmpegBin, cfg.CaptureInput)
		log.Info().Str("input", cfg.CaptureInput).Msg("ffmpeg capture enabled")
	} else {
		log.Warn().Msg("no capture input configured, running scan-only")
	}

	// Worker pool consumes failed-save breadcrumbs enqueued by the engine.
	// Handlers are wired here (composition root) so the pool has full access
	// to the infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := worker.NewDispatcher(rdb)
	workerHandlers := &worker.WorkerHandlers{
		Reconciliation: worker.NewReconciliationWorker(repository.NewReconciliationRepository(db)),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	r := router.New(cfg, db, rdb, capture, store, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("packing station agent listening on :%d (mode=%s)", cfg.Port, cfg.StationMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
