// Package main is the entrypoint for the claim pipeline service.
//
// The service supports three operational modes via the --mode flag:
//   - ingest: Telegram ingestion sources (bot API and MTProto channel
//     reader) feeding the first-sighting detection pipeline
//   - worker: periodic re-verification of clusters still marked unknown
//   - http: standalone health/readiness/metrics server
//
// Example:
//
//	go run ./cmd/claimpipeline --mode=worker
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/app"
	"github.com/clarity-project/claimpipeline/internal/config"
	"github.com/clarity-project/claimpipeline/internal/storage/claimstore"
)

const (
	modeIngest = "ingest"
	modeWorker = "worker"
	modeHTTP   = "http"
	flagMode   = "mode"
)

func main() {
	mode := flag.String(flagMode, "", "Service mode (ingest, worker, http)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := claimstore.New(ctx, cfg.PostgresDSN, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application, err := app.New(cfg, store, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	defer application.Persist()

	// Every mode but http runs its own health server in the background;
	// http mode IS the health server.
	if *mode != modeHTTP {
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode, &logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, logger *zerolog.Logger) error {
	switch mode {
	case modeIngest:
		return application.RunIngest(ctx)
	case modeWorker:
		return application.RunWorker(ctx)
	case modeHTTP:
		return application.RunHTTP(ctx)
	default:
		logger.Fatal().Str(flagMode, mode).Msg("invalid service mode")

		return nil
	}
}
