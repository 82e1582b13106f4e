// Package main provides the headless scan worker entry point for the wallet
// radar service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wallet-radar/internal/config"
	"github.com/wallet-radar/internal/exchange"
	"github.com/wallet-radar/internal/logging"
	"github.com/wallet-radar/internal/service"
	"github.com/wallet-radar/internal/storage"
	"github.com/wallet-radar/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(cfg.Logging)
	log.Info().Msg("wallet radar scan worker starting")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := clickhouse.EnsureSchema(bootCtx); err != nil {
		bootCancel()
		log.Fatal().Err(err).Msg("failed to ensure ClickHouse schema")
	}
	bootCancel()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redis.Close()

	walletRepo := storage.NewWalletRepository(postgres)
	tradeRepo := storage.NewTradeRepository(clickhouse)
	portfolioRepo := storage.NewPortfolioRepository(postgres)

	exchangeClient := exchange.NewClient(&cfg.Exchange)

	ingestService := service.NewIngestService(
		exchangeClient,
		walletRepo,
		tradeRepo,
		cfg.Pipeline.FillLookback,
		cfg.Pipeline.MaxConcurrency,
	)
	analyticsService := service.NewAnalyticsService(
		walletRepo,
		tradeRepo,
		portfolioRepo,
		redis,
		cfg.Pipeline.FillLookback,
		cfg.Pipeline.MaxConcurrency,
	)

	scanWorker, err := worker.NewScanWorker(&worker.ScanWorkerConfig{
		Ingest:   ingestService,
		Pipeline: analyticsService,
		Interval: cfg.Pipeline.ScanInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scan worker")
	}
	if err := scanWorker.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start scan worker")
	}

	log.Info().Dur("interval", cfg.Pipeline.ScanInterval).Msg("scan worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := scanWorker.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("scan worker did not stop cleanly")
	}

	log.Info().Msg("worker exited")
}
