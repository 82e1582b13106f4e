// Package main provides the API server entry point for the wallet radar service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wallet-radar/internal/api"
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
	log.Info().Msg("wallet radar API server starting")

	// Database connections
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

	log.Info().Msg("database connections established")

	// Repositories
	walletRepo := storage.NewWalletRepository(postgres)
	tradeRepo := storage.NewTradeRepository(clickhouse)
	portfolioRepo := storage.NewPortfolioRepository(postgres)

	// Exchange client and services
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

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RequestsPerSec:  cfg.RateLimit.RequestsPerSec,
		Burst:           cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, walletRepo, portfolioRepo, analyticsService, redis)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	log.Info().
		Str("host", cfg.Server.Host).
		Str("port", cfg.Server.Port).
		Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := scanWorker.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("scan worker did not stop cleanly")
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
