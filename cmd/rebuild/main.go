// Package main provides a one-shot CLI that runs a full ingest and analytics
// pass, then exits. Useful for cron-driven deployments and local inspection.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wallet-radar/internal/config"
	"github.com/wallet-radar/internal/exchange"
	"github.com/wallet-radar/internal/logging"
	"github.com/wallet-radar/internal/service"
	"github.com/wallet-radar/internal/storage"
)

func main() {
	var (
		skipIngest = flag.Bool("skip-ingest", false, "Run analytics against already stored data without pulling the exchange")
		timeout    = flag.Duration("timeout", 15*time.Minute, "Overall run timeout")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(cfg.Logging)

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

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redis.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := clickhouse.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure ClickHouse schema")
	}

	walletRepo := storage.NewWalletRepository(postgres)
	tradeRepo := storage.NewTradeRepository(clickhouse)
	portfolioRepo := storage.NewPortfolioRepository(postgres)

	if !*skipIngest {
		ingestService := service.NewIngestService(
			exchange.NewClient(&cfg.Exchange),
			walletRepo,
			tradeRepo,
			cfg.Pipeline.FillLookback,
			cfg.Pipeline.MaxConcurrency,
		)
		result, err := ingestService.Run(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("ingest failed")
		}
		log.Info().
			Int("wallets", result.WalletsUpserted).
			Int("trades", result.TradesInserted).
			Int("failed", result.WalletsFailed).
			Dur("duration", result.Duration).
			Msg("ingest completed")
	}

	analyticsService := service.NewAnalyticsService(
		walletRepo,
		tradeRepo,
		portfolioRepo,
		redis,
		cfg.Pipeline.FillLookback,
		cfg.Pipeline.MaxConcurrency,
	)

	result, err := analyticsService.Run(ctx, time.Now().UTC())
	if err != nil {
		log.Fatal().Err(err).Msg("analytics run failed")
	}

	log.Info().
		Int("scored", result.WalletsScored).
		Int("qualified", result.Qualified).
		Str("snapshot", result.SnapshotID).
		Int("portfolioSize", result.PortfolioSize).
		Dur("duration", result.Duration).
		Msg("rebuild completed")
}
