package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wallet-radar/internal/models"
)

// ExchangeClient is the surface of the exchange info API the services need
type ExchangeClient interface {
	Leaderboard(ctx context.Context) ([]models.Wallet, error)
	AccountState(ctx context.Context, address string) ([]models.Position, float64, error)
	UserFills(ctx context.Context, address string, startTime time.Time) ([]models.Trade, error)
}

// WalletWriter persists wallet profiles during ingestion
type WalletWriter interface {
	UpsertProfile(ctx context.Context, w *models.Wallet) error
	UpdateAccountState(ctx context.Context, address string, positions []models.Position, accountValue float64) error
	ListAddresses(ctx context.Context) ([]string, error)
}

// TradeWriter persists trade batches during ingestion
type TradeWriter interface {
	BatchInsert(ctx context.Context, trades []models.Trade) error
}

// IngestService pulls the leaderboard and per-wallet state from the exchange
// and persists it.
type IngestService struct {
	exchange     ExchangeClient
	wallets      WalletWriter
	trades       TradeWriter
	fillLookback time.Duration
	concurrency  int
}

// NewIngestService creates a new ingest service
func NewIngestService(exchange ExchangeClient, wallets WalletWriter, trades TradeWriter, fillLookback time.Duration, concurrency int) *IngestService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &IngestService{
		exchange:     exchange,
		wallets:      wallets,
		trades:       trades,
		fillLookback: fillLookback,
		concurrency:  concurrency,
	}
}

// IngestResult summarizes one ingestion run
type IngestResult struct {
	WalletsUpserted int           `json:"walletsUpserted"`
	TradesInserted  int           `json:"tradesInserted"`
	WalletsFailed   int           `json:"walletsFailed"`
	Duration        time.Duration `json:"duration"`
}

// Run performs one full ingestion pass: refresh the tracked wallet set from
// the leaderboard, then pull account state and fills for every tracked
// wallet. Failures on individual wallets are counted, not fatal.
func (s *IngestService) Run(ctx context.Context) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{}

	leaders, err := s.exchange.Leaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard pull failed: %w", err)
	}

	now := time.Now().UTC()
	for i := range leaders {
		w := leaders[i]
		w.UpdatedAt = now
		if err := s.wallets.UpsertProfile(ctx, &w); err != nil {
			log.Warn().Str("address", w.Address).Err(err).Msg("failed to upsert leaderboard wallet")
			result.WalletsFailed++
			continue
		}
		result.WalletsUpserted++
	}

	addresses, err := s.wallets.ListAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked wallets: %w", err)
	}

	since := now.Add(-s.fillLookback)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	type walletPull struct {
		trades int
		err    error
	}
	pulls := make([]walletPull, len(addresses))

	for i, addr := range addresses {
		g.Go(func() error {
			n, err := s.pullWallet(gctx, addr, since)
			pulls[i] = walletPull{trades: n, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, p := range pulls {
		if p.err != nil {
			log.Warn().Str("address", addresses[i]).Err(p.err).Msg("wallet pull failed")
			result.WalletsFailed++
			continue
		}
		result.TradesInserted += p.trades
	}

	result.Duration = time.Since(start)
	log.Info().
		Int("walletsUpserted", result.WalletsUpserted).
		Int("tradesInserted", result.TradesInserted).
		Int("walletsFailed", result.WalletsFailed).
		Dur("duration", result.Duration).
		Msg("ingest run complete")

	return result, nil
}

// pullWallet fetches and stores account state and fills for one wallet
func (s *IngestService) pullWallet(ctx context.Context, address string, since time.Time) (int, error) {
	positions, accountValue, err := s.exchange.AccountState(ctx, address)
	if err != nil {
		return 0, err
	}

	if err := s.wallets.UpdateAccountState(ctx, address, positions, accountValue); err != nil {
		return 0, err
	}

	fills, err := s.exchange.UserFills(ctx, address, since)
	if err != nil {
		return 0, err
	}

	valid := fills[:0]
	for _, t := range fills {
		if t.Valid() {
			valid = append(valid, t)
		}
	}

	if err := s.trades.BatchInsert(ctx, valid); err != nil {
		return 0, err
	}
	return len(valid), nil
}
