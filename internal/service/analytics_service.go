package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wallet-radar/internal/analytics"
	"github.com/wallet-radar/internal/models"
)

// WalletReader loads and persists wallets for the pipeline
type WalletReader interface {
	ListAll(ctx context.Context) ([]models.Wallet, error)
	Upsert(ctx context.Context, w *models.Wallet) error
}

// TradeReader loads trade history for the pipeline
type TradeReader interface {
	GetByWallets(ctx context.Context, wallets []string, since time.Time) (map[string][]models.Trade, error)
}

// PortfolioWriter persists portfolio snapshots
type PortfolioWriter interface {
	Insert(ctx context.Context, p *models.PortfolioModel) error
}

// ResultCache refreshes cached scan output
type ResultCache interface {
	SetLatestPortfolio(ctx context.Context, p *models.PortfolioModel) error
	SetQualifiedWallets(ctx context.Context, wallets []models.Wallet) error
}

// AnalyticsService runs the scoring pipeline over all tracked wallets and
// constructs a fresh portfolio snapshot from the qualified ones.
type AnalyticsService struct {
	wallets      WalletReader
	trades       TradeReader
	portfolios   PortfolioWriter
	cache        ResultCache
	fillLookback time.Duration
	concurrency  int
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(wallets WalletReader, trades TradeReader, portfolios PortfolioWriter, cache ResultCache, fillLookback time.Duration, concurrency int) *AnalyticsService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AnalyticsService{
		wallets:      wallets,
		trades:       trades,
		portfolios:   portfolios,
		cache:        cache,
		fillLookback: fillLookback,
		concurrency:  concurrency,
	}
}

// PipelineResult summarizes one analytics run
type PipelineResult struct {
	WalletsScored int           `json:"walletsScored"`
	Qualified     int           `json:"qualified"`
	SnapshotID    string        `json:"snapshotId"`
	PortfolioSize int           `json:"portfolioSize"`
	Duration      time.Duration `json:"duration"`
}

// Run executes the full pipeline at asOf: score, qualify, tag, and assign a
// copy mode to every tracked wallet, then build and persist a portfolio
// snapshot. Each wallet's stages share one trade slice and one asOf so their
// views of the history agree.
func (s *AnalyticsService) Run(ctx context.Context, asOf time.Time) (*PipelineResult, error) {
	start := time.Now()

	wallets, err := s.wallets.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallets: %w", err)
	}
	if len(wallets) == 0 {
		log.Info().Msg("no tracked wallets, skipping pipeline run")
		return &PipelineResult{Duration: time.Since(start)}, nil
	}

	addresses := make([]string, len(wallets))
	for i, w := range wallets {
		addresses[i] = w.Address
	}

	tradesByWallet, err := s.trades.GetByWallets(ctx, addresses, asOf.Add(-s.fillLookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}

	augmented := make([]models.Wallet, len(wallets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range wallets {
		g.Go(func() error {
			w := wallets[i]
			trades := tradesByWallet[w.Address]

			w = analytics.Score(w, trades, asOf)
			verdict := analytics.Qualify(w, trades, asOf)
			w.Qualified = verdict.Qualified
			w = analytics.Tag(w, trades, asOf)
			w = analytics.AssignCopyMode(w)
			w.UpdatedAt = asOf

			if err := s.wallets.Upsert(gctx, &w); err != nil {
				return fmt.Errorf("failed to persist wallet %s: %w", w.Address, err)
			}
			augmented[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var qualified []models.Wallet
	for _, w := range augmented {
		if w.Qualified {
			qualified = append(qualified, w)
		}
	}

	snapshot := analytics.Construct(augmented, tradesByWallet, asOf)
	if err := s.portfolios.Insert(ctx, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist portfolio snapshot: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetLatestPortfolio(ctx, &snapshot); err != nil {
			log.Warn().Err(err).Msg("failed to refresh portfolio cache")
		}
		if err := s.cache.SetQualifiedWallets(ctx, qualified); err != nil {
			log.Warn().Err(err).Msg("failed to refresh qualified wallet cache")
		}
	}

	result := &PipelineResult{
		WalletsScored: len(augmented),
		Qualified:     len(qualified),
		SnapshotID:    snapshot.ID,
		PortfolioSize: snapshot.Size(),
		Duration:      time.Since(start),
	}

	log.Info().
		Int("walletsScored", result.WalletsScored).
		Int("qualified", result.Qualified).
		Str("snapshotId", result.SnapshotID).
		Int("portfolioSize", result.PortfolioSize).
		Dur("duration", result.Duration).
		Msg("pipeline run complete")

	return result, nil
}
