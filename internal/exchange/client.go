// Package exchange implements the perp DEX info API client used to discover
// wallets and pull their account state and fill history.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/wallet-radar/internal/circuitbreaker"
	"github.com/wallet-radar/internal/config"
	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/retry"
)

// Client talks to the exchange info endpoint. All queries are POSTs against
// a single path with a type discriminator in the body.
type Client struct {
	baseURL         string
	http            *http.Client
	limiter         *rate.Limiter
	breaker         *circuitbreaker.CircuitBreaker
	retryConfig     *retry.Config
	leaderboardSize int
}

// NewClient creates a new exchange client
func NewClient(cfg *config.ExchangeConfig) *Client {
	return &Client{
		baseURL:         cfg.BaseURL,
		http:            &http.Client{Timeout: cfg.RequestTimeout},
		limiter:         rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), int(cfg.RequestsPerSec)+1),
		breaker:         circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("exchange")),
		retryConfig:     retry.DefaultConfig(),
		leaderboardSize: cfg.LeaderboardSize,
	}
}

// post sends an info request and decodes the response into dest
func (c *Client) post(ctx context.Context, payload map[string]interface{}, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return retry.WithRetry(ctx, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		return c.breaker.Execute(ctx, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to build request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer func() {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status %d from info endpoint", resp.StatusCode)
			}

			if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		})
	})
}

// Leaderboard fetches the top wallets by performance. Rows that fail to
// parse are skipped with a warning rather than failing the whole pull.
func (c *Client) Leaderboard(ctx context.Context) ([]models.Wallet, error) {
	var resp leaderboardResponse
	if err := c.post(ctx, map[string]interface{}{"type": "leaderboard"}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	rows := resp.LeaderboardRows
	if c.leaderboardSize > 0 && len(rows) > c.leaderboardSize {
		rows = rows[:c.leaderboardSize]
	}

	wallets := make([]models.Wallet, 0, len(rows))
	for _, row := range rows {
		w, err := row.toWallet()
		if err != nil {
			log.Warn().Str("address", row.EthAddress).Err(err).Msg("skipping malformed leaderboard row")
			continue
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// AccountState fetches open positions and account value for a wallet
func (c *Client) AccountState(ctx context.Context, address string) ([]models.Position, float64, error) {
	var resp clearinghouseState
	payload := map[string]interface{}{"type": "clearinghouseState", "user": address}
	if err := c.post(ctx, payload, &resp); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch account state for %s: %w", address, err)
	}
	return resp.toPositions()
}

// UserFills fetches fills for a wallet at or after startTime
func (c *Client) UserFills(ctx context.Context, address string, startTime time.Time) ([]models.Trade, error) {
	var resp []wireFill
	payload := map[string]interface{}{
		"type":      "userFillsByTime",
		"user":      address,
		"startTime": startTime.UnixMilli(),
	}
	if err := c.post(ctx, payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch fills for %s: %w", address, err)
	}

	trades := make([]models.Trade, 0, len(resp))
	for _, f := range resp {
		t, err := f.toTrade(address)
		if err != nil {
			log.Warn().Str("address", address).Err(err).Msg("skipping malformed fill")
			continue
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// BreakerStats exposes circuit breaker statistics for the health endpoint
func (c *Client) BreakerStats() *circuitbreaker.Stats {
	return c.breaker.GetStats()
}
