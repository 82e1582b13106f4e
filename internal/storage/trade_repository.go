package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/types"
)

// TradeRepository handles trade (fill) persistence in ClickHouse. Fills are
// append-only; re-ingested rows share a fill id and collapse on merge.
type TradeRepository struct {
	db *ClickHouseDB
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *ClickHouseDB) *TradeRepository {
	return &TradeRepository{db: db}
}

// FillID derives a stable identifier for a fill from its identifying fields.
// Floats go into the hash at full precision so near-identical fills keep
// distinct ids.
func FillID(t models.Trade) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%s|%s",
		NormalizeAddress(t.Wallet), t.Coin, t.Side, t.Timestamp.UnixMilli(),
		strconv.FormatFloat(t.Size, 'g', -1, 64),
		strconv.FormatFloat(t.Price, 'g', -1, 64))))
	return hex.EncodeToString(h[:16])
}

// BatchInsert inserts a batch of trades
func (r *TradeRepository) BatchInsert(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO trades (
			wallet, coin, side, size, price, timestamp, leverage, closed_pnl, trade_value_usd, fill_id
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, t := range trades {
		if err := ValidateAddress(t.Wallet); err != nil {
			return fmt.Errorf("invalid wallet %s: %w", t.Wallet, err)
		}
		wallet := NormalizeAddress(t.Wallet)

		if err := batch.Append(
			wallet,
			t.Coin,
			string(t.Side),
			t.Size,
			t.Price,
			t.Timestamp,
			t.Leverage,
			t.ClosedPnL,
			t.TradeValueUSD,
			FillID(t),
		); err != nil {
			return fmt.Errorf("failed to append trade to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send trade batch: %w", err)
	}
	return nil
}

const tradeColumns = `wallet, coin, side, size, price, timestamp, leverage, closed_pnl, trade_value_usd`

// GetByWallet retrieves all trades for a wallet, oldest first
func (r *TradeRepository) GetByWallet(ctx context.Context, wallet string) ([]models.Trade, error) {
	return r.GetByWalletSince(ctx, wallet, time.Time{})
}

// GetByWalletSince retrieves trades for a wallet at or after a cutoff,
// oldest first. A zero cutoff returns the full history.
func (r *TradeRepository) GetByWalletSince(ctx context.Context, wallet string, since time.Time) ([]models.Trade, error) {
	if err := ValidateAddress(wallet); err != nil {
		return nil, err
	}
	wallet = NormalizeAddress(wallet)

	query := `
		SELECT ` + tradeColumns + `
		FROM trades FINAL
		WHERE wallet = ?
	`
	args := []any{wallet}
	if !since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, since)
	}
	query += " ORDER BY timestamp ASC"

	rows, err := r.db.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var (
			t    models.Trade
			side string
		)
		if err := rows.Scan(
			&t.Wallet,
			&t.Coin,
			&side,
			&t.Size,
			&t.Price,
			&t.Timestamp,
			&t.Leverage,
			&t.ClosedPnL,
			&t.TradeValueUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Side = types.Side(side)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetByWallets retrieves trades for a set of wallets at or after a cutoff,
// keyed by wallet address.
func (r *TradeRepository) GetByWallets(ctx context.Context, wallets []string, since time.Time) (map[string][]models.Trade, error) {
	out := make(map[string][]models.Trade, len(wallets))
	if len(wallets) == 0 {
		return out, nil
	}

	normalized := make([]string, 0, len(wallets))
	for _, w := range wallets {
		if err := ValidateAddress(w); err != nil {
			return nil, err
		}
		normalized = append(normalized, NormalizeAddress(w))
	}

	query := `
		SELECT ` + tradeColumns + `
		FROM trades FINAL
		WHERE wallet IN (?)
	`
	args := []any{normalized}
	if !since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, since)
	}
	query += " ORDER BY wallet, timestamp ASC"

	rows, err := r.db.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t    models.Trade
			side string
		)
		if err := rows.Scan(
			&t.Wallet,
			&t.Coin,
			&side,
			&t.Size,
			&t.Price,
			&t.Timestamp,
			&t.Leverage,
			&t.ClosedPnL,
			&t.TradeValueUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Side = types.Side(side)
		out[t.Wallet] = append(out[t.Wallet], t)
	}
	return out, rows.Err()
}

// CountByWallet returns the number of stored trades for a wallet
func (r *TradeRepository) CountByWallet(ctx context.Context, wallet string) (uint64, error) {
	if err := ValidateAddress(wallet); err != nil {
		return 0, err
	}
	wallet = NormalizeAddress(wallet)

	var count uint64
	err := r.db.Conn().QueryRow(ctx,
		`SELECT count() FROM trades FINAL WHERE wallet = ?`, wallet).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}
