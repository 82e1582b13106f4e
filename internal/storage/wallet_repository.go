package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wallet-radar/internal/models"
)

// WalletRepository handles wallet data persistence
type WalletRepository struct {
	db *PostgresDB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *PostgresDB) *WalletRepository {
	return &WalletRepository{db: db}
}

const walletColumns = `
	address, display_name, account_value, stats, positions, score, tags,
	qualified, copy_mode, max_leverage, max_position_pct, updated_at
`

// Upsert creates or updates a wallet record
func (r *WalletRepository) Upsert(ctx context.Context, w *models.Wallet) error {
	if err := ValidateAddress(w.Address); err != nil {
		return err
	}
	w.Address = NormalizeAddress(w.Address)

	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (address)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			account_value = EXCLUDED.account_value,
			stats = EXCLUDED.stats,
			positions = EXCLUDED.positions,
			score = EXCLUDED.score,
			tags = EXCLUDED.tags,
			qualified = EXCLUDED.qualified,
			copy_mode = EXCLUDED.copy_mode,
			max_leverage = EXCLUDED.max_leverage,
			max_position_pct = EXCLUDED.max_position_pct,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		w.Address,
		w.DisplayName,
		w.AccountValue,
		w.Stats,
		w.Positions,
		w.Score,
		w.Tags,
		w.Qualified,
		w.CopyMode,
		w.Limits.MaxLeverage,
		w.Limits.MaxPositionPct,
		w.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return nil
}

// UpsertProfile creates or refreshes the exchange-sourced fields of a wallet
// without touching analytics columns. Ingestion uses this so scores, tags,
// and qualification survive between pipeline runs.
func (r *WalletRepository) UpsertProfile(ctx context.Context, w *models.Wallet) error {
	if err := ValidateAddress(w.Address); err != nil {
		return err
	}
	w.Address = NormalizeAddress(w.Address)

	query := `
		INSERT INTO wallets (address, display_name, account_value, stats, positions, qualified, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
		ON CONFLICT (address)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			account_value = EXCLUDED.account_value,
			stats = EXCLUDED.stats,
			positions = EXCLUDED.positions,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Pool().Exec(ctx, query,
		w.Address,
		w.DisplayName,
		w.AccountValue,
		w.Stats,
		w.Positions,
		w.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert wallet profile: %w", err)
	}
	return nil
}

// UpdateAccountState refreshes the live position and equity fields of a
// tracked wallet.
func (r *WalletRepository) UpdateAccountState(ctx context.Context, address string, positions []models.Position, accountValue float64) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}
	address = NormalizeAddress(address)

	query := `
		UPDATE wallets
		SET positions = $2, account_value = $3, updated_at = $4
		WHERE address = $1
	`
	result, err := r.db.Pool().Exec(ctx, query, address, positions, accountValue, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update account state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet not tracked: %s", address)
	}
	return nil
}

// Get retrieves a wallet by address. Returns nil without error when the
// wallet is not tracked.
func (r *WalletRepository) Get(ctx context.Context, address string) (*models.Wallet, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	address = NormalizeAddress(address)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE address = $1`

	w, err := scanWallet(r.db.Pool().QueryRow(ctx, query, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// WalletFilters defines filters for listing wallets
type WalletFilters struct {
	Qualified *bool
	MinScore  *int
	Limit     int
	Offset    int
}

// List retrieves wallets with optional filters, ordered by score descending
func (r *WalletRepository) List(ctx context.Context, filters *WalletFilters) ([]models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE 1=1`
	args := []any{}
	argPos := 1

	if filters != nil {
		if filters.Qualified != nil {
			query += fmt.Sprintf(" AND qualified = $%d", argPos)
			args = append(args, *filters.Qualified)
			argPos++
		}
		if filters.MinScore != nil {
			query += fmt.Sprintf(" AND (score->>'total')::int >= $%d", argPos)
			args = append(args, *filters.MinScore)
			argPos++
		}
	}

	query += " ORDER BY (score->>'total')::int DESC NULLS LAST, address"

	if filters != nil {
		if filters.Limit > 0 {
			query += fmt.Sprintf(" LIMIT $%d", argPos)
			args = append(args, filters.Limit)
			argPos++
		}
		if filters.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argPos)
			args = append(args, filters.Offset)
		}
	}

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	return wallets, rows.Err()
}

// ListAll retrieves every tracked wallet, ordered by score descending
func (r *WalletRepository) ListAll(ctx context.Context) ([]models.Wallet, error) {
	return r.List(ctx, nil)
}

// ListQualified retrieves all qualified wallets, ordered by score descending
func (r *WalletRepository) ListQualified(ctx context.Context) ([]models.Wallet, error) {
	qualified := true
	return r.List(ctx, &WalletFilters{Qualified: &qualified})
}

// ListAddresses retrieves every tracked wallet address
func (r *WalletRepository) ListAddresses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT address FROM wallets ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet addresses: %w", err)
	}
	defer rows.Close()

	var addresses []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("failed to scan wallet address: %w", err)
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

// Delete removes a wallet record
func (r *WalletRepository) Delete(ctx context.Context, address string) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}
	address = NormalizeAddress(address)

	result, err := r.db.Pool().Exec(ctx, `DELETE FROM wallets WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", address)
	}
	return nil
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(
		&w.Address,
		&w.DisplayName,
		&w.AccountValue,
		&w.Stats,
		&w.Positions,
		&w.Score,
		&w.Tags,
		&w.Qualified,
		&w.CopyMode,
		&w.Limits.MaxLeverage,
		&w.Limits.MaxPositionPct,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
