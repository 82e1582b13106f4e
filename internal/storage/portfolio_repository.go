package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wallet-radar/internal/models"
)

// PortfolioRepository handles portfolio snapshot persistence. Snapshots are
// immutable: inserts only, no updates.
type PortfolioRepository struct {
	db *PostgresDB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *PostgresDB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Insert stores a new portfolio snapshot and assigns its id
func (r *PortfolioRepository) Insert(ctx context.Context, p *models.PortfolioModel) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO portfolio_snapshots (id, created_at, wallets, meta)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Pool().Exec(ctx, query, p.ID, p.CreatedAt, p.Wallets, p.Meta)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent snapshot. Returns nil without error
// when no snapshot exists yet.
func (r *PortfolioRepository) GetLatest(ctx context.Context) (*models.PortfolioModel, error) {
	query := `
		SELECT id, created_at, wallets, meta
		FROM portfolio_snapshots
		ORDER BY created_at DESC
		LIMIT 1
	`

	var p models.PortfolioModel
	err := r.db.Pool().QueryRow(ctx, query).Scan(&p.ID, &p.CreatedAt, &p.Wallets, &p.Meta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest portfolio snapshot: %w", err)
	}
	return &p, nil
}

// Get retrieves a snapshot by id
func (r *PortfolioRepository) Get(ctx context.Context, id string) (*models.PortfolioModel, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid snapshot id %q: %w", id, err)
	}

	query := `SELECT id, created_at, wallets, meta FROM portfolio_snapshots WHERE id = $1`

	var p models.PortfolioModel
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(&p.ID, &p.CreatedAt, &p.Wallets, &p.Meta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get portfolio snapshot: %w", err)
	}
	return &p, nil
}

// ListRecent retrieves the most recent snapshots, newest first
func (r *PortfolioRepository) ListRecent(ctx context.Context, limit int) ([]models.PortfolioModel, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, created_at, wallets, meta
		FROM portfolio_snapshots
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.PortfolioModel
	for rows.Next() {
		var p models.PortfolioModel
		if err := rows.Scan(&p.ID, &p.CreatedAt, &p.Wallets, &p.Meta); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio snapshot: %w", err)
		}
		snapshots = append(snapshots, p)
	}
	return snapshots, rows.Err()
}
