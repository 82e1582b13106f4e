package service

import (
	"context"
	"sync"
	"time"

	"github.com/wallet-radar/internal/models"
)

// mockExchange is a canned-response exchange client
type mockExchange struct {
	leaderboard    []models.Wallet
	leaderboardErr error

	positions    map[string][]models.Position
	accountValue map[string]float64
	stateErr     map[string]error

	fills    map[string][]models.Trade
	fillsErr map[string]error
}

func (m *mockExchange) Leaderboard(ctx context.Context) ([]models.Wallet, error) {
	return m.leaderboard, m.leaderboardErr
}

func (m *mockExchange) AccountState(ctx context.Context, address string) ([]models.Position, float64, error) {
	if err := m.stateErr[address]; err != nil {
		return nil, 0, err
	}
	return m.positions[address], m.accountValue[address], nil
}

func (m *mockExchange) UserFills(ctx context.Context, address string, startTime time.Time) ([]models.Trade, error) {
	if err := m.fillsErr[address]; err != nil {
		return nil, err
	}
	return m.fills[address], nil
}

// mockWalletStore implements both the ingest and pipeline wallet surfaces
// over an in-memory map
type mockWalletStore struct {
	mu      sync.Mutex
	wallets map[string]models.Wallet
}

func newMockWalletStore() *mockWalletStore {
	return &mockWalletStore{wallets: make(map[string]models.Wallet)}
}

func (m *mockWalletStore) UpsertProfile(ctx context.Context, w *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.wallets[w.Address]
	if !ok {
		m.wallets[w.Address] = *w
		return nil
	}
	existing.DisplayName = w.DisplayName
	existing.AccountValue = w.AccountValue
	existing.Stats = w.Stats
	existing.Positions = w.Positions
	existing.UpdatedAt = w.UpdatedAt
	m.wallets[w.Address] = existing
	return nil
}

func (m *mockWalletStore) UpdateAccountState(ctx context.Context, address string, positions []models.Position, accountValue float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.wallets[address]
	w.Address = address
	w.Positions = positions
	w.AccountValue = accountValue
	m.wallets[address] = w
	return nil
}

func (m *mockWalletStore) ListAddresses(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	addresses := make([]string, 0, len(m.wallets))
	for addr := range m.wallets {
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

func (m *mockWalletStore) ListAll(ctx context.Context) ([]models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	return out, nil
}

func (m *mockWalletStore) Upsert(ctx context.Context, w *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[w.Address] = *w
	return nil
}

func (m *mockWalletStore) get(address string) (models.Wallet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[address]
	return w, ok
}

// mockTradeStore collects inserted trades and serves canned histories
type mockTradeStore struct {
	mu       sync.Mutex
	inserted []models.Trade
	byWallet map[string][]models.Trade
}

func newMockTradeStore() *mockTradeStore {
	return &mockTradeStore{byWallet: make(map[string][]models.Trade)}
}

func (m *mockTradeStore) BatchInsert(ctx context.Context, trades []models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, trades...)
	return nil
}

func (m *mockTradeStore) GetByWallets(ctx context.Context, wallets []string, since time.Time) (map[string][]models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]models.Trade, len(wallets))
	for _, w := range wallets {
		if trades, ok := m.byWallet[w]; ok {
			out[w] = trades
		}
	}
	return out, nil
}

// mockPortfolioStore records inserted snapshots
type mockPortfolioStore struct {
	mu        sync.Mutex
	snapshots []models.PortfolioModel
}

func (m *mockPortfolioStore) Insert(ctx context.Context, p *models.PortfolioModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = "snapshot-1"
	}
	m.snapshots = append(m.snapshots, *p)
	return nil
}

// mockResultCache records cache refreshes
type mockResultCache struct {
	mu        sync.Mutex
	portfolio *models.PortfolioModel
	qualified []models.Wallet
}

func (m *mockResultCache) SetLatestPortfolio(ctx context.Context, p *models.PortfolioModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolio = p
	return nil
}

func (m *mockResultCache) SetQualifiedWallets(ctx context.Context, wallets []models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qualified = wallets
	return nil
}
