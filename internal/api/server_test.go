package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/service"
	"github.com/wallet-radar/internal/storage"
	"github.com/wallet-radar/internal/types"
)

type mockWalletDirectory struct {
	wallets  map[string]*models.Wallet
	listed   []models.Wallet
	lastList *storage.WalletFilters
	err      error
}

func (m *mockWalletDirectory) List(ctx context.Context, filters *storage.WalletFilters) ([]models.Wallet, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastList = filters
	return m.listed, nil
}

func (m *mockWalletDirectory) Get(ctx context.Context, address string) (*models.Wallet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.wallets[address], nil
}

type mockPortfolioDirectory struct {
	latest  *models.PortfolioModel
	recent  []models.PortfolioModel
	lastLim int
	err     error
}

func (m *mockPortfolioDirectory) GetLatest(ctx context.Context) (*models.PortfolioModel, error) {
	return m.latest, m.err
}

func (m *mockPortfolioDirectory) ListRecent(ctx context.Context, limit int) ([]models.PortfolioModel, error) {
	m.lastLim = limit
	return m.recent, m.err
}

type mockPipelineRunner struct {
	result *service.PipelineResult
	err    error
	runs   int
}

func (m *mockPipelineRunner) Run(ctx context.Context, asOf time.Time) (*service.PipelineResult, error) {
	m.runs++
	return m.result, m.err
}

type mockSnapshotCache struct {
	snapshot *models.PortfolioModel
	found    bool
	err      error
}

func (m *mockSnapshotCache) GetLatestPortfolio(ctx context.Context) (*models.PortfolioModel, bool, error) {
	return m.snapshot, m.found, m.err
}

const testAddress = "0x1111111111111111111111111111111111111111"

func testServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		RequestsPerSec: 100,
		Burst:          100,
	}
}

func scoredWallet() *models.Wallet {
	return &models.Wallet{
		Address:      testAddress,
		DisplayName:  "alpha",
		AccountValue: 250000,
		Score:        &models.ScoreBreakdown{ROI30D: 20, WinRate: 12, Total: 82},
		Tags:         map[string]string{"style": "swing"},
		Qualified:    true,
		CopyMode:     types.CopyModeStandard,
		Limits:       &models.CopyLimits{MaxLeverage: 15, MaxPositionPct: 5},
		UpdatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestServer(wallets *mockWalletDirectory, portfolios *mockPortfolioDirectory, pipeline *mockPipelineRunner, cache *mockSnapshotCache) *Server {
	// Typed nil interfaces would defeat the handlers' nil checks
	var cacheIface SnapshotCache
	if cache != nil {
		cacheIface = cache
	}
	var pipelineIface PipelineRunner
	if pipeline != nil {
		pipelineIface = pipeline
	}
	return NewServer(testServerConfig(), wallets, portfolios, pipelineIface, cacheIface)
}

func doRequest(t *testing.T, server *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:52000"
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, nil, nil)

	rec := doRequest(t, server, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "wallet-radar", body["service"])
}

func TestListWallets(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		wallets := &mockWalletDirectory{listed: []models.Wallet{*scoredWallet()}}
		server := newTestServer(wallets, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets?qualified=true&min_score=75&limit=50")

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, wallets.lastList)
		require.NotNil(t, wallets.lastList.Qualified)
		assert.True(t, *wallets.lastList.Qualified)
		require.NotNil(t, wallets.lastList.MinScore)
		assert.Equal(t, 75, *wallets.lastList.MinScore)
		assert.Equal(t, 50, wallets.lastList.Limit)

		var body struct {
			Wallets []models.Wallet `json:"wallets"`
			Count   int             `json:"count"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, testAddress, body.Wallets[0].Address)
	})

	t.Run("rejects bad min_score", func(t *testing.T) {
		server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets?min_score=150")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, ErrCodeInvalidInput, body.Error.Code)
	})

	t.Run("rejects bad qualified flag", func(t *testing.T) {
		server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets?qualified=maybe")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps store failure to 500", func(t *testing.T) {
		wallets := &mockWalletDirectory{err: errors.New("connection reset")}
		server := newTestServer(wallets, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "An internal error occurred", body.Error.Message)
	})
}

func TestGetWallet(t *testing.T) {
	t.Run("returns stored wallet", func(t *testing.T) {
		wallets := &mockWalletDirectory{wallets: map[string]*models.Wallet{testAddress: scoredWallet()}}
		server := newTestServer(wallets, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets/"+testAddress)

		require.Equal(t, http.StatusOK, rec.Code)
		var body models.Wallet
		decodeBody(t, rec, &body)
		assert.Equal(t, testAddress, body.Address)
		assert.Equal(t, 82, body.TotalScore())
	})

	t.Run("normalizes address case before lookup", func(t *testing.T) {
		lower := "0xabcdef1234567890abcdef1234567890abcdef12"
		wallets := &mockWalletDirectory{wallets: map[string]*models.Wallet{lower: {Address: lower}}}
		server := newTestServer(wallets, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets/0xABCDEF1234567890ABCDEF1234567890ABCDEF12")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets/not-an-address")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body ErrorResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, ErrCodeInvalidInput, body.Error.Code)
	})

	t.Run("returns 404 for untracked wallet", func(t *testing.T) {
		server := newTestServer(&mockWalletDirectory{wallets: map[string]*models.Wallet{}}, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets/"+testAddress)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetWalletScore(t *testing.T) {
	t.Run("returns breakdown with verdict", func(t *testing.T) {
		wallets := &mockWalletDirectory{wallets: map[string]*models.Wallet{testAddress: scoredWallet()}}
		server := newTestServer(wallets, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets/"+testAddress+"/score")

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Address   string                `json:"address"`
			Score     models.ScoreBreakdown `json:"score"`
			Qualified bool                  `json:"qualified"`
			CopyMode  types.CopyMode        `json:"copyMode"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, testAddress, body.Address)
		assert.Equal(t, 82, body.Score.Total)
		assert.True(t, body.Qualified)
		assert.Equal(t, types.CopyModeStandard, body.CopyMode)
	})

	t.Run("returns 404 for unscored wallet", func(t *testing.T) {
		unscored := &models.Wallet{Address: testAddress}
		wallets := &mockWalletDirectory{wallets: map[string]*models.Wallet{testAddress: unscored}}
		server := newTestServer(wallets, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/wallets/"+testAddress+"/score")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLatestPortfolio(t *testing.T) {
	snapshot := &models.PortfolioModel{
		ID:        "snap-1",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Wallets:   []models.PortfolioWallet{{Address: testAddress, Score: 82}},
		Meta:      models.NewPortfolioMeta(),
	}

	t.Run("serves from cache on hit", func(t *testing.T) {
		portfolios := &mockPortfolioDirectory{}
		cache := &mockSnapshotCache{snapshot: snapshot, found: true}
		server := newTestServer(&mockWalletDirectory{}, portfolios, nil, cache)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/portfolio/latest")

		require.Equal(t, http.StatusOK, rec.Code)
		var body models.PortfolioModel
		decodeBody(t, rec, &body)
		assert.Equal(t, "snap-1", body.ID)
	})

	t.Run("falls through to store on miss", func(t *testing.T) {
		portfolios := &mockPortfolioDirectory{latest: snapshot}
		cache := &mockSnapshotCache{found: false}
		server := newTestServer(&mockWalletDirectory{}, portfolios, nil, cache)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/portfolio/latest")

		require.Equal(t, http.StatusOK, rec.Code)
		var body models.PortfolioModel
		decodeBody(t, rec, &body)
		assert.Len(t, body.Wallets, 1)
	})

	t.Run("falls through when cache errors", func(t *testing.T) {
		portfolios := &mockPortfolioDirectory{latest: snapshot}
		cache := &mockSnapshotCache{err: errors.New("redis down")}
		server := newTestServer(&mockWalletDirectory{}, portfolios, nil, cache)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/portfolio/latest")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("returns 404 when no snapshot exists", func(t *testing.T) {
		server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodGet, "/api/v1/portfolio/latest")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListPortfolios(t *testing.T) {
	portfolios := &mockPortfolioDirectory{recent: []models.PortfolioModel{
		{ID: "snap-2"},
		{ID: "snap-1"},
	}}
	server := newTestServer(&mockWalletDirectory{}, portfolios, nil, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/portfolios?limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, portfolios.lastLim)
	var body struct {
		Snapshots []models.PortfolioModel `json:"snapshots"`
		Count     int                     `json:"count"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "snap-2", body.Snapshots[0].ID)
}

func TestRebuildPortfolio(t *testing.T) {
	t.Run("runs pipeline and returns result", func(t *testing.T) {
		pipeline := &mockPipelineRunner{result: &service.PipelineResult{
			WalletsScored: 40,
			Qualified:     12,
			SnapshotID:    "snap-3",
			PortfolioSize: 8,
		}}
		server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, pipeline, nil)

		rec := doRequest(t, server, http.MethodPost, "/api/v1/portfolio/rebuild")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, pipeline.runs)
		var body service.PipelineResult
		decodeBody(t, rec, &body)
		assert.Equal(t, "snap-3", body.SnapshotID)
		assert.Equal(t, 8, body.PortfolioSize)
	})

	t.Run("maps pipeline failure to 500", func(t *testing.T) {
		pipeline := &mockPipelineRunner{err: errors.New("clickhouse unavailable")}
		server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, pipeline, nil)

		rec := doRequest(t, server, http.MethodPost, "/api/v1/portfolio/rebuild")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("returns 503 when pipeline is not wired", func(t *testing.T) {
		server := newTestServer(&mockWalletDirectory{}, &mockPortfolioDirectory{}, nil, nil)

		rec := doRequest(t, server, http.MethodPost, "/api/v1/portfolio/rebuild")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	config := testServerConfig()
	config.RequestsPerSec = 1
	config.Burst = 2
	server := NewServer(config, &mockWalletDirectory{}, &mockPortfolioDirectory{}, nil, nil)

	statuses := make(map[int]int)
	for i := 0; i < 5; i++ {
		rec := doRequest(t, server, http.MethodGet, "/health")
		statuses[rec.Code]++
	}

	assert.Equal(t, 2, statuses[http.StatusOK])
	assert.Equal(t, 3, statuses[http.StatusTooManyRequests])
}
