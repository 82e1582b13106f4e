// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/service"
	"github.com/wallet-radar/internal/storage"
)

// Service interfaces for dependency injection and testing

// WalletDirectory serves wallet reads
type WalletDirectory interface {
	List(ctx context.Context, filters *storage.WalletFilters) ([]models.Wallet, error)
	Get(ctx context.Context, address string) (*models.Wallet, error)
}

// PortfolioDirectory serves portfolio snapshot reads
type PortfolioDirectory interface {
	GetLatest(ctx context.Context) (*models.PortfolioModel, error)
	ListRecent(ctx context.Context, limit int) ([]models.PortfolioModel, error)
}

// PipelineRunner triggers an on-demand analytics run
type PipelineRunner interface {
	Run(ctx context.Context, asOf time.Time) (*service.PipelineResult, error)
}

// SnapshotCache is the optional read-through cache for the latest snapshot
type SnapshotCache interface {
	GetLatestPortfolio(ctx context.Context) (*models.PortfolioModel, bool, error)
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	wallets    WalletDirectory
	portfolios PortfolioDirectory
	pipeline   PipelineRunner
	cache      SnapshotCache
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  float64
	Burst           int
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, wallets WalletDirectory, portfolios PortfolioDirectory, pipeline PipelineRunner, cache SnapshotCache) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		wallets:    wallets,
		portfolios: portfolios,
		pipeline:   pipeline,
		cache:      cache,
		config:     config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSec, s.config.Burst)

	// Middleware order matters
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/wallets", s.handleListWallets).Methods("GET")
	api.HandleFunc("/wallets/{address}", s.handleGetWallet).Methods("GET")
	api.HandleFunc("/wallets/{address}/score", s.handleGetWalletScore).Methods("GET")

	api.HandleFunc("/portfolio/latest", s.handleLatestPortfolio).Methods("GET")
	api.HandleFunc("/portfolio/rebuild", s.handleRebuildPortfolio).Methods("POST")
	api.HandleFunc("/portfolios", s.handleListPortfolios).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-radar",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}
