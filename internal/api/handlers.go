package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/storage"
)

const maxListLimit = 200

// handleListWallets handles GET /api/v1/wallets with optional
// qualified/min_score/limit/offset filters.
func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	filters := &storage.WalletFilters{}
	query := r.URL.Query()

	if raw := query.Get("qualified"); raw != "" {
		qualified, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput,
				"qualified must be true or false", nil)
			return
		}
		filters.Qualified = &qualified
	}

	if raw := query.Get("min_score"); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil || minScore < 0 || minScore > 100 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput,
				"min_score must be an integer between 0 and 100", nil)
			return
		}
		filters.MinScore = &minScore
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput,
				"limit must be between 1 and 200", nil)
			return
		}
		filters.Limit = limit
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput,
				"offset must be a non-negative integer", nil)
			return
		}
		filters.Offset = offset
	}

	wallets, err := s.wallets.List(r.Context(), filters)
	if err != nil {
		log.Error().Err(err).Msg("failed to list wallets")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallets": wallets,
		"count":   len(wallets),
	})
}

// handleGetWallet handles GET /api/v1/wallets/{address}.
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.lookupWallet(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, wallet)
}

// handleGetWalletScore handles GET /api/v1/wallets/{address}/score. It
// returns the stored breakdown together with the qualification verdict.
func (s *Server) handleGetWalletScore(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.lookupWallet(w, r)
	if !ok {
		return
	}
	if wallet.Score == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound,
			"wallet has not been scored yet", map[string]interface{}{
				"address": wallet.Address,
			})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"address":   wallet.Address,
		"score":     wallet.Score,
		"qualified": wallet.Qualified,
		"copyMode":  wallet.CopyMode,
		"limits":    wallet.Limits,
		"updatedAt": wallet.UpdatedAt,
	})
}

// handleLatestPortfolio handles GET /api/v1/portfolio/latest. The cache is
// consulted first; a miss falls through to the database.
func (s *Server) handleLatestPortfolio(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		snapshot, found, err := s.cache.GetLatestPortfolio(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("portfolio cache read failed")
		} else if found {
			respondJSON(w, http.StatusOK, snapshot)
			return
		}
	}

	snapshot, err := s.portfolios.GetLatest(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load latest portfolio")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound,
			"no portfolio snapshot exists yet", nil)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// handleListPortfolios handles GET /api/v1/portfolios.
func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput,
				"limit must be between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	snapshots, err := s.portfolios.ListRecent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list portfolio snapshots")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// handleRebuildPortfolio handles POST /api/v1/portfolio/rebuild. The run is
// synchronous: the response carries the pipeline result.
func (s *Server) handleRebuildPortfolio(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"pipeline is not available", nil)
		return
	}

	result, err := s.pipeline.Run(r.Context(), time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("portfolio rebuild failed")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// lookupWallet resolves the {address} path variable to a stored wallet,
// writing the error response itself when the lookup fails.
func (s *Server) lookupWallet(w http.ResponseWriter, r *http.Request) (*models.Wallet, bool) {
	address := mux.Vars(r)["address"]

	if err := storage.ValidateAddress(address); err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, map[string]interface{}{
			"address": address,
		})
		return nil, false
	}

	found, err := s.wallets.Get(r.Context(), storage.NormalizeAddress(address))
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("failed to load wallet")
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return nil, false
	}
	if found == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound,
			"wallet is not tracked", map[string]interface{}{
				"address": address,
			})
		return nil, false
	}

	return found, true
}
