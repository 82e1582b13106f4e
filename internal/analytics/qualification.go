package analytics

import (
	"math"
	"time"

	"github.com/wallet-radar/internal/models"
)

// Qualification thresholds.
const (
	minQualifyingTrades   = 30
	minQualifyingROIMonth = 0.05
	minQualifyingWinRate  = 55.0 // percentage
	maxQualifyingDrawdown = 25.0 // percentage
	minQualifyingScore    = 75
)

// Failure reasons, reported in criterion order. Every failing criterion is
// reported, not just the first.
const (
	ReasonInsufficientTrades = "Insufficient trade count"
	ReasonLowROI             = "Monthly ROI below minimum"
	ReasonLowWinRate         = "Win rate below minimum"
	ReasonHighDrawdown       = "Estimated drawdown too high"
	ReasonLowScore           = "Total score below minimum"
)

// Qualify evaluates the five copy-trade eligibility criteria against a wallet
// and its trade history. All criteria are evaluated independently; the result
// accumulates every failure rather than short-circuiting on the first.
//
// The drawdown criterion inverts the score engine's drawdown formula, which
// is only exact when the wallet was scored over the identical trade snapshot
// and as-of instant. Callers must pass the same trades and asOf used for
// scoring.
func Qualify(w models.Wallet, trades []models.Trade, asOf time.Time) models.QualificationResult {
	clean := validTrades(trades)
	window := windowTrades(clean, asOf, scoreWindowDays)

	var reasons []string

	totalTrades := len(clean)
	if w.Stats.TotalTrades != nil {
		totalTrades = *w.Stats.TotalTrades
	}
	if totalTrades < minQualifyingTrades {
		reasons = append(reasons, ReasonInsufficientTrades)
	}

	if w.Stats.ROI.Month < minQualifyingROIMonth {
		reasons = append(reasons, ReasonLowROI)
	}

	winRate := winRatePct(clean)
	if w.Stats.WinRate != nil {
		winRate = *w.Stats.WinRate
	}
	if winRate < minQualifyingWinRate {
		reasons = append(reasons, ReasonLowWinRate)
	}

	if estimatedDrawdown(w, window) > maxQualifyingDrawdown {
		reasons = append(reasons, ReasonHighDrawdown)
	}

	if w.TotalScore() < minQualifyingScore {
		reasons = append(reasons, ReasonLowScore)
	}

	if len(reasons) > 0 {
		return models.QualificationResult{
			Address:   w.Address,
			Qualified: false,
			Reasons:   reasons,
		}
	}
	return models.QualificationResult{
		Address:   w.Address,
		Qualified: true,
		Reasons:   []string{models.ReasonQualified},
	}
}

// estimatedDrawdown recovers the drawdown percentage from the stored drawdown
// score by inverting the scoring formula. Unscored wallets fall back to
// replaying the window directly; an unscored wallet with no trades has no
// estimable drawdown at all and fails the criterion.
func estimatedDrawdown(w models.Wallet, window []models.Trade) float64 {
	if w.Score != nil {
		if w.Score.Drawdown == 0 && len(window) > 0 {
			// The inversion saturates at exactly 25 when the component
			// bottomed out; replaying the window recovers the real drop.
			return maxDrawdownPct(window)
		}
		return (capDrawdown - float64(w.Score.Drawdown)) / 0.6
	}
	if len(window) == 0 {
		return math.Inf(1)
	}
	return maxDrawdownPct(window)
}
