// Package models defines the data structures used throughout the wallet radar system.
package models

import (
	"time"

	"github.com/wallet-radar/internal/types"
)

// WindowStats holds one statistic across the four rolling leaderboard windows.
type WindowStats struct {
	Day     float64 `json:"day"`
	Week    float64 `json:"week"`
	Month   float64 `json:"month"`
	AllTime float64 `json:"allTime"`
}

// WalletStats holds the summary statistics reported for a wallet.
// TotalTrades and WinRate are optional: when the leaderboard does not supply
// them the score engine back-fills both from the trade history.
type WalletStats struct {
	ROI         WindowStats `json:"roi"`
	PnL         WindowStats `json:"pnl"`
	Volume      WindowStats `json:"volume"`
	TotalTrades *int        `json:"totalTrades,omitempty"`
	WinRate     *float64    `json:"winRate,omitempty"` // percentage, 0-100
}

// Position represents a single open position belonging to a wallet.
type Position struct {
	Coin          string  `json:"coin"`
	Size          float64 `json:"size"` // signed; positive = long, negative = short
	Leverage      float64 `json:"leverage"`
	EntryPrice    float64 `json:"entryPrice"`
	PositionValue float64 `json:"positionValue"` // signed notional
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	ROI           float64 `json:"roi"`
	MarginUsed    float64 `json:"marginUsed"`
}

// ScoreBreakdown holds the nine component scores and their total.
// Each component is rounded to an integer before summation so the stored
// breakdown always reconciles exactly with the stored total.
type ScoreBreakdown struct {
	ROI30D      int `json:"roi30d"`      // 0-25
	WinRate     int `json:"winRate"`     // 0-15
	PnLPerTrade int `json:"pnlPerTrade"` // 0-10
	LeverageAvg int `json:"leverageAvg"` // 0-10
	Drawdown    int `json:"drawdown"`    // 0-15
	Consistency int `json:"consistency"` // 0-10
	Frequency   int `json:"frequency"`   // 0-5
	PostLoss    int `json:"postLoss"`    // 0-5
	ROITrend    int `json:"roiTrend"`    // 0-5
	Total       int `json:"total"`
}

// CopyLimits holds the risk limits attached to a copy mode tier.
type CopyLimits struct {
	MaxLeverage    float64 `json:"maxLeverage"`
	MaxPositionPct float64 `json:"maxPositionPct"` // max position size as % of equity
}

// ReasonQualified is the literal success marker stored on a passing
// qualification result.
const ReasonQualified = "qualified"

// QualificationResult is the per-wallet pass/fail verdict. When the wallet
// fails, Reasons lists every failing criterion in evaluation order; when it
// passes, Reasons holds the single ReasonQualified marker.
type QualificationResult struct {
	Address   string   `json:"address"`
	Qualified bool     `json:"qualified"`
	Reasons   []string `json:"reasons"`
}

// Wallet represents a tracked trading wallet. The address is an opaque key
// and is never mutated. Pipeline stages return augmented copies rather than
// mutating a shared value.
type Wallet struct {
	Address      string            `json:"address"`
	DisplayName  string            `json:"displayName,omitempty"`
	AccountValue float64           `json:"accountValue"`
	Stats        WalletStats       `json:"stats"`
	Positions    []Position        `json:"positions,omitempty"`
	Score        *ScoreBreakdown   `json:"score,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	Qualified    bool              `json:"qualified"`
	CopyMode     types.CopyMode    `json:"copyMode,omitempty"`
	Limits       *CopyLimits       `json:"limits,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy of the wallet. Pipeline stages start from a clone
// so concurrently processed wallets never share mutable state.
func (w Wallet) Clone() Wallet {
	out := w
	if w.Positions != nil {
		out.Positions = make([]Position, len(w.Positions))
		copy(out.Positions, w.Positions)
	}
	if w.Tags != nil {
		out.Tags = make(map[string]string, len(w.Tags))
		for k, v := range w.Tags {
			out.Tags[k] = v
		}
	}
	if w.Score != nil {
		s := *w.Score
		out.Score = &s
	}
	if w.Limits != nil {
		l := *w.Limits
		out.Limits = &l
	}
	if w.Stats.TotalTrades != nil {
		n := *w.Stats.TotalTrades
		out.Stats.TotalTrades = &n
	}
	if w.Stats.WinRate != nil {
		r := *w.Stats.WinRate
		out.Stats.WinRate = &r
	}
	return out
}

// TotalScore returns the wallet's total score, or 0 when unscored.
func (w Wallet) TotalScore() int {
	if w.Score == nil {
		return 0
	}
	return w.Score.Total
}
