// Package analytics implements the wallet analytics pipeline: multi-factor
// scoring, qualification screening, behavioral tagging, copy-mode assignment
// and diversified portfolio construction. Every stage is a pure function over
// in-memory records; callers supply an explicit as-of instant so a full
// pipeline run is reproducible without time mocking.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/wallet-radar/internal/models"
)

// Component caps. The nine caps sum to 100, so the total stays in the 0-100
// nominal range as long as each component enforces its own cap.
const (
	capROI30D      = 25.0
	capWinRate     = 15.0
	capPnLPerTrade = 10.0
	capLeverage    = 10.0
	capDrawdown    = 15.0
	capConsistency = 10.0
	capFrequency   = 5.0
	capPostLoss    = 5.0
	capROITrend    = 5.0
)

// scoreWindowDays is the trailing window all time-bounded components use.
const scoreWindowDays = 30

// startingEquity seeds the synthetic equity curve used for drawdown replay.
const startingEquity = 10_000.0

// minTradesForConsistency is the sample floor below which the consistency and
// post-loss components return their neutral values.
const minTradesForConsistency = 5

// recoveryRatioCap bounds a single post-loss recovery observation.
const recoveryRatioCap = 3.0

// Score computes the nine component scores for a wallet and returns an
// augmented copy carrying the breakdown. The input wallet is not mutated.
// Missing win-rate and trade-count statistics are back-filled from the trade
// list so downstream stages see a complete record.
func Score(w models.Wallet, trades []models.Trade, asOf time.Time) models.Wallet {
	out := w.Clone()

	clean := validTrades(trades)
	window := windowTrades(clean, asOf, scoreWindowDays)

	if out.Stats.TotalTrades == nil {
		n := len(clean)
		out.Stats.TotalTrades = &n
	}
	if out.Stats.WinRate == nil {
		wr := winRatePct(clean)
		out.Stats.WinRate = &wr
	}

	b := models.ScoreBreakdown{
		ROI30D:      roundScore(roi30DScore(out.Stats.ROI.Month)),
		WinRate:     roundScore(winRateScore(window)),
		PnLPerTrade: roundScore(pnlPerTradeScore(window)),
		LeverageAvg: roundScore(leverageScore(out.Positions)),
		Drawdown:    roundScore(drawdownScore(window)),
		Consistency: roundScore(consistencyScore(window)),
		Frequency:   roundScore(frequencyScore(window)),
		PostLoss:    roundScore(postLossScore(window)),
		ROITrend:    roundScore(roiTrendScore(out.Stats.ROI.Day, out.Stats.ROI.Month)),
	}
	b.Total = b.ROI30D + b.WinRate + b.PnLPerTrade + b.LeverageAvg +
		b.Drawdown + b.Consistency + b.Frequency + b.PostLoss + b.ROITrend

	out.Score = &b
	return out
}

// roi30DScore maps monthly ROI to 0-25, with full marks at 10% monthly ROI.
func roi30DScore(roiMonth float64) float64 {
	return clamp(roiMonth/0.10*capROI30D, 0, capROI30D)
}

// winRateScore maps the window win rate to 0-15. An empty window scores 0.
func winRateScore(window []models.Trade) float64 {
	if len(window) == 0 {
		return 0
	}
	return clamp(winRatePct(window)/100*capWinRate, 0, capWinRate)
}

// pnlPerTradeScore maps the average per-trade return percentage to 0-10.
// An empty window scores 0.
func pnlPerTradeScore(window []models.Trade) float64 {
	var sum float64
	var n int
	for _, t := range window {
		if t.TradeValueUSD == 0 {
			continue
		}
		sum += t.ClosedPnL / t.TradeValueUSD * 100
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp(sum/float64(n)/2, 0, capPnLPerTrade)
}

// leverageScore penalizes notional-weighted average leverage above 10x at
// half a point per extra turn. No open positions means full marks.
func leverageScore(positions []models.Position) float64 {
	var weighted, notional float64
	for _, p := range positions {
		abs := math.Abs(p.PositionValue)
		weighted += p.Leverage * abs
		notional += abs
	}
	if notional == 0 {
		return capLeverage
	}
	avg := weighted / notional
	return clamp(capLeverage-math.Max(0, avg-10)*0.5, 0, capLeverage)
}

// drawdownScore replays the window's trades chronologically against a
// synthetic starting equity, applying each trade's proportional P&L impact,
// and penalizes the maximum peak-to-trough percentage drop at 0.6 points per
// percent. No trades means full marks.
func drawdownScore(window []models.Trade) float64 {
	dd := maxDrawdownPct(window)
	return capDrawdown - clamp(dd*0.6, 0, capDrawdown)
}

// maxDrawdownPct returns the maximum peak-to-trough percentage decline of the
// synthetic equity curve replayed from the window's trades.
func maxDrawdownPct(window []models.Trade) float64 {
	equity := startingEquity
	peak := equity
	var maxDD float64
	for _, t := range chronological(window) {
		if t.TradeValueUSD == 0 {
			continue
		}
		equity += t.ClosedPnL / t.TradeValueUSD * equity
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// consistencyScore buckets closed P&L by UTC calendar day and maps the
// coefficient of variation of the daily sums to 0-10. Fewer than five trades
// in the window returns the neutral value 5.
func consistencyScore(window []models.Trade) float64 {
	if len(window) < minTradesForConsistency {
		return capConsistency / 2
	}
	daily := dailyPnL(window)
	values := make([]float64, 0, len(daily))
	for _, v := range daily {
		values = append(values, v)
	}
	mean := meanOf(values)
	sd := stddevOf(values, mean)
	denom := math.Abs(mean)
	if denom == 0 {
		denom = 1
	}
	cv := sd / denom
	return clamp(capConsistency-cv*5, 0, capConsistency)
}

// frequencyScore maps the window trade rate through a five-segment
// piecewise-linear curve peaking in the 10-30 trades/week band and decaying
// toward zero below 5/week and above 50/week.
func frequencyScore(window []models.Trade) float64 {
	perWeek := float64(len(window)) / (scoreWindowDays / 7.0)
	switch {
	case perWeek <= 0:
		return 0
	case perWeek < 5:
		return perWeek / 5 * 2.5
	case perWeek < 10:
		return 2.5 + (perWeek-5)/5*2.5
	case perWeek <= 30:
		return capFrequency
	case perWeek <= 50:
		return capFrequency - (perWeek-30)/20*2.5
	default:
		return clamp(2.5-(perWeek-50)/50*2.5, 0, capFrequency)
	}
}

// postLossScore measures how a wallet trades immediately after a loss. Each
// losing trade pairs with the next trade's recovery ratio (next P&L over the
// absolute loss, capped at 3x); the average ratio maps through a piecewise
// curve peaking for recoveries in [1.0, 2.0] and penalizing both under- and
// over-recovery. Fewer than five trades, or no loss/recovery pairs, returns
// the neutral value 2.5.
func postLossScore(window []models.Trade) float64 {
	if len(window) < minTradesForConsistency {
		return capPostLoss / 2
	}
	ordered := chronological(window)
	var ratios []float64
	for i := 0; i < len(ordered)-1; i++ {
		loss := ordered[i].ClosedPnL
		if loss >= 0 {
			continue
		}
		ratio := ordered[i+1].ClosedPnL / math.Abs(loss)
		if ratio > recoveryRatioCap {
			ratio = recoveryRatioCap
		}
		ratios = append(ratios, ratio)
	}
	if len(ratios) == 0 {
		return capPostLoss / 2
	}
	avg := meanOf(ratios)
	switch {
	case avg <= 0:
		return 0
	case avg < 1:
		return avg * capPostLoss
	case avg <= 2:
		return capPostLoss
	default:
		return clamp(capPostLoss-(avg-2)*2.5, 0, capPostLoss)
	}
}

// roiTrendScore rewards wallets whose recent daily ROI extrapolates above
// their monthly ROI.
func roiTrendScore(roiDay, roiMonth float64) float64 {
	return clamp((roiDay*30-roiMonth)/2, 0, capROITrend)
}

// winRatePct returns the share of trades with positive closed P&L as a
// percentage. Empty input returns 0.
func winRatePct(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	var wins int
	for _, t := range trades {
		if t.ClosedPnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)) * 100
}

// validTrades filters out records missing the basic trade shape.
func validTrades(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Valid() {
			out = append(out, t)
		}
	}
	return out
}

// windowTrades returns the trades falling inside the trailing window ending
// at asOf.
func windowTrades(trades []models.Trade, asOf time.Time, days int) []models.Trade {
	cutoff := asOf.AddDate(0, 0, -days)
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Timestamp.After(cutoff) && !t.Timestamp.After(asOf) {
			out = append(out, t)
		}
	}
	return out
}

// chronological returns a copy of trades sorted by timestamp ascending.
func chronological(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func roundScore(v float64) int {
	return int(math.Round(v))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddevOf returns the population standard deviation.
func stddevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
