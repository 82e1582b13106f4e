package analytics

import (
	"math"

	"github.com/wallet-radar/internal/models"
)

// minCommonDays is the minimum overlap of trading days required before a
// pairwise correlation counts as signal. Below it the correlation is defined
// as 0, not "unknown".
const minCommonDays = 5

// dailyPnL buckets realized P&L by UTC calendar day.
func dailyPnL(trades []models.Trade) map[string]float64 {
	out := make(map[string]float64)
	for _, t := range trades {
		day := t.Timestamp.UTC().Format("2006-01-02")
		out[day] += t.ClosedPnL
	}
	return out
}

// pnlCorrelation computes the Pearson correlation coefficient of two wallets'
// daily realized P&L series, restricted to the days both traded. Fewer than
// minCommonDays common days, or a zero denominator, yields 0.
func pnlCorrelation(a, b map[string]float64) float64 {
	var xs, ys []float64
	for day, av := range a {
		if bv, ok := b[day]; ok {
			xs = append(xs, av)
			ys = append(ys, bv)
		}
	}
	if len(xs) < minCommonDays {
		return 0
	}
	return pearson(xs, ys)
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series. A zero denominator yields 0.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	meanX := meanOf(xs)
	meanY := meanOf(ys)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	denom := math.Sqrt(varX/n) * math.Sqrt(varY/n)
	if denom == 0 {
		return 0
	}
	return (cov / n) / denom
}

// correlationMatrix builds the pairwise daily-P&L correlation matrix over a
// candidate pool. The matrix is symmetric and the diagonal is exactly 1.
func correlationMatrix(candidates []models.Wallet, tradesByWallet map[string][]models.Trade) [][]float64 {
	n := len(candidates)
	daily := make([]map[string]float64, n)
	for i, w := range candidates {
		daily[i] = dailyPnL(validTrades(tradesByWallet[w.Address]))
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := pnlCorrelation(daily[i], daily[j])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return matrix
}
