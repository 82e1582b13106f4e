package analytics

import (
	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/types"
)

// Copy-mode tier thresholds on total score.
const (
	conservativeMinScore = 85
	standardMinScore     = 75
)

// AssignCopyMode maps the wallet's total score to a risk tier and attaches
// the tier's leverage and position-size limits.
func AssignCopyMode(w models.Wallet) models.Wallet {
	out := w.Clone()

	switch {
	case out.TotalScore() >= conservativeMinScore:
		out.CopyMode = types.CopyModeConservative
		out.Limits = &models.CopyLimits{MaxLeverage: 10, MaxPositionPct: 2.5}
	case out.TotalScore() >= standardMinScore:
		out.CopyMode = types.CopyModeStandard
		out.Limits = &models.CopyLimits{MaxLeverage: 15, MaxPositionPct: 5}
	default:
		out.CopyMode = types.CopyModeAggressive
		out.Limits = &models.CopyLimits{MaxLeverage: 25, MaxPositionPct: 10}
	}
	return out
}
