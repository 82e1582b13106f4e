package models

import (
	"time"

	"github.com/wallet-radar/internal/types"
)

// Trade represents a single historical fill. Trades are append-only facts:
// they are never mutated and every derived statistic is recomputed from the
// trade set on demand.
type Trade struct {
	Wallet        string     `json:"wallet"`
	Coin          string     `json:"coin"`
	Side          types.Side `json:"side"`
	Size          float64    `json:"size"`
	Price         float64    `json:"price"`
	Timestamp     time.Time  `json:"timestamp"`
	Leverage      float64    `json:"leverage"`
	ClosedPnL     float64    `json:"closedPnl"`
	TradeValueUSD float64    `json:"tradeValueUsd"` // size * price
}

// Valid reports whether the trade carries the minimum shape required by the
// analytics pipeline. Invalid trades are filtered out before any derived
// computation.
func (t Trade) Valid() bool {
	return t.Wallet != "" && t.Coin != "" && !t.Timestamp.IsZero()
}
