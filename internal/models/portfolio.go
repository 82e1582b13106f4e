package models

import (
	"time"

	"github.com/wallet-radar/internal/types"
)

// PortfolioWallet is one selected entry in a portfolio snapshot.
type PortfolioWallet struct {
	Address  string         `json:"address"`
	Score    int            `json:"score"`
	Tags     []string       `json:"tags"`
	CopyMode types.CopyMode `json:"copyMode"`
}

// PortfolioMeta holds the category distributions of a portfolio snapshot:
// for each tag dimension, how many selected wallets carry each value.
type PortfolioMeta struct {
	Styles       map[string]int `json:"styles"`
	Regions      map[string]int `json:"regions"`
	Biases       map[string]int `json:"biases"`
	TimePatterns map[string]int `json:"timePatterns"`
}

// NewPortfolioMeta returns an empty, fully allocated meta record.
func NewPortfolioMeta() PortfolioMeta {
	return PortfolioMeta{
		Styles:       make(map[string]int),
		Regions:      make(map[string]int),
		Biases:       make(map[string]int),
		TimePatterns: make(map[string]int),
	}
}

// PortfolioModel is an immutable point-in-time portfolio snapshot. A new
// construction run always produces a new snapshot; prior ones are never
// updated.
type PortfolioModel struct {
	ID        string            `json:"id,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Wallets   []PortfolioWallet `json:"wallets"`
	Meta      PortfolioMeta     `json:"meta"`
}

// Size returns the number of wallets in the snapshot.
func (p PortfolioModel) Size() int {
	return len(p.Wallets)
}
