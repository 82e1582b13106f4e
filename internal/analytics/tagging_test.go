package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/types"
)

// tradeAt builds a trade at an explicit instant.
func tradeAt(ts time.Time, coin string, side types.Side, pnl float64) models.Trade {
	return models.Trade{
		Wallet:        "0xabc",
		Coin:          coin,
		Side:          side,
		Size:          1,
		Price:         100,
		Timestamp:     ts,
		Leverage:      3,
		ClosedPnL:     pnl,
		TradeValueUSD: 100,
	}
}

func TestTagRegionEurope(t *testing.T) {
	// Trades spread uniformly over UTC hours 13-18 resolve to Europe.
	var trades []models.Trade
	base := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 3; day++ {
		for hour := 13; hour < 19; hour++ {
			ts := base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
			trades = append(trades, tradeAt(ts, "BTC", types.SideLong, 1))
		}
	}

	tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)

	assert.Equal(t, string(types.RegionEurope), tagged.Tags[types.TagRegion])
	assert.Equal(t, "UTC+1", tagged.Tags[types.TagUTCOffset])
}

func TestTagProfitOrientation(t *testing.T) {
	base := time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)

	t.Run("profitable long", func(t *testing.T) {
		var trades []models.Trade
		for i := 0; i < 8; i++ {
			trades = append(trades, tradeAt(base.Add(time.Duration(i)*time.Hour), "BTC", types.SideLong, 10))
		}
		trades = append(trades, tradeAt(base.Add(9*time.Hour), "BTC", types.SideShort, 1))

		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.ProfitableLong), tagged.Tags[types.TagProfitOrientation])
	})

	t.Run("efficient short", func(t *testing.T) {
		// Profit concentrated in the minority short side.
		var trades []models.Trade
		for i := 0; i < 8; i++ {
			trades = append(trades, tradeAt(base.Add(time.Duration(i)*time.Hour), "BTC", types.SideLong, 0.1))
		}
		trades = append(trades, tradeAt(base.Add(9*time.Hour), "BTC", types.SideShort, 50))

		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.EfficientShort), tagged.Tags[types.TagProfitOrientation])
	})

	t.Run("no realized pnl omits the tag", func(t *testing.T) {
		trades := []models.Trade{tradeAt(base, "BTC", types.SideLong, 0)}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		_, ok := tagged.Tags[types.TagProfitOrientation]
		assert.False(t, ok)
	})
}

func TestTagTradingStyle(t *testing.T) {
	base := time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)

	t.Run("scalper", func(t *testing.T) {
		var trades []models.Trade
		for i := 0; i < 10; i++ {
			trades = append(trades, tradeAt(base.Add(time.Duration(i*10)*time.Minute), "BTC", types.SideLong, 1))
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.StyleScalper), tagged.Tags[types.TagStyle])
	})

	t.Run("swing", func(t *testing.T) {
		var trades []models.Trade
		for i := 0; i < 10; i++ {
			trades = append(trades, tradeAt(base.Add(time.Duration(i*6)*time.Hour), "BTC", types.SideLong, 1))
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.StyleSwing), tagged.Tags[types.TagStyle])
	})

	t.Run("trend follower", func(t *testing.T) {
		// Multi-day holds with winning longs.
		var trades []models.Trade
		for i := 0; i < 10; i++ {
			trades = append(trades, tradeAt(base.AddDate(0, 0, i*2), "BTC", types.SideLong, 5))
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.StyleTrendFollower), tagged.Tags[types.TagStyle])
	})

	t.Run("range trader", func(t *testing.T) {
		// Multi-day holds with mostly losing longs.
		var trades []models.Trade
		for i := 0; i < 10; i++ {
			pnl := -2.0
			if i%2 == 0 {
				pnl = 2.0
			}
			trades = append(trades, tradeAt(base.AddDate(0, 0, i*2), "BTC", types.SideLong, pnl))
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.StyleRangeTrader), tagged.Tags[types.TagStyle])
	})
}

func TestTagBehavior(t *testing.T) {
	base := time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)
	evenPositions := []models.Position{
		{Coin: "BTC", PositionValue: 1000, Leverage: 5},
		{Coin: "ETH", PositionValue: 1000, Leverage: 5},
		{Coin: "SOL", PositionValue: 1000, Leverage: 5},
		{Coin: "AVAX", PositionValue: 1000, Leverage: 5},
	}

	t.Run("disciplined", func(t *testing.T) {
		var trades []models.Trade
		for i := 0; i < 20; i++ {
			trades = append(trades, tradeAt(base.Add(time.Duration(i*12)*time.Hour), "BTC", types.SideLong, 1))
		}
		tagged := Tag(models.Wallet{Address: "0xabc", Positions: evenPositions}, trades, testAsOf)
		assert.Equal(t, string(types.BehaviorDisciplined), tagged.Tags[types.TagBehavior])
	})

	t.Run("aggressive on concentration", func(t *testing.T) {
		positions := []models.Position{
			{Coin: "BTC", PositionValue: 9000, Leverage: 5},
			{Coin: "ETH", PositionValue: 1000, Leverage: 5},
		}
		var trades []models.Trade
		for i := 0; i < 20; i++ {
			trades = append(trades, tradeAt(base.Add(time.Duration(i*12)*time.Hour), "BTC", types.SideLong, 1))
		}
		tagged := Tag(models.Wallet{Address: "0xabc", Positions: positions}, trades, testAsOf)
		assert.Equal(t, string(types.BehaviorAggressive), tagged.Tags[types.TagBehavior])
	})

	t.Run("inactive qualifier", func(t *testing.T) {
		// Two trades a week apart: well under 5 trades/week.
		trades := []models.Trade{
			tradeAt(base, "BTC", types.SideLong, 1),
			tradeAt(base.AddDate(0, 0, 7), "BTC", types.SideLong, 1),
		}
		tagged := Tag(models.Wallet{Address: "0xabc", Positions: evenPositions}, trades, testAsOf)
		assert.Equal(t, "disciplined_inactive", tagged.Tags[types.TagBehavior])
	})

	t.Run("hyperactive qualifier", func(t *testing.T) {
		positions := []models.Position{
			{Coin: "BTC", PositionValue: 9000, Leverage: 20},
			{Coin: "ETH", PositionValue: 1000, Leverage: 20},
		}
		var trades []models.Trade
		for i := 0; i < 200; i++ {
			trades = append(trades, tradeAt(base.Add(time.Duration(i)*time.Hour), "BTC", types.SideLong, 1))
		}
		tagged := Tag(models.Wallet{Address: "0xabc", Positions: positions}, trades, testAsOf)
		assert.Equal(t, "hyperactive_aggressive", tagged.Tags[types.TagBehavior])
	})
}

func TestTagAssetFocus(t *testing.T) {
	t.Run("btc focused", func(t *testing.T) {
		positions := []models.Position{
			{Coin: "BTC", PositionValue: 8000},
			{Coin: "ETH", PositionValue: 2000},
		}
		tagged := Tag(models.Wallet{Address: "0xabc", Positions: positions}, nil, testAsOf)
		assert.Equal(t, string(types.AssetFocusBTC), tagged.Tags[types.TagAssetFocus])
	})

	t.Run("altcoin hunter", func(t *testing.T) {
		positions := []models.Position{
			{Coin: "SOL", PositionValue: 4000},
			{Coin: "AVAX", PositionValue: 4000},
			{Coin: "BTC", PositionValue: 1000},
			{Coin: "ETH", PositionValue: 1000},
		}
		tagged := Tag(models.Wallet{Address: "0xabc", Positions: positions}, nil, testAsOf)
		assert.Equal(t, string(types.AssetFocusAltcoins), tagged.Tags[types.TagAssetFocus])
	})

	t.Run("no positions omits the tag", func(t *testing.T) {
		tagged := Tag(models.Wallet{Address: "0xabc"}, nil, testAsOf)
		_, ok := tagged.Tags[types.TagAssetFocus]
		assert.False(t, ok)
	})
}

func TestTagDirectionalBias(t *testing.T) {
	positions := []models.Position{
		{Coin: "BTC", PositionValue: 7000},
		{Coin: "ETH", PositionValue: -3000},
	}
	tagged := Tag(models.Wallet{Address: "0xabc", Positions: positions}, nil, testAsOf)

	assert.Equal(t, string(types.BiasLongDominant), tagged.Tags[types.TagDirectionalBias])
	assert.Equal(t, "long_70_short_30", tagged.Tags[types.TagDirectionSplit])
}

func TestTagTimePattern(t *testing.T) {
	base := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)

	t.Run("night trader", func(t *testing.T) {
		var trades []models.Trade
		for day := 0; day < 5; day++ {
			for _, hour := range []int{22, 23, 2, 5} {
				ts := base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
				// Open positions without realized pnl, so the day-trader
				// branch does not swallow the classification.
				trades = append(trades, tradeAt(ts, "BTC", types.SideLong, 0))
			}
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.TimePatternNightTrader), tagged.Tags[types.TagTimePattern])
	})

	t.Run("round the clock", func(t *testing.T) {
		var trades []models.Trade
		for hour := 0; hour < 24; hour++ {
			ts := base.Add(time.Duration(hour) * time.Hour)
			trades = append(trades, tradeAt(ts, "BTC", types.SideLong, 0))
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.TimePattern24hOperator), tagged.Tags[types.TagTimePattern])
	})

	t.Run("day trader", func(t *testing.T) {
		var trades []models.Trade
		for i := 0; i < 20; i++ {
			ts := base.Add(time.Duration(i%8+9) * time.Hour).AddDate(0, 0, i/8)
			trades = append(trades, tradeAt(ts, "BTC", types.SideLong, 1))
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.TimePatternDayTrader), tagged.Tags[types.TagTimePattern])
	})
}

func TestTagMarketSession(t *testing.T) {
	base := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)

	t.Run("us dominant", func(t *testing.T) {
		var trades []models.Trade
		for day := 0; day < 4; day++ {
			for _, hour := range []int{14, 16, 18, 20} {
				ts := base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
				trades = append(trades, tradeAt(ts, "BTC", types.SideLong, 0))
			}
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.SessionUSDominant), tagged.Tags[types.TagMarketSession])
	})

	t.Run("multi session", func(t *testing.T) {
		var trades []models.Trade
		for hour := 0; hour < 24; hour++ {
			ts := base.Add(time.Duration(hour) * time.Hour)
			trades = append(trades, tradeAt(ts, "BTC", types.SideLong, 0))
		}
		tagged := Tag(models.Wallet{Address: "0xabc"}, trades, testAsOf)
		assert.Equal(t, string(types.SessionMultiSession), tagged.Tags[types.TagMarketSession])
	})
}

func TestTagDoesNotMutateInput(t *testing.T) {
	w := models.Wallet{
		Address: "0xabc",
		Tags:    map[string]string{"custom": "kept"},
	}
	trades := []models.Trade{tradeAt(time.Date(2026, 7, 20, 14, 0, 0, 0, time.UTC), "BTC", types.SideLong, 1)}

	tagged := Tag(w, trades, testAsOf)

	assert.Equal(t, map[string]string{"custom": "kept"}, w.Tags, "input tags must be untouched")
	assert.Equal(t, "kept", tagged.Tags["custom"], "existing tags carry over")
	assert.Greater(t, len(tagged.Tags), 1)
}

func TestTagFiltersInvalidTrades(t *testing.T) {
	valid := tradeAt(time.Date(2026, 7, 20, 14, 0, 0, 0, time.UTC), "BTC", types.SideLong, 5)
	invalid := models.Trade{Wallet: "0xabc"} // no coin, zero timestamp

	tagged := Tag(models.Wallet{Address: "0xabc"}, []models.Trade{valid, invalid}, testAsOf)

	assert.NotEmpty(t, tagged.Tags[types.TagTimePattern])
}

func TestTagIdempotent(t *testing.T) {
	base := time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)
	var trades []models.Trade
	for i := 0; i < 15; i++ {
		trades = append(trades, tradeAt(base.Add(time.Duration(i*3)*time.Hour), "BTC", types.SideLong, float64(i%3)-1))
	}
	w := models.Wallet{Address: "0xabc", Positions: []models.Position{{Coin: "BTC", PositionValue: 500, Leverage: 2}}}

	first := Tag(w, trades, testAsOf)
	second := Tag(w, trades, testAsOf)

	assert.Equal(t, first, second)
}
