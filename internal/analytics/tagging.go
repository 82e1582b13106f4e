package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/types"
)

// Tagging thresholds.
const (
	scalperMaxHours     = 1.0
	swingMaxHours       = 24.0
	trendWinRateMin     = 0.65
	inactivePerWeek     = 5.0
	hyperactivePerWeek  = 50.0
	focusDominantPct    = 70.0
	focusMinorPct       = 30.0
	biasDominantPct     = 65.0
	nightShareMin       = 0.60
	dayTraderShareMin   = 0.90
	sessionDominantMin  = 0.60
	sessionPreferredMin = 0.40
	peakWindowHours     = 6
	spreadWindowHours   = 12
)

// Tag derives the descriptive label set for a wallet from its trade history
// and open positions, and returns an augmented copy. Existing tags on the
// input are never mutated; dimensions lacking sufficient data are simply
// omitted.
func Tag(w models.Wallet, trades []models.Trade, asOf time.Time) models.Wallet {
	out := w.Clone()
	if out.Tags == nil {
		out.Tags = make(map[string]string)
	}

	clean := chronological(validTrades(trades))

	if v, ok := profitOrientation(clean); ok {
		out.Tags[types.TagProfitOrientation] = string(v)
	}
	if v, ok := tradingStyle(clean); ok {
		out.Tags[types.TagStyle] = string(v)
	}
	out.Tags[types.TagBehavior] = behaviorLabel(out.Positions, clean)
	if v, ok := assetFocus(out.Positions); ok {
		out.Tags[types.TagAssetFocus] = string(v)
	}
	if bias, split, ok := directionalBias(out.Positions); ok {
		out.Tags[types.TagDirectionalBias] = string(bias)
		out.Tags[types.TagDirectionSplit] = split
	}
	if len(clean) > 0 {
		buckets := hourBuckets(clean)
		pattern, peakStart := timePattern(clean, buckets)
		out.Tags[types.TagTimePattern] = string(pattern)

		region, offset := estimateRegion(peakStart)
		out.Tags[types.TagRegion] = string(region)
		out.Tags[types.TagUTCOffset] = formatOffset(offset)

		out.Tags[types.TagMarketSession] = string(marketSession(clean))
	}

	return out
}

// profitOrientation partitions realized P&L by trade side and classifies the
// wallet by both the profit split and the trade-count split. Returns false
// when neither side has any realized P&L.
func profitOrientation(trades []models.Trade) (types.ProfitOrientationTag, bool) {
	var longPnL, shortPnL float64
	var longCount, total int
	for _, t := range trades {
		total++
		if t.Side == types.SideLong {
			longPnL += t.ClosedPnL
			longCount++
		} else {
			shortPnL += t.ClosedPnL
		}
	}
	denom := math.Abs(longPnL) + math.Abs(shortPnL)
	if denom == 0 || total == 0 {
		return "", false
	}

	longProfitRatio := longPnL / denom
	shortProfitRatio := shortPnL / denom
	longCountRatio := float64(longCount) / float64(total)

	// Evaluation order is significant: the "profitable" branches (profit and
	// volume aligned) win over the "efficient" branches (profit concentrated
	// in the minority side).
	switch {
	case longProfitRatio > 0.7 && longCountRatio > 0.6:
		return types.ProfitableLong, true
	case shortProfitRatio > 0.7 && longCountRatio < 0.4:
		return types.ProfitableShort, true
	case longProfitRatio > 0.7:
		return types.EfficientLong, true
	case shortProfitRatio > 0.7:
		return types.EfficientShort, true
	default:
		return types.BalancedTrader, true
	}
}

// tradingStyle classifies by average holding time, approximated as the mean
// gap between consecutive trades in the same (coin, side) group. Wallets
// holding beyond a day split further on long-side win rate. Returns false
// when no group has two trades.
func tradingStyle(trades []models.Trade) (types.StyleTag, bool) {
	type key struct {
		coin string
		side types.Side
	}
	groups := make(map[key][]models.Trade)
	for _, t := range trades {
		k := key{t.Coin, t.Side}
		groups[k] = append(groups[k], t)
	}

	var totalHours float64
	var gaps int
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		for i := 1; i < len(group); i++ {
			totalHours += group[i].Timestamp.Sub(group[i-1].Timestamp).Hours()
			gaps++
		}
	}
	if gaps == 0 {
		return "", false
	}

	avgHours := totalHours / float64(gaps)
	switch {
	case avgHours < scalperMaxHours:
		return types.StyleScalper, true
	case avgHours <= swingMaxHours:
		return types.StyleSwing, true
	}

	// Slow traders: trend followers win their longs, range traders fade.
	var longWins, longs int
	for _, t := range trades {
		if t.Side != types.SideLong {
			continue
		}
		longs++
		if t.ClosedPnL > 0 {
			longWins++
		}
	}
	if longs > 0 && float64(longWins)/float64(longs) > trendWinRateMin {
		return types.StyleTrendFollower, true
	}
	return types.StyleRangeTrader, true
}

// behaviorLabel derives the discipline label from open-position sizing, then
// refines it with trading cadence. Evaluation order of the compound
// qualifiers matches the base classification order exactly.
func behaviorLabel(positions []models.Position, trades []models.Trade) string {
	base := types.BehaviorBalanced
	if len(positions) > 0 {
		var notional float64
		for _, p := range positions {
			notional += math.Abs(p.PositionValue)
		}
		pcts := make([]float64, 0, len(positions))
		var maxPct, levSum float64
		for _, p := range positions {
			pct := 0.0
			if notional > 0 {
				pct = math.Abs(p.PositionValue) / notional * 100
			}
			pcts = append(pcts, pct)
			if pct > maxPct {
				maxPct = pct
			}
			levSum += p.Leverage
		}
		variation := stddevOf(pcts, meanOf(pcts))
		avgLeverage := levSum / float64(len(positions))

		switch {
		case variation < 20 && maxPct < 30:
			base = types.BehaviorDisciplined
		case avgLeverage > 15 || maxPct >= 30:
			base = types.BehaviorAggressive
		default:
			base = types.BehaviorBalanced
		}
	}

	perWeek, ok := tradesPerWeek(trades)
	if !ok {
		return string(base)
	}
	switch {
	case perWeek < inactivePerWeek:
		return string(base) + "_inactive"
	case perWeek > hyperactivePerWeek:
		return "hyperactive_" + string(base)
	default:
		return string(base)
	}
}

// tradesPerWeek computes the trading cadence over the wallet's observed trade
// span. Returns false with fewer than two trades.
func tradesPerWeek(trades []models.Trade) (float64, bool) {
	if len(trades) < 2 {
		return 0, false
	}
	span := trades[len(trades)-1].Timestamp.Sub(trades[0].Timestamp)
	weeks := span.Hours() / (24 * 7)
	if weeks < 1.0/7 {
		weeks = 1.0 / 7 // span under a day still counts as one day
	}
	return float64(len(trades)) / weeks, true
}

// assetFocus classifies by each coin's share of total open notional.
func assetFocus(positions []models.Position) (types.AssetFocusTag, bool) {
	var notional float64
	byCoin := make(map[string]float64)
	for _, p := range positions {
		abs := math.Abs(p.PositionValue)
		notional += abs
		byCoin[p.Coin] += abs
	}
	if notional == 0 {
		return "", false
	}
	btcPct := byCoin["BTC"] / notional * 100
	ethPct := byCoin["ETH"] / notional * 100
	switch {
	case btcPct > focusDominantPct:
		return types.AssetFocusBTC, true
	case ethPct > focusDominantPct:
		return types.AssetFocusETH, true
	case btcPct < focusMinorPct && ethPct < focusMinorPct:
		return types.AssetFocusAltcoins, true
	default:
		return types.AssetFocusMixed, true
	}
}

// directionalBias compares open long notional against short notional. The
// second return value carries the literal rounded percentages as a composite
// tag.
func directionalBias(positions []models.Position) (types.BiasTag, string, bool) {
	var long, short float64
	for _, p := range positions {
		if p.PositionValue >= 0 {
			long += p.PositionValue
		} else {
			short += -p.PositionValue
		}
	}
	total := long + short
	if total == 0 {
		return "", "", false
	}
	longPct := long / total * 100
	shortPct := short / total * 100
	split := fmt.Sprintf("long_%d_short_%d",
		int(math.Round(longPct)), int(math.Round(shortPct)))

	switch {
	case longPct > biasDominantPct:
		return types.BiasLongDominant, split, true
	case shortPct > biasDominantPct:
		return types.BiasShortDominant, split, true
	default:
		return types.BiasBalanced, split, true
	}
}

// hourBuckets counts trades per UTC hour of day.
func hourBuckets(trades []models.Trade) [24]int {
	var buckets [24]int
	for _, t := range trades {
		buckets[t.Timestamp.UTC().Hour()]++
	}
	return buckets
}

// timePattern classifies when the wallet trades and returns the start hour of
// its peak 6-hour activity window.
func timePattern(trades []models.Trade, buckets [24]int) (types.TimePatternTag, int) {
	total := len(trades)
	peakStart := peakWindowStart(buckets, peakWindowHours)

	var closed int
	var night int
	for _, t := range trades {
		if t.ClosedPnL != 0 {
			closed++
		}
		h := t.Timestamp.UTC().Hour()
		if h >= 20 || h < 8 {
			night++
		}
	}

	switch {
	case float64(closed)/float64(total) >= dayTraderShareMin:
		return types.TimePatternDayTrader, peakStart
	case float64(night)/float64(total) >= nightShareMin:
		return types.TimePatternNightTrader, peakStart
	case maxWindowShare(buckets, spreadWindowHours) < sessionDominantMin:
		// No contiguous 12-hour window holds 60% of activity.
		return types.TimePattern24hOperator, peakStart
	default:
		return types.TimePatternRegularHours, peakStart
	}
}

// peakWindowStart finds the start hour of the circular window with the
// largest trade count using a sliding-window sum over the 24 hourly buckets.
func peakWindowStart(buckets [24]int, window int) int {
	sum := 0
	for h := 0; h < window; h++ {
		sum += buckets[h]
	}
	best, bestStart := sum, 0
	for start := 1; start < 24; start++ {
		sum -= buckets[start-1]
		sum += buckets[(start+window-1)%24]
		if sum > best {
			best = sum
			bestStart = start
		}
	}
	return bestStart
}

// maxWindowShare returns the largest share of trades held by any contiguous
// circular window of the given width.
func maxWindowShare(buckets [24]int, window int) float64 {
	total := 0
	for _, c := range buckets {
		total += c
	}
	if total == 0 {
		return 0
	}
	sum := 0
	for h := 0; h < window; h++ {
		sum += buckets[h]
	}
	best := sum
	for start := 1; start < 24; start++ {
		sum -= buckets[start-1]
		sum += buckets[(start+window-1)%24]
		if sum > best {
			best = sum
		}
	}
	return float64(best) / float64(total)
}

// assumedLocalPeakHour is the local hour a trader's 6-hour peak window is
// assumed to center on: the midpoint of a noon-to-evening session.
const assumedLocalPeakHour = 15.0

// estimateRegion derives a UTC offset from the circular mean of the peak
// activity hours and maps it to a continent via fixed offset bands. The
// sine/cosine mean handles wraparound at midnight, which an arithmetic mean
// would get wrong.
func estimateRegion(peakStart int) (types.Region, int) {
	var sinSum, cosSum float64
	for i := 0; i < peakWindowHours; i++ {
		h := float64((peakStart + i) % 24)
		rad := h / 24 * 2 * math.Pi
		sinSum += math.Sin(rad)
		cosSum += math.Cos(rad)
	}
	mean := math.Atan2(sinSum, cosSum) / (2 * math.Pi) * 24
	if mean < 0 {
		mean += 24
	}

	offset := int(math.Round(mean - assumedLocalPeakHour))
	if offset < -12 {
		offset += 24
	}
	if offset > 14 {
		offset -= 24
	}

	return regionForOffset(offset), offset
}

// regionForOffset maps a UTC offset to a continent. Bands overlap; they are
// checked in a fixed order and the first match wins.
func regionForOffset(offset int) types.Region {
	switch {
	case offset >= -1 && offset <= 3:
		return types.RegionEurope
	case offset >= 5 && offset <= 9:
		return types.RegionAsia
	case offset >= 8 && offset <= 12:
		return types.RegionOceania
	case offset >= -8 && offset <= -4:
		return types.RegionNorthAmerica
	case offset >= -5 && offset <= -3:
		return types.RegionSouthAmerica
	case offset >= 0 && offset <= 4:
		return types.RegionAfrica
	default:
		return types.RegionUnknown
	}
}

func formatOffset(offset int) string {
	if offset >= 0 {
		return fmt.Sprintf("UTC+%d", offset)
	}
	return fmt.Sprintf("UTC%d", offset)
}

// Market session UTC hour bands. The bands overlap at the handovers, so the
// shares need not sum to one.
var sessionBands = []struct {
	tag       string
	dominant  types.SessionTag
	preferred types.SessionTag
	start     int
	end       int
}{
	{"asia", types.SessionAsiaDominant, types.SessionAsiaPreferred, 0, 9},
	{"europe", types.SessionEuropeDominant, types.SessionEuropePreferred, 7, 16},
	{"us", types.SessionUSDominant, types.SessionUSPreferred, 13, 22},
}

// marketSession classifies which session the wallet concentrates its trades
// in: dominant at 60% share, preferred at 40%, otherwise a multi-session
// trader.
func marketSession(trades []models.Trade) types.SessionTag {
	total := len(trades)
	if total == 0 {
		return types.SessionMultiSession
	}

	bestShare := 0.0
	bestIdx := -1
	for i, band := range sessionBands {
		var n int
		for _, t := range trades {
			h := t.Timestamp.UTC().Hour()
			if h >= band.start && h < band.end {
				n++
			}
		}
		share := float64(n) / float64(total)
		if share > bestShare {
			bestShare = share
			bestIdx = i
		}
	}

	switch {
	case bestIdx >= 0 && bestShare >= sessionDominantMin:
		return sessionBands[bestIdx].dominant
	case bestIdx >= 0 && bestShare >= sessionPreferredMin:
		return sessionBands[bestIdx].preferred
	default:
		return types.SessionMultiSession
	}
}
