package exchange

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wallet-radar/internal/models"
	"github.com/wallet-radar/internal/types"
)

// The info endpoint encodes every numeric field as a string.

// leaderboardRow is one entry of the leaderboard response
type leaderboardRow struct {
	EthAddress         string              `json:"ethAddress"`
	DisplayName        string              `json:"displayName"`
	AccountValue       string              `json:"accountValue"`
	WindowPerformances []windowPerformance `json:"windowPerformances"`
}

// windowPerformance is a ["day", {...}] pair; the API emits heterogeneous
// two-element arrays.
type windowPerformance [2]interface{}

type performanceEntry struct {
	PnL string `json:"pnl"`
	ROI string `json:"roi"`
	Vlm string `json:"vlm"`
}

// leaderboardResponse is the leaderboard payload
type leaderboardResponse struct {
	LeaderboardRows []leaderboardRow `json:"leaderboardRows"`
}

// clearinghouseState is the account state payload
type clearinghouseState struct {
	MarginSummary struct {
		AccountValue string `json:"accountValue"`
	} `json:"marginSummary"`
	AssetPositions []struct {
		Position struct {
			Coin     string `json:"coin"`
			Szi      string `json:"szi"`
			Leverage struct {
				Value float64 `json:"value"`
			} `json:"leverage"`
			EntryPx        string `json:"entryPx"`
			PositionValue  string `json:"positionValue"`
			UnrealizedPnl  string `json:"unrealizedPnl"`
			ReturnOnEquity string `json:"returnOnEquity"`
			MarginUsed     string `json:"marginUsed"`
		} `json:"position"`
	} `json:"assetPositions"`
}

// wireFill is one fill of the userFillsByTime payload
type wireFill struct {
	Coin      string `json:"coin"`
	Px        string `json:"px"`
	Sz        string `json:"sz"`
	Dir       string `json:"dir"`
	Time      int64  `json:"time"`
	ClosedPnl string `json:"closedPnl"`
	Leverage  string `json:"leverage"`
}

func parseNum(field, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return v, nil
}

// sideFromDir maps a fill direction label to a position side.
// Directions look like "Open Long", "Close Short", "Long > Short".
func sideFromDir(dir string) types.Side {
	if strings.HasSuffix(dir, "Short") {
		return types.SideShort
	}
	return types.SideLong
}

func (f wireFill) toTrade(wallet string) (models.Trade, error) {
	px, err := parseNum("px", f.Px)
	if err != nil {
		return models.Trade{}, err
	}
	sz, err := parseNum("sz", f.Sz)
	if err != nil {
		return models.Trade{}, err
	}
	pnl, err := parseNum("closedPnl", f.ClosedPnl)
	if err != nil {
		return models.Trade{}, err
	}
	lev, err := parseNum("leverage", f.Leverage)
	if err != nil {
		return models.Trade{}, err
	}
	if lev == 0 {
		lev = 1
	}

	return models.Trade{
		Wallet:        wallet,
		Coin:          f.Coin,
		Side:          sideFromDir(f.Dir),
		Size:          sz,
		Price:         px,
		Timestamp:     time.UnixMilli(f.Time).UTC(),
		Leverage:      lev,
		ClosedPnL:     pnl,
		TradeValueUSD: px * sz,
	}, nil
}

func (s clearinghouseState) toPositions() ([]models.Position, float64, error) {
	accountValue, err := parseNum("accountValue", s.MarginSummary.AccountValue)
	if err != nil {
		return nil, 0, err
	}

	positions := make([]models.Position, 0, len(s.AssetPositions))
	for _, ap := range s.AssetPositions {
		p := ap.Position
		size, err := parseNum("szi", p.Szi)
		if err != nil {
			return nil, 0, err
		}
		if size == 0 {
			continue
		}
		entry, err := parseNum("entryPx", p.EntryPx)
		if err != nil {
			return nil, 0, err
		}
		value, err := parseNum("positionValue", p.PositionValue)
		if err != nil {
			return nil, 0, err
		}
		upnl, err := parseNum("unrealizedPnl", p.UnrealizedPnl)
		if err != nil {
			return nil, 0, err
		}
		roe, err := parseNum("returnOnEquity", p.ReturnOnEquity)
		if err != nil {
			return nil, 0, err
		}
		margin, err := parseNum("marginUsed", p.MarginUsed)
		if err != nil {
			return nil, 0, err
		}

		positions = append(positions, models.Position{
			Coin:          p.Coin,
			Size:          size,
			Leverage:      p.Leverage.Value,
			EntryPrice:    entry,
			PositionValue: value,
			UnrealizedPnL: upnl,
			ROI:           roe,
			MarginUsed:    margin,
		})
	}
	return positions, accountValue, nil
}

// toWallet converts a leaderboard row into a wallet shell with rolling
// window stats. Unknown window labels are ignored.
func (r leaderboardRow) toWallet() (models.Wallet, error) {
	accountValue, err := parseNum("accountValue", r.AccountValue)
	if err != nil {
		return models.Wallet{}, err
	}

	w := models.Wallet{
		Address:      r.EthAddress,
		DisplayName:  r.DisplayName,
		AccountValue: accountValue,
	}

	for _, wp := range r.WindowPerformances {
		label, ok := wp[0].(string)
		if !ok {
			continue
		}
		entryMap, ok := wp[1].(map[string]interface{})
		if !ok {
			continue
		}
		entry := performanceEntry{
			PnL: stringField(entryMap, "pnl"),
			ROI: stringField(entryMap, "roi"),
			Vlm: stringField(entryMap, "vlm"),
		}

		pnl, err := parseNum("pnl", entry.PnL)
		if err != nil {
			return models.Wallet{}, err
		}
		roi, err := parseNum("roi", entry.ROI)
		if err != nil {
			return models.Wallet{}, err
		}
		vlm, err := parseNum("vlm", entry.Vlm)
		if err != nil {
			return models.Wallet{}, err
		}

		switch label {
		case "day":
			w.Stats.ROI.Day, w.Stats.PnL.Day, w.Stats.Volume.Day = roi, pnl, vlm
		case "week":
			w.Stats.ROI.Week, w.Stats.PnL.Week, w.Stats.Volume.Week = roi, pnl, vlm
		case "month":
			w.Stats.ROI.Month, w.Stats.PnL.Month, w.Stats.Volume.Month = roi, pnl, vlm
		case "allTime":
			w.Stats.ROI.AllTime, w.Stats.PnL.AllTime, w.Stats.Volume.AllTime = roi, pnl, vlm
		}
	}

	return w, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
