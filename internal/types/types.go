// Package types provides common type definitions for the wallet radar system.
package types

// Side represents the direction of a trade
type Side string

const (
	// SideLong represents a long trade
	SideLong Side = "long"
	// SideShort represents a short trade
	SideShort Side = "short"
)

// CopyMode represents the risk tier assigned to a qualified wallet
type CopyMode string

const (
	// CopyModeConservative represents the lowest-risk copy tier
	CopyModeConservative CopyMode = "conservative"
	// CopyModeStandard represents the default copy tier
	CopyModeStandard CopyMode = "standard"
	// CopyModeAggressive represents the highest-risk copy tier
	CopyModeAggressive CopyMode = "aggressive"
)

// Tag dimension keys. The tagging engine populates a string map keyed by
// these so the host boundary stays generic; the values come from the closed
// sets defined below.
const (
	TagStyle             = "style"
	TagBehavior          = "behavior"
	TagTimePattern       = "time_pattern"
	TagRegion            = "region"
	TagUTCOffset         = "utc_offset"
	TagAssetFocus        = "asset_focus"
	TagDirectionalBias   = "directional_bias"
	TagDirectionSplit    = "direction_split"
	TagProfitOrientation = "profit_orientation"
	TagMarketSession     = "market_session"
)

// StyleTag classifies a wallet's trading style by average trade duration
type StyleTag string

const (
	StyleScalper       StyleTag = "scalper"
	StyleSwing         StyleTag = "swing"
	StyleTrendFollower StyleTag = "trend_follower"
	StyleRangeTrader   StyleTag = "range_trader"
)

// BehaviorTag classifies position-sizing discipline
type BehaviorTag string

const (
	BehaviorDisciplined BehaviorTag = "disciplined"
	BehaviorBalanced    BehaviorTag = "balanced"
	BehaviorAggressive  BehaviorTag = "aggressive"
)

// TimePatternTag classifies when a wallet trades during the UTC day
type TimePatternTag string

const (
	TimePatternDayTrader    TimePatternTag = "day_trader"
	TimePatternNightTrader  TimePatternTag = "night_trader"
	TimePattern24hOperator  TimePatternTag = "24h_operator"
	TimePatternRegularHours TimePatternTag = "regular_hours"
)

// AssetFocusTag classifies what a wallet holds
type AssetFocusTag string

const (
	AssetFocusBTC      AssetFocusTag = "btc_focused"
	AssetFocusETH      AssetFocusTag = "eth_focused"
	AssetFocusAltcoins AssetFocusTag = "altcoin_hunter"
	AssetFocusMixed    AssetFocusTag = "diversified"
)

// BiasTag classifies the open-position direction split
type BiasTag string

const (
	BiasLongDominant  BiasTag = "long_dominant"
	BiasShortDominant BiasTag = "short_dominant"
	BiasBalanced      BiasTag = "balanced_positioning"
)

// ProfitOrientationTag classifies which trade direction drives profits
type ProfitOrientationTag string

const (
	ProfitableLong  ProfitOrientationTag = "profitable_long"
	ProfitableShort ProfitOrientationTag = "profitable_short"
	EfficientLong   ProfitOrientationTag = "efficient_long"
	EfficientShort  ProfitOrientationTag = "efficient_short"
	BalancedTrader  ProfitOrientationTag = "balanced_trader"
)

// Region represents the continent estimated from a wallet's trading hours
type Region string

const (
	RegionEurope       Region = "europe"
	RegionAsia         Region = "asia"
	RegionOceania      Region = "oceania"
	RegionNorthAmerica Region = "north_america"
	RegionSouthAmerica Region = "south_america"
	RegionAfrica       Region = "africa"
	RegionUnknown      Region = "unknown"
)

// SessionTag classifies the market session a wallet concentrates on
type SessionTag string

const (
	SessionAsiaDominant    SessionTag = "asia_session_dominant"
	SessionAsiaPreferred   SessionTag = "asia_session_preferred"
	SessionEuropeDominant  SessionTag = "europe_session_dominant"
	SessionEuropePreferred SessionTag = "europe_session_preferred"
	SessionUSDominant      SessionTag = "us_session_dominant"
	SessionUSPreferred     SessionTag = "us_session_preferred"
	SessionMultiSession    SessionTag = "multi_session_trader"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
