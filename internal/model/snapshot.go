package model

// NeutralCrossover is the crossover value meaning "no directional signal".
// Only exact equality is neutral.
const NeutralCrossover = 0.5

// TrendType classifies the prevailing trend at a tick.
type TrendType int

const (
	TrendSideways TrendType = 0
	TrendUp       TrendType = 1
	TrendDown     TrendType = -1
)

func (t TrendType) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "sideways"
	}
}

// MarketCondition is a coarse classification of the market at a tick.
type MarketCondition int

const (
	ConditionNeutral  MarketCondition = 0
	ConditionBullish  MarketCondition = 1
	ConditionBearish  MarketCondition = -1
	ConditionVolatile MarketCondition = 2
)

// Numeric returns the value written to output files.
func (c MarketCondition) Numeric() float64 { return float64(c) }

// IndicatorSnapshot holds the indicator values produced for one price.
// Strategies only read it; they never recompute any of these.
type IndicatorSnapshot struct {
	Crossover   float64 `json:"crossover"` // [0,1], NeutralCrossover = no signal
	Spread      float64 `json:"spread"`
	Volatility  float64 `json:"volatility"`
	Volatility2 float64 `json:"volatility2"`

	RSI      float64 `json:"rsi"`
	RSIShort float64 `json:"rsi_short"`
	RSILong  float64 `json:"rsi_long"`
	ADX      float64 `json:"adx"`

	Trend     TrendType       `json:"trend"`
	Condition MarketCondition `json:"condition"`
	Expanding bool            `json:"expanding"`
	Breakout  bool            `json:"breakout"`
}

// HasSignal reports whether the crossover value carries a direction.
func (s IndicatorSnapshot) HasSignal() bool {
	return s.Crossover != NeutralCrossover
}

// Bullish reports whether the crossover value points up.
func (s IndicatorSnapshot) Bullish() bool {
	return s.Crossover > NeutralCrossover
}
