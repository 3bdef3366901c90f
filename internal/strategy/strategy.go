// Package strategy provides the scoring strategies replayed over price series.
//
// A Strategy consumes one annotated tick at a time and reports a score for it.
// Strategies keep only bounded backward memory (an open event, extrema) and
// never look past the current tick. Step is total: every branch is a score,
// penalties are outcomes rather than errors.
package strategy

import (
	"fmt"
	"strings"

	"crossover-backtester/internal/model"
)

// Scores reported by the crossover scorers. A tick reports exactly one of these.
const (
	BaselineScore = 1.3
	SuccessScore  = 1.5
	FailureScore  = 1.1
)

// Display values reported by TrendFollowGate.
const (
	DisplayBuyOpen  = 1.025
	DisplaySellOpen = 0.975
	DisplayNone     = 1.0
)

// Strategy is the interface every scoring policy implements.
type Strategy interface {
	// Name returns the strategy identifier used in logs and metrics.
	Name() string

	// Columns returns the output schema, one name per record field.
	Columns() []string

	// Step scores one tick. It is called exactly once per tick in index order.
	Step(tick model.Tick, snap model.IndicatorSnapshot) model.Record
}

// Kind names a scoring policy.
type Kind string

const (
	KindTrendFollow     Kind = "trend_follow"
	KindCrossoverRise   Kind = "crossover_rise"
	KindCrossoverTarget Kind = "crossover_target"
)

// ParseKind normalizes a configured strategy name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTrendFollow, KindCrossoverRise, KindCrossoverTarget:
		return k, nil
	case "":
		return KindCrossoverTarget, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

// Params holds the tunable constants shared by the crossover scorers.
type Params struct {
	TradingPeriod       int     `yaml:"trading_period"`       // ticks an event may stay open
	TargetScale         float64 `yaml:"target_scale"`         // k in anchor ± spread·k
	VolatilityThreshold float64 `yaml:"volatility_threshold"` // volatility2 needed to open an event
	SpreadMultiple      float64 `yaml:"spread_multiple"`      // movement threshold in spreads
}

// DefaultParams returns the reference constants.
func DefaultParams() Params {
	return Params{
		TradingPeriod:       60,
		TargetScale:         0.0005,
		VolatilityThreshold: 0.3,
		SpreadMultiple:      10,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.TradingPeriod <= 0 {
		p.TradingPeriod = d.TradingPeriod
	}
	if p.TargetScale <= 0 {
		p.TargetScale = d.TargetScale
	}
	if p.VolatilityThreshold <= 0 {
		p.VolatilityThreshold = d.VolatilityThreshold
	}
	if p.SpreadMultiple <= 0 {
		p.SpreadMultiple = d.SpreadMultiple
	}
	return p
}

// Build returns a fresh strategy instance for kind.
// signaler is only used by KindTrendFollow.
func Build(kind Kind, params Params, signaler model.OpenSignaler) (Strategy, error) {
	switch kind {
	case KindTrendFollow:
		if signaler == nil {
			return nil, fmt.Errorf("strategy %s needs an open signaler", kind)
		}
		return NewTrendFollowGate(signaler), nil
	case KindCrossoverRise:
		return NewCrossoverRiseScorer(params), nil
	case KindCrossoverTarget:
		return NewCrossoverTargetScorer(params), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
}

// scoreFor maps an outcome to the crossover score scale.
func scoreFor(o model.Outcome) float64 {
	switch o {
	case model.OutcomeSuccess:
		return SuccessScore
	case model.OutcomeFailure:
		return FailureScore
	default:
		return BaselineScore
	}
}
