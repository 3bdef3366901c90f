package strategy

import "crossover-backtester/internal/model"

// CrossoverRiseScorer scores how price moved between consecutive crossover
// signals relative to the direction of the earlier signal.
//
// On every signalled tick that has a previous signal to compare against, the
// extrema since the previous evaluation decide whether price rose or fell.
// Movement aligned with the previous signal by more than SpreadMultiple
// spreads is a success, a reversal by more than that is a failure, anything
// else stays at baseline.
type CrossoverRiseScorer struct {
	params Params

	prevPrice        float64
	prevCrossover    float64
	hasPrevCrossover bool
	extrema          ExtremaTracker
}

// NewCrossoverRiseScorer creates a scorer; zero params fall back to defaults.
func NewCrossoverRiseScorer(params Params) *CrossoverRiseScorer {
	return &CrossoverRiseScorer{params: params.withDefaults()}
}

func (s *CrossoverRiseScorer) Name() string { return string(KindCrossoverRise) }

func (s *CrossoverRiseScorer) Columns() []string {
	return []string{"price", "crossover", "score", "spread"}
}

func (s *CrossoverRiseScorer) Step(tick model.Tick, snap model.IndicatorSnapshot) model.Record {
	s.extrema.Observe(tick.Price)

	outcome := model.OutcomeNone
	if snap.HasSignal() && s.hasPrevCrossover {
		outcome = s.evaluate(snap.Spread)
		s.extrema.Reset(tick.Price)
	}
	if snap.HasSignal() {
		s.prevCrossover = snap.Crossover
		s.hasPrevCrossover = true
	}
	s.prevPrice = tick.Price

	score := scoreFor(outcome)
	return model.Record{
		Tick:    tick,
		Score:   score,
		Outcome: outcome,
		Fields: []model.Field{
			{Name: "price", Value: tick.Price},
			{Name: "crossover", Value: snap.Crossover},
			{Name: "score", Value: score},
			{Name: "spread", Value: snap.Spread},
		},
	}
}

func (s *CrossoverRiseScorer) evaluate(spread float64) model.Outcome {
	var rise bool
	switch {
	case s.extrema.Max > s.prevPrice:
		rise = true
	case s.extrema.Min < s.prevPrice:
		rise = false
	default:
		return model.OutcomeNone
	}

	up := s.extrema.Max - s.prevPrice
	down := s.prevPrice - s.extrema.Min
	threshold := s.params.SpreadMultiple * spread
	bullish := s.prevCrossover > model.NeutralCrossover

	// The move is measured in the direction price actually went.
	move := down
	if rise {
		move = up
	}
	if move <= threshold {
		return model.OutcomeNone
	}
	if rise == bullish {
		return model.OutcomeSuccess
	}
	return model.OutcomeFailure
}
