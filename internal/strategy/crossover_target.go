package strategy

import "crossover-backtester/internal/model"

// Direction is the side of a crossover event.
type Direction int

const (
	DirectionUp Direction = iota + 1
	DirectionDown
)

func (d Direction) String() string {
	if d == DirectionUp {
		return "up"
	}
	return "down"
}

// CrossoverEvent is a hypothetical trade opened at a crossover signal.
type CrossoverEvent struct {
	AnchorIndex int
	Direction   Direction
	AnchorPrice float64
}

// Target returns the price the event must reach given the current spread.
func (e CrossoverEvent) Target(spread, scale float64) float64 {
	if e.Direction == DirectionUp {
		return e.AnchorPrice + spread*scale
	}
	return e.AnchorPrice - spread*scale
}

// Reached reports whether price has reached or passed the target.
func (e CrossoverEvent) Reached(price, spread, scale float64) bool {
	target := e.Target(spread, scale)
	if e.Direction == DirectionUp {
		return price >= target
	}
	return price <= target
}

// CrossoverTargetScorer opens an event on each volatile crossover signal and
// scores whether price reaches a spread-scaled target within TradingPeriod
// ticks of the anchor.
//
// Per tick, in order:
//  1. a new signal replaces the open event; replacing an unresolved event fails it
//  2. inside the window (index <= anchor+period) the target check may mark it achieved
//  3. past the window the event fails and is cleared
//  4. an achieved event succeeds and is cleared, overriding 1 and 3
//
// At most one event is open and at most one outcome is reported per tick.
type CrossoverTargetScorer struct {
	params   Params
	open     *CrossoverEvent
	achieved bool
}

// NewCrossoverTargetScorer creates a scorer; zero params fall back to defaults.
func NewCrossoverTargetScorer(params Params) *CrossoverTargetScorer {
	return &CrossoverTargetScorer{params: params.withDefaults()}
}

func (s *CrossoverTargetScorer) Name() string { return string(KindCrossoverTarget) }

func (s *CrossoverTargetScorer) Columns() []string {
	return []string{"price", "crossover", "score", "volatility", "volatility2"}
}

func (s *CrossoverTargetScorer) Step(tick model.Tick, snap model.IndicatorSnapshot) model.Record {
	outcome := model.OutcomeNone

	if snap.Volatility2 > s.params.VolatilityThreshold && snap.HasSignal() {
		if s.open != nil {
			outcome = model.OutcomeFailure
		}
		dir := DirectionDown
		if snap.Bullish() {
			dir = DirectionUp
		}
		s.open = &CrossoverEvent{AnchorIndex: tick.Index, Direction: dir, AnchorPrice: tick.Price}
		s.achieved = false
	}

	if s.open != nil {
		if tick.Index <= s.open.AnchorIndex+s.params.TradingPeriod {
			if s.open.Reached(tick.Price, snap.Spread, s.params.TargetScale) {
				s.achieved = true
			}
		} else {
			outcome = model.OutcomeFailure
			s.open = nil
		}
	}

	if s.achieved {
		outcome = model.OutcomeSuccess
		s.open = nil
		s.achieved = false
	}

	score := scoreFor(outcome)
	return model.Record{
		Tick:    tick,
		Score:   score,
		Outcome: outcome,
		Fields: []model.Field{
			{Name: "price", Value: tick.Price},
			{Name: "crossover", Value: snap.Crossover},
			{Name: "score", Value: score},
			{Name: "volatility", Value: snap.Volatility},
			{Name: "volatility2", Value: snap.Volatility2},
		},
	}
}

// OpenEvent returns the currently open event, if any.
func (s *CrossoverTargetScorer) OpenEvent() (CrossoverEvent, bool) {
	if s.open == nil {
		return CrossoverEvent{}, false
	}
	return *s.open, true
}
