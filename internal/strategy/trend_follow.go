package strategy

import "crossover-backtester/internal/model"

// TrendFollowGate reports whether the trend-follow rules would open a trade
// on each tick. It keeps no history and is a diagnostic baseline rather than
// a performance scorer.
type TrendFollowGate struct {
	signaler model.OpenSignaler
}

// NewTrendFollowGate creates the gate over the given decision function.
// The signaler must be the same source that annotated the tick.
func NewTrendFollowGate(signaler model.OpenSignaler) *TrendFollowGate {
	return &TrendFollowGate{signaler: signaler}
}

func (g *TrendFollowGate) Name() string { return string(KindTrendFollow) }

func (g *TrendFollowGate) Columns() []string {
	return []string{
		"price", "market_condition", "rsi", "rsi_short", "rsi_long",
		"is_expanding", "trend_type", "is_breakout", "crossover", "adx", "open_action",
	}
}

func (g *TrendFollowGate) Step(tick model.Tick, snap model.IndicatorSnapshot) model.Record {
	display := DisplayNone
	if actions := g.signaler.IsOpenSignaled(model.TrendFollow); len(actions) > 0 {
		switch actions[len(actions)-1].Kind {
		case model.BuyOpen:
			display = DisplayBuyOpen
		case model.SellOpen:
			display = DisplaySellOpen
		}
	}

	return model.Record{
		Tick:  tick,
		Score: display,
		Fields: []model.Field{
			{Name: "price", Value: tick.Price},
			{Name: "market_condition", Value: snap.Condition.Numeric()},
			{Name: "rsi", Value: snap.RSI},
			{Name: "rsi_short", Value: snap.RSIShort},
			{Name: "rsi_long", Value: snap.RSILong},
			{Name: "is_expanding", Value: model.BoolValue(snap.Expanding)},
			{Name: "trend_type", Value: float64(snap.Trend)},
			{Name: "is_breakout", Value: model.BoolValue(snap.Breakout)},
			{Name: "crossover", Value: snap.Crossover},
			{Name: "adx", Value: snap.ADX},
			{Name: "open_action", Value: display},
		},
	}
}
