// Package analyzer annotates a price series with the indicator values the
// scoring strategies react to, and answers whether a trade would open at the
// latest price.
//
// An Analyzer holds the accumulated state of exactly one series and must be
// fed every price once, in order.
package analyzer

import (
	"math"

	"crossover-backtester/internal/indicator"
	"crossover-backtester/internal/model"
	"crossover-backtester/internal/ringbuf"
)

// Config sets the indicator periods, in ticks.
type Config struct {
	ShortPeriod       int     `yaml:"short_period"`
	LongPeriod        int     `yaml:"long_period"`
	RSIPeriod         int     `yaml:"rsi_period"`
	ADXPeriod         int     `yaml:"adx_period"`
	ADXTrendThreshold float64 `yaml:"adx_trend_threshold"`
}

// DefaultConfig returns the periods used by the reference backtests.
func DefaultConfig() Config {
	return Config{
		ShortPeriod:       60,
		LongPeriod:        240,
		RSIPeriod:         14,
		ADXPeriod:         14,
		ADXTrendThreshold: 25,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ShortPeriod <= 0 {
		c.ShortPeriod = d.ShortPeriod
	}
	if c.LongPeriod <= 0 {
		c.LongPeriod = d.LongPeriod
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = d.RSIPeriod
	}
	if c.ADXPeriod <= 0 {
		c.ADXPeriod = d.ADXPeriod
	}
	if c.ADXTrendThreshold <= 0 {
		c.ADXTrendThreshold = d.ADXTrendThreshold
	}
	return c
}

// Analyzer is the indicator source for one price series.
type Analyzer struct {
	cfg Config

	emaShort *indicator.EMA
	emaLong  *indicator.EMA
	atrShort *indicator.SMMA // smoothed |Δprice|
	atrLong  *indicator.SMMA
	vol      *indicator.StdDev
	rsi      *indicator.RSI
	rsiShort *indicator.RSI
	rsiLong  *indicator.RSI
	adx      *indicator.ADX

	history *ringbuf.Window[float64] // previous LongPeriod prices

	count       int
	prevPrice   float64
	prevDiff    float64
	hasPrevDiff bool

	last      model.IndicatorSnapshot
	lastPrice float64
}

// New creates an Analyzer; zero config fields fall back to defaults.
func New(cfg Config) *Analyzer {
	cfg = cfg.withDefaults()
	return &Analyzer{
		cfg:      cfg,
		emaShort: indicator.NewEMA(cfg.ShortPeriod),
		emaLong:  indicator.NewEMA(cfg.LongPeriod),
		atrShort: indicator.NewSMMA(cfg.ShortPeriod),
		atrLong:  indicator.NewSMMA(cfg.LongPeriod),
		vol:      indicator.NewStdDev(cfg.ShortPeriod),
		rsi:      indicator.NewRSI(cfg.RSIPeriod),
		rsiShort: indicator.NewRSI(cfg.ShortPeriod),
		rsiLong:  indicator.NewRSI(cfg.LongPeriod),
		adx:      indicator.NewADX(cfg.ADXPeriod),
		history:  ringbuf.New[float64](cfg.LongPeriod),
	}
}

// Annotate folds price into the series state and returns its indicator values.
func (a *Analyzer) Annotate(price float64) model.IndicatorSnapshot {
	a.count++
	if a.count > 1 {
		change := math.Abs(price - a.prevPrice)
		a.atrShort.Update(change)
		a.atrLong.Update(change)
	}
	a.prevPrice = price

	for _, ind := range []indicator.Indicator{a.emaShort, a.emaLong, a.vol, a.rsi, a.rsiShort, a.rsiLong, a.adx} {
		ind.Update(price)
	}

	snap := model.IndicatorSnapshot{
		Crossover:  a.crossover(),
		Spread:     a.atrShort.Value(),
		Volatility: a.vol.Value(),
		RSI:        a.rsi.Value(),
		RSIShort:   a.rsiShort.Value(),
		RSILong:    a.rsiLong.Value(),
		ADX:        a.adx.Value(),
	}

	if a.atrShort.Ready() && a.atrLong.Ready() {
		s, l := a.atrShort.Value(), a.atrLong.Value()
		if s+l > 0 {
			snap.Volatility2 = s / (s + l)
		}
		snap.Expanding = s > l
	}

	snap.Trend = a.trend()
	snap.Breakout = a.breakout(price)
	a.history.Push(price)

	switch {
	case snap.Trend == model.TrendUp:
		snap.Condition = model.ConditionBullish
	case snap.Trend == model.TrendDown:
		snap.Condition = model.ConditionBearish
	case snap.Expanding:
		snap.Condition = model.ConditionVolatile
	default:
		snap.Condition = model.ConditionNeutral
	}

	a.last = snap
	a.lastPrice = price
	return snap
}

// crossover reports 1 on the tick the short EMA crosses above the long EMA,
// 0 on a cross below and NeutralCrossover otherwise.
func (a *Analyzer) crossover() float64 {
	if !a.emaShort.Ready() || !a.emaLong.Ready() {
		return model.NeutralCrossover
	}
	diff := a.emaShort.Value() - a.emaLong.Value()
	prev, had := a.prevDiff, a.hasPrevDiff
	a.prevDiff, a.hasPrevDiff = diff, true
	if !had {
		return model.NeutralCrossover
	}

	switch {
	case prev <= 0 && diff > 0:
		return 1
	case prev >= 0 && diff < 0:
		return 0
	default:
		return model.NeutralCrossover
	}
}

func (a *Analyzer) trend() model.TrendType {
	if !a.emaLong.Ready() || !a.adx.Ready() || a.adx.Value() < a.cfg.ADXTrendThreshold {
		return model.TrendSideways
	}
	switch diff := a.emaShort.Value() - a.emaLong.Value(); {
	case diff > 0:
		return model.TrendUp
	case diff < 0:
		return model.TrendDown
	default:
		return model.TrendSideways
	}
}

// breakout reports whether price leaves the range of the previous LongPeriod prices.
func (a *Analyzer) breakout(price float64) bool {
	if !a.history.Full() {
		return false
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	a.history.Each(func(p float64) {
		hi = math.Max(hi, p)
		lo = math.Min(lo, p)
	})
	return price > hi || price < lo
}

// IsOpenSignaled returns the open actions strategy would take at the latest
// annotated price. The slice is empty when nothing opens.
func (a *Analyzer) IsOpenSignaled(strategy model.TradingStrategy) []model.TradeAction {
	if a.count == 0 {
		return nil
	}
	snap := a.last

	switch strategy {
	case model.TrendFollow:
		switch {
		case snap.Crossover == 1 && snap.Trend == model.TrendUp && snap.RSI < 70:
			return []model.TradeAction{{Kind: model.BuyOpen, Price: a.lastPrice}}
		case snap.Crossover == 0 && snap.Trend == model.TrendDown && snap.RSI > 30:
			return []model.TradeAction{{Kind: model.SellOpen, Price: a.lastPrice}}
		}
	case model.MeanReversion:
		if !a.rsi.Ready() {
			return nil
		}
		switch {
		case snap.RSI < 30:
			return []model.TradeAction{{Kind: model.BuyOpen, Price: a.lastPrice}}
		case snap.RSI > 70:
			return []model.TradeAction{{Kind: model.SellOpen, Price: a.lastPrice}}
		}
	}
	return nil
}

// Count returns the number of prices annotated so far.
func (a *Analyzer) Count() int { return a.count }
