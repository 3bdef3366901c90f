package model

import "context"

// ── Ports ──
// These interfaces decouple the scoring pipeline from the concrete
// indicator engine and price stores.

// IndicatorSource annotates each price with indicator values.
// Annotate mutates the source's own accumulated state, so a source must be
// fed every price of a series exactly once and in order.
type IndicatorSource interface {
	Annotate(price float64) IndicatorSnapshot
}

// OpenSignaler decides whether a trade would open at the latest annotated price.
type OpenSignaler interface {
	IsOpenSignaled(strategy TradingStrategy) []TradeAction
}

// PriceReader loads recorded price series from a remote store.
type PriceReader interface {
	// ReadPriceMarketData returns every stored series grouped by market and symbol.
	ReadPriceMarketData(ctx context.Context) (MarketData, error)

	// Close releases underlying resources.
	Close() error
}

// PriceWriter records price points into a store.
type PriceWriter interface {
	WritePricePoints(ctx context.Context, points []PricePoint) error
	Close() error
}
