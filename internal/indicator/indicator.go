// Package indicator provides streaming technical indicators over a single
// price series.
//
// All indicators implement the Indicator interface: they receive one value per
// Update and expose the latest result. Updates are O(1); rolling windows are
// preallocated.
package indicator

// Indicator is the interface for all technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA", "RSI").
	Name() string

	// Update feeds the next value of the series.
	Update(v float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
