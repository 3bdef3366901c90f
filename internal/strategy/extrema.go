package strategy

// ExtremaTracker keeps the running max and min price since its last reset.
// After every Observe, Max >= price >= Min.
type ExtremaTracker struct {
	Max     float64
	Min     float64
	started bool
}

// Observe folds price into the running extrema.
func (e *ExtremaTracker) Observe(price float64) {
	if !e.started {
		e.Reset(price)
		return
	}
	if price > e.Max {
		e.Max = price
	}
	if price < e.Min {
		e.Min = price
	}
}

// Reset starts a new observation window at price.
func (e *ExtremaTracker) Reset(price float64) {
	e.Max = price
	e.Min = price
	e.started = true
}
