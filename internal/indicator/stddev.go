package indicator

import (
	"math"

	"crossover-backtester/internal/ringbuf"
)

// StdDev calculates the population standard deviation over a rolling window.
// Sums are kept relative to the first value seen to limit cancellation on
// large, nearly constant prices.
type StdDev struct {
	period  int
	window  *ringbuf.Window[float64]
	shift   float64
	seeded  bool
	sum     float64
	sumSq   float64
	current float64
}

// NewStdDev creates a rolling standard deviation with the given period.
func NewStdDev(period int) *StdDev {
	return &StdDev{
		period: period,
		window: ringbuf.New[float64](period),
	}
}

func (s *StdDev) Name() string { return "STDDEV" }

func (s *StdDev) Update(v float64) {
	if !s.seeded {
		s.shift = v
		s.seeded = true
	}
	v -= s.shift

	if old, ok := s.window.Push(v); ok {
		s.sum -= old
		s.sumSq -= old * old
	}
	s.sum += v
	s.sumSq += v * v

	if !s.window.Full() {
		return
	}
	n := float64(s.period)
	mean := s.sum / n
	variance := s.sumSq/n - mean*mean
	if variance < 0 {
		// rounding on nearly constant windows
		variance = 0
	}
	s.current = math.Sqrt(variance)
}

func (s *StdDev) Value() float64 { return s.current }
func (s *StdDev) Ready() bool    { return s.window.Full() }
