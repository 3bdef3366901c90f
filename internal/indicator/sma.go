package indicator

import "crossover-backtester/internal/ringbuf"

// SMA calculates Simple Moving Average over a rolling window.
type SMA struct {
	period  int
	window  *ringbuf.Window[float64]
	sum     float64
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: ringbuf.New[float64](period),
	}
}

func (s *SMA) Name() string { return "SMA" }

func (s *SMA) Update(v float64) {
	if old, ok := s.window.Push(v); ok {
		s.sum -= old
	}
	s.sum += v

	if s.window.Full() {
		s.current = s.sum / float64(s.period)
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.window.Full() }
