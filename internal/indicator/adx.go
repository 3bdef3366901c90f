package indicator

import "math"

// ADX calculates the Average Directional Index from a close-only series.
// Directional movement is taken from consecutive closes: +DM is the rise,
// -DM the fall, and the true range is the absolute change. All three and the
// final DX average use Wilder smoothing.
type ADX struct {
	period    int
	count     int
	prevClose float64

	tr    *SMMA
	plus  *SMMA
	minus *SMMA
	dx    *SMMA

	plusDI  float64
	minusDI float64
}

// NewADX creates a new ADX indicator with the given period (typically 14).
func NewADX(period int) *ADX {
	return &ADX{
		period: period,
		tr:     NewSMMA(period),
		plus:   NewSMMA(period),
		minus:  NewSMMA(period),
		dx:     NewSMMA(period),
	}
}

func (a *ADX) Name() string { return "ADX" }

func (a *ADX) Update(price float64) {
	a.count++
	if a.count == 1 {
		a.prevClose = price
		return
	}

	delta := price - a.prevClose
	a.prevClose = price

	up, down := 0.0, 0.0
	if delta > 0 {
		up = delta
	} else {
		down = -delta
	}
	a.tr.Update(math.Abs(delta))
	a.plus.Update(up)
	a.minus.Update(down)

	if !a.tr.Ready() {
		return
	}

	tr := a.tr.Value()
	if tr == 0 {
		a.plusDI, a.minusDI = 0, 0
	} else {
		a.plusDI = 100 * a.plus.Value() / tr
		a.minusDI = 100 * a.minus.Value() / tr
	}

	dx := 0.0
	if sum := a.plusDI + a.minusDI; sum > 0 {
		dx = 100 * math.Abs(a.plusDI-a.minusDI) / sum
	}
	a.dx.Update(dx)
}

func (a *ADX) Value() float64 { return a.dx.Value() }
func (a *ADX) Ready() bool    { return a.dx.Ready() }
