package model

// Outcome is the resolution of a hypothetical trade reported on a tick.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "none"
	}
}

// Field is one named output column value.
type Field struct {
	Name  string
	Value float64
}

// Record is the result of scoring a single tick.
// Fields holds the full output row in the strategy's column order.
type Record struct {
	Tick    Tick
	Score   float64
	Outcome Outcome
	Fields  []Field
}

// BoolValue maps a flag to the 0/1 written in output files.
func BoolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
