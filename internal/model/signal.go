package model

// TradingStrategy selects the decision rules used by an OpenSignaler.
type TradingStrategy int

const (
	TrendFollow TradingStrategy = iota
	MeanReversion
)

func (s TradingStrategy) String() string {
	switch s {
	case TrendFollow:
		return "trend_follow"
	case MeanReversion:
		return "mean_reversion"
	default:
		return "unknown"
	}
}

// ActionKind is the direction of a trade action.
type ActionKind int

const (
	BuyOpen ActionKind = iota + 1
	SellOpen
	BuyClose
	SellClose
)

func (k ActionKind) String() string {
	switch k {
	case BuyOpen:
		return "BUY_OPEN"
	case SellOpen:
		return "SELL_OPEN"
	case BuyClose:
		return "BUY_CLOSE"
	case SellClose:
		return "SELL_CLOSE"
	default:
		return "UNKNOWN"
	}
}

// TradeAction is a trade an OpenSignaler would take at the current price.
type TradeAction struct {
	Kind  ActionKind `json:"kind"`
	Price float64    `json:"price"`
}
