package model

import (
	"sort"
	"time"
)

// PricePoint is one recorded price of a symbol.
type PricePoint struct {
	Market string    `json:"market"`
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"`
	Price  float64   `json:"price"`
}

// MarketData groups recorded series: market → symbol → points ordered by TS.
type MarketData map[string]map[string][]PricePoint

// Add appends p to its series, creating the market entry on first use.
func (md MarketData) Add(p PricePoint) {
	bySymbol, ok := md[p.Market]
	if !ok {
		bySymbol = make(map[string][]PricePoint)
		md[p.Market] = bySymbol
	}
	bySymbol[p.Symbol] = append(bySymbol[p.Symbol], p)
}

// SeriesCount returns the number of (market, symbol) series.
func (md MarketData) SeriesCount() int {
	n := 0
	for _, bySymbol := range md {
		n += len(bySymbol)
	}
	return n
}

// SortByTime orders every series by TS. Points with equal TS keep their
// relative order.
func (md MarketData) SortByTime() {
	for _, bySymbol := range md {
		for _, points := range bySymbol {
			sort.SliceStable(points, func(i, j int) bool {
				return points[i].TS.Before(points[j].TS)
			})
		}
	}
}
