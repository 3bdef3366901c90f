package model

// Tick is one indexed price observation from an input series.
// Index starts at 0 for each file and only counts prices that parsed.
type Tick struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}
