package model

import "time"

// PriceBar represents a single candlestick bar.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds raw price data for one instrument.
// Bars are ordered ascending by time and never mutated after fetch.
type PriceSeries struct {
	Symbol       string
	Bars         []PriceBar
	CurrentPrice float64
	FetchedAt    time.Time
}

// Closes returns the close prices of the series in bar order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}
