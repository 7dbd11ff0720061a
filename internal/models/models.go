// Package models provides domain models for the chart analysis application.
package models

import (
	"time"
)

// Candle represents OHLCV data for a time period. Immutable once ingested.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Range returns the full high-low range of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Body returns the absolute open-close body size of the candle.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// UpperShadow returns the wick above the body.
func (c Candle) UpperShadow() float64 {
	if c.Close >= c.Open {
		return c.High - c.Close
	}
	return c.High - c.Open
}

// LowerShadow returns the wick below the body.
func (c Candle) LowerShadow() float64 {
	if c.Close >= c.Open {
		return c.Open - c.Low
	}
	return c.Close - c.Low
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Highs extracts the high column from a candle series.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low column from a candle series.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Closes extracts the close column from a candle series.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Instrument represents an analyzable instrument.
type Instrument struct {
	Symbol   string
	Name     string
	Exchange string
}
