package patterns

import (
	"time"

	"chart-analyzer/internal/models"
)

// seriesFromCloses builds a daily candle series from close values. Each
// bar gets a half-point wick on both sides so highs and lows follow the
// close curve's shape.
func seriesFromCloses(closes []float64) []models.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		hi := c
		if open > hi {
			hi = open
		}
		lo := c
		if open < lo {
			lo = open
		}
		candles[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      open,
			High:      hi + 0.5,
			Low:       lo - 0.5,
			Close:     c,
			Volume:    10000,
		}
	}
	return candles
}

// ramp appends a linear segment from the last value of dst (exclusive) to
// target over steps values.
func ramp(dst []float64, target float64, steps int) []float64 {
	last := dst[len(dst)-1]
	for i := 1; i <= steps; i++ {
		dst = append(dst, last+(target-last)*float64(i)/float64(steps))
	}
	return dst
}
