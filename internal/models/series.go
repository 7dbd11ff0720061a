package models

import (
	"time"

	apperrors "chart-analyzer/internal/errors"
)

// ValidateSeries checks the structural invariants every analysis call relies
// on: strictly increasing timestamps and well-formed OHLC bars. Gaps between
// timestamps are allowed; they degrade pattern quality but are not an error.
func ValidateSeries(candles []Candle) error {
	var prev time.Time
	for i, c := range candles {
		if i > 0 && !c.Timestamp.After(prev) {
			return apperrors.Wrapf(apperrors.ErrInvalidSeries,
				"non-monotonic timestamp at index %d", i)
		}
		prev = c.Timestamp

		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return apperrors.Wrapf(apperrors.ErrInvalidSeries,
				"non-positive price at index %d", i)
		}
		if c.High < c.Low {
			return apperrors.Wrapf(apperrors.ErrInvalidSeries,
				"high below low at index %d", i)
		}
		hi := c.Open
		if c.Close > hi {
			hi = c.Close
		}
		lo := c.Open
		if c.Close < lo {
			lo = c.Close
		}
		if c.High < hi || c.Low > lo {
			return apperrors.Wrapf(apperrors.ErrInvalidSeries,
				"body outside high/low range at index %d", i)
		}
	}
	return nil
}
