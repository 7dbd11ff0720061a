package models

import (
	"testing"
	"time"

	apperrors "chart-analyzer/internal/errors"
)

func validSeries(n int) []Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Candle, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 2,
			Low:       c - 2,
			Close:     c + 1,
			Volume:    1000,
		}
	}
	return out
}

func TestValidateSeries(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]Candle)
		wantErr bool
	}{
		{name: "valid", mutate: func([]Candle) {}},
		{name: "empty is valid", mutate: nil},
		{
			name:    "duplicate timestamp",
			mutate:  func(c []Candle) { c[3].Timestamp = c[2].Timestamp },
			wantErr: true,
		},
		{
			name:    "backwards timestamp",
			mutate:  func(c []Candle) { c[3].Timestamp = c[0].Timestamp },
			wantErr: true,
		},
		{
			name:    "zero price",
			mutate:  func(c []Candle) { c[1].Close = 0 },
			wantErr: true,
		},
		{
			name:    "negative price",
			mutate:  func(c []Candle) { c[1].Low = -5 },
			wantErr: true,
		},
		{
			name:    "high below low",
			mutate:  func(c []Candle) { c[2].High = c[2].Low - 1 },
			wantErr: true,
		},
		{
			name:    "close above high",
			mutate:  func(c []Candle) { c[2].Close = c[2].High + 1 },
			wantErr: true,
		},
		{
			name:    "open below low",
			mutate:  func(c []Candle) { c[2].Open = c[2].Low - 1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var series []Candle
			if tt.mutate != nil {
				series = validSeries(5)
				tt.mutate(series)
			}

			err := ValidateSeries(series)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !apperrors.Is(err, apperrors.ErrInvalidSeries) {
					t.Errorf("error = %v, want ErrInvalidSeries", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCandleAnatomy(t *testing.T) {
	bullish := Candle{Open: 100, High: 108, Low: 98, Close: 105}

	if !bullish.IsBullish() || bullish.IsBearish() {
		t.Error("candle closing above open should be bullish")
	}
	if got := bullish.Body(); got != 5 {
		t.Errorf("Body = %.1f, want 5", got)
	}
	if got := bullish.Range(); got != 10 {
		t.Errorf("Range = %.1f, want 10", got)
	}
	if got := bullish.UpperShadow(); got != 3 {
		t.Errorf("UpperShadow = %.1f, want 3", got)
	}
	if got := bullish.LowerShadow(); got != 2 {
		t.Errorf("LowerShadow = %.1f, want 2", got)
	}

	bearish := Candle{Open: 105, High: 108, Low: 98, Close: 100}
	if got := bearish.UpperShadow(); got != 3 {
		t.Errorf("bearish UpperShadow = %.1f, want 3", got)
	}
	if got := bearish.LowerShadow(); got != 2 {
		t.Errorf("bearish LowerShadow = %.1f, want 2", got)
	}
}

func TestColumnExtractors(t *testing.T) {
	series := validSeries(3)

	highs := Highs(series)
	lows := Lows(series)
	closes := Closes(series)

	for i, c := range series {
		if highs[i] != c.High || lows[i] != c.Low || closes[i] != c.Close {
			t.Fatalf("column mismatch at %d", i)
		}
	}
}
