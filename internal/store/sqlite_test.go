package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chart-analyzer/internal/analysis"
	apperrors "chart-analyzer/internal/errors"
	"chart-analyzer/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCandles(n int) []models.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 2,
			Low:       c - 2,
			Close:     c + 1,
			Volume:    int64(1000 + i),
		}
	}
	return out
}

func TestSaveAndGetCandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	candles := testCandles(10)

	if err := s.SaveCandles(ctx, "RELIANCE", "day", candles); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}

	from := candles[0].Timestamp
	to := candles[len(candles)-1].Timestamp
	got, err := s.GetCandles(ctx, "RELIANCE", "day", from, to)
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(got) != len(candles) {
		t.Fatalf("got %d candles, want %d", len(got), len(candles))
	}
	for i := range got {
		if !got[i].Timestamp.Equal(candles[i].Timestamp) || got[i].Close != candles[i].Close {
			t.Errorf("candle %d = %+v, want %+v", i, got[i], candles[i])
		}
	}

	// Saving the same range again must not duplicate rows.
	if err := s.SaveCandles(ctx, "RELIANCE", "day", candles); err != nil {
		t.Fatalf("re-SaveCandles: %v", err)
	}
	got, err = s.GetCandles(ctx, "RELIANCE", "day", from, to)
	if err != nil {
		t.Fatalf("GetCandles after resave: %v", err)
	}
	if len(got) != len(candles) {
		t.Errorf("got %d candles after resave, want %d", len(got), len(candles))
	}
}

func TestGetCandlesFreshness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.GetCandlesFreshness(ctx, "UNKNOWN", "day")
	if err != nil {
		t.Fatalf("GetCandlesFreshness: %v", err)
	}
	if !latest.IsZero() {
		t.Errorf("freshness for unknown symbol = %v, want zero", latest)
	}

	candles := testCandles(5)
	if err := s.SaveCandles(ctx, "TCS", "day", candles); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}
	latest, err = s.GetCandlesFreshness(ctx, "TCS", "day")
	if err != nil {
		t.Fatalf("GetCandlesFreshness: %v", err)
	}
	if !latest.Equal(candles[4].Timestamp) {
		t.Errorf("freshness = %v, want %v", latest, candles[4].Timestamp)
	}
}

func TestSaveAndGetAnalysis(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result := analysis.AnalysisResult{
		InstrumentID:      "INFY",
		OverallSignal:     analysis.SignalSell,
		OverallConfidence: 72.5,
		PatternsDetected:  2,
		TopPatterns: []analysis.PatternInstance{
			{
				Name:       "Double Top",
				Category:   analysis.CategoryReversal,
				Confidence: 85,
				Signal:     analysis.SignalSell,
				KeyLevels:  map[string]float64{"support": 1450},
				Span:       analysis.Span{Start: 10, End: 40},
			},
		},
		CategorySummary: map[analysis.Category]analysis.CategorySummary{
			analysis.CategoryReversal: {Count: 1, DominantSignal: analysis.SignalSell},
		},
	}

	if err := s.SaveAnalysis(ctx, result); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	got, err := s.GetLatestAnalysis(ctx, "INFY")
	if err != nil {
		t.Fatalf("GetLatestAnalysis: %v", err)
	}
	if got.OverallSignal != result.OverallSignal || got.OverallConfidence != result.OverallConfidence {
		t.Errorf("got %+v, want %+v", got, result)
	}
	if len(got.TopPatterns) != 1 || got.TopPatterns[0].Name != "Double Top" {
		t.Errorf("top patterns = %+v", got.TopPatterns)
	}
	if got.TopPatterns[0].KeyLevels["support"] != 1450 {
		t.Errorf("key levels = %+v", got.TopPatterns[0].KeyLevels)
	}
	if got.CategorySummary[analysis.CategoryReversal].Count != 1 {
		t.Errorf("category summary = %+v", got.CategorySummary)
	}
}

func TestGetLatestAnalysisMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetLatestAnalysis(context.Background(), "NOPE")
	if !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("error = %v, want ErrDataNotFound", err)
	}
}

func TestWatchlist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, sym := range []string{"RELIANCE", "TCS", "INFY"} {
		if err := s.AddToWatchlist(ctx, sym, ""); err != nil {
			t.Fatalf("AddToWatchlist(%s): %v", sym, err)
		}
	}
	// Duplicate adds are ignored.
	if err := s.AddToWatchlist(ctx, "TCS", ""); err != nil {
		t.Fatalf("duplicate AddToWatchlist: %v", err)
	}

	symbols, err := s.GetWatchlist(ctx, "")
	if err != nil {
		t.Fatalf("GetWatchlist: %v", err)
	}
	if len(symbols) != 3 {
		t.Fatalf("watchlist = %v, want 3 symbols", symbols)
	}

	if err := s.RemoveFromWatchlist(ctx, "TCS", ""); err != nil {
		t.Fatalf("RemoveFromWatchlist: %v", err)
	}
	symbols, err = s.GetWatchlist(ctx, "")
	if err != nil {
		t.Fatalf("GetWatchlist after remove: %v", err)
	}
	if len(symbols) != 2 {
		t.Errorf("watchlist after remove = %v, want 2 symbols", symbols)
	}
	for _, sym := range symbols {
		if sym == "TCS" {
			t.Error("TCS still present after removal")
		}
	}
}
