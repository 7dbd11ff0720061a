package scoring

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"chart-analyzer/internal/analysis"
	apperrors "chart-analyzer/internal/errors"
	"chart-analyzer/internal/models"
)

func newTestEngine() *Engine {
	return NewEngine(analysis.DefaultConfig(), zerolog.Nop())
}

func dailySeries(closes []float64) []models.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    10000,
		}
	}
	return out
}

func TestAnalyzeShortSeriesYieldsEmptyResult(t *testing.T) {
	e := newTestEngine()

	result, err := e.Analyze("SHORT", dailySeries([]float64{100, 101, 102}))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.PatternsDetected != 0 {
		t.Errorf("patterns = %d, want 0 for a short series", result.PatternsDetected)
	}
	if result.OverallSignal != analysis.SignalHold {
		t.Errorf("signal = %s, want HOLD", result.OverallSignal)
	}
	if result.OverallConfidence != 0 {
		t.Errorf("confidence = %.1f, want 0", result.OverallConfidence)
	}
}

func TestAnalyzeInvalidSeriesFails(t *testing.T) {
	e := newTestEngine()

	candles := dailySeries([]float64{100, 101, 102})
	candles[2].Timestamp = candles[0].Timestamp // break monotonicity

	_, err := e.Analyze("BAD", candles)
	if err == nil {
		t.Fatal("expected error for non-monotonic series")
	}
	if !apperrors.Is(err, apperrors.ErrInvalidSeries) {
		t.Errorf("error = %v, want ErrInvalidSeries", err)
	}
}

func TestAnalyzeFlatSeriesDegrades(t *testing.T) {
	e := newTestEngine()

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}

	result, err := e.Analyze("FLAT", dailySeries(closes))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.OverallConfidence != 0 || result.OverallSignal != analysis.SignalHold {
		t.Errorf("flat series result = %s/%.1f, want HOLD/0",
			result.OverallSignal, result.OverallConfidence)
	}
}

func TestAnalyzeResultJSONRoundTrip(t *testing.T) {
	e := newTestEngine()

	// A double top series with a support break produces a populated result.
	closes := []float64{90}
	for i := 1; i <= 7; i++ {
		closes = append(closes, 90+10*float64(i)/7)
	}
	for i := 1; i <= 6; i++ {
		closes = append(closes, 100-10*float64(i)/6)
	}
	for i := 1; i <= 7; i++ {
		closes = append(closes, 90+10*float64(i)/7)
	}
	for i := 1; i <= 9; i++ {
		closes = append(closes, 100-13*float64(i)/9)
	}

	result, err := e.Analyze("ROUNDTRIP", dailySeries(closes))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.PatternsDetected == 0 {
		t.Fatal("fixture produced no patterns")
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded analysis.AnalysisResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(result, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, result)
	}
}

// Property: any structurally valid series analyzes without error and the
// confidence lands in [0, 100], as does every reported pattern's.
func TestPropertyAnalyzeConfidenceClamped(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	e := newTestEngine()

	properties.Property("confidence within [0, 100]", prop.ForAll(
		func(raw []float64) bool {
			closes := make([]float64, len(raw))
			for i, v := range raw {
				closes[i] = 50 + v
			}

			result, err := e.Analyze("PROP", dailySeries(closes))
			if err != nil {
				return false
			}
			if result.OverallConfidence < 0 || result.OverallConfidence > 100 {
				return false
			}
			if math.IsNaN(result.OverallConfidence) {
				return false
			}
			for _, p := range result.TopPatterns {
				if p.Confidence < 0 || p.Confidence > 100 || math.IsNaN(p.Confidence) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(80, gen.Float64Range(0, 200)),
	))

	properties.Property("analysis is deterministic", prop.ForAll(
		func(raw []float64) bool {
			closes := make([]float64, len(raw))
			for i, v := range raw {
				closes[i] = 50 + v
			}
			series := dailySeries(closes)

			first, err := e.Analyze("PROP", series)
			if err != nil {
				return false
			}
			second, err := e.Analyze("PROP", series)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		gen.SliceOfN(60, gen.Float64Range(0, 200)),
	))

	properties.TestingRun(t)
}
