// Package analysis provides the shared contract for chart pattern detection:
// the detector interface, pattern instances, and the analysis result.
package analysis

import (
	"chart-analyzer/internal/models"
)

// Signal represents a trading signal.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Category represents a pattern category. Categories double as the fixed
// detector evaluation order: reversal detectors run before continuation,
// continuation before breakout, breakout before candlestick.
type Category string

const (
	CategoryReversal     Category = "reversal"
	CategoryContinuation Category = "continuation"
	CategoryBreakout     Category = "breakout"
	CategoryCandlestick  Category = "candlestick"
)

// Categories lists all pattern categories in evaluation order.
func Categories() []Category {
	return []Category{
		CategoryReversal,
		CategoryContinuation,
		CategoryBreakout,
		CategoryCandlestick,
	}
}

// Span is the index range of a series a pattern was detected over.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PatternInstance represents a single detected pattern. Instances are
// created by exactly one detector and are immutable after creation; the
// aggregator consumes them without mutation.
type PatternInstance struct {
	Name        string             `json:"pattern"`
	Category    Category           `json:"category"`
	Confidence  float64            `json:"confidence"`
	Signal      Signal             `json:"signal"`
	Description string             `json:"description"`
	KeyLevels   map[string]float64 `json:"key_levels,omitempty"`
	Span        Span               `json:"span"`
}

// CategorySummary summarizes detected instances of one category.
type CategorySummary struct {
	Count          int    `json:"count"`
	DominantSignal Signal `json:"dominant_signal"`
}

// AnalysisResult is the public result contract for one analysis call.
type AnalysisResult struct {
	InstrumentID      string                       `json:"instrument_id"`
	OverallSignal     Signal                       `json:"overall_signal"`
	OverallConfidence float64                      `json:"overall_confidence"`
	PatternsDetected  int                          `json:"patterns_detected"`
	TopPatterns       []PatternInstance            `json:"top_patterns"`
	CategorySummary   map[Category]CategorySummary `json:"category_summary"`
}

// Detector defines the interface for pattern detection. Implementations
// must be deterministic and side-effect-free: a detector owns the
// instances it creates for the duration of one call and shares no state
// between calls.
type Detector interface {
	Name() string
	Category() Category
	Detect(candles []models.Candle, cfg Config) ([]PatternInstance, error)
}

// LevelKind represents the kind of a horizontal price level.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Clamp restricts a confidence value to [0, 100].
func Clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
