package scoring

import (
	"fmt"

	"github.com/rs/zerolog"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/analysis/patterns"
	apperrors "chart-analyzer/internal/errors"
	"chart-analyzer/internal/models"
)

// Engine runs the full pattern analysis pipeline for one instrument:
// validation, every registered detector in fixed category order, then
// aggregation. An Engine is safe for concurrent use; each Analyze call is
// independent.
type Engine struct {
	cfg       analysis.Config
	logger    zerolog.Logger
	detectors []analysis.Detector
}

// NewEngine creates an analysis engine with the standard detector set.
func NewEngine(cfg analysis.Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg.Normalize(),
		logger: logger,
		detectors: []analysis.Detector{
			patterns.NewReversalDetector(),
			patterns.NewContinuationDetector(),
			patterns.NewBreakoutDetector(),
			patterns.NewCandlestickDetector(),
		},
	}
}

// Analyze validates the series, runs every detector, and aggregates the
// detected patterns into a single result. A detector that fails or panics
// is logged and skipped; its category simply contributes nothing. Only an
// invalid series fails the whole call.
func (e *Engine) Analyze(instrumentID string, candles []models.Candle) (analysis.AnalysisResult, error) {
	if err := models.ValidateSeries(candles); err != nil {
		return analysis.AnalysisResult{}, apperrors.Wrapf(err, "analyze %s", instrumentID)
	}

	var instances []analysis.PatternInstance
	for _, det := range e.detectors {
		found, err := e.runDetector(det, candles)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("symbol", instrumentID).
				Str("detector", det.Name()).
				Msg("detector skipped")
			continue
		}
		instances = append(instances, found...)
	}

	result := Aggregate(instrumentID, instances, e.cfg)
	e.logger.Debug().
		Str("symbol", instrumentID).
		Int("patterns", result.PatternsDetected).
		Str("signal", string(result.OverallSignal)).
		Float64("confidence", result.OverallConfidence).
		Msg("analysis complete")
	return result, nil
}

// runDetector isolates one detector call, converting a panic into an error
// so a single detector cannot take down the whole analysis.
func (e *Engine) runDetector(det analysis.Detector, candles []models.Candle) (found []analysis.PatternInstance, err error) {
	defer func() {
		if r := recover(); r != nil {
			found = nil
			err = apperrors.NewDetectorError(det.Name(), fmt.Errorf("panic: %v", r))
		}
	}()
	return det.Detect(candles, e.cfg)
}
