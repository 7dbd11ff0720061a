package patterns

import (
	"fmt"
	"math"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/analysis/extrema"
	"chart-analyzer/internal/models"
)

const (
	minBreakoutBars = 50

	// A close must clear a level by 0.5% to count as a break rather than
	// a touch.
	breakMargin = 0.005
	// Price within 2% below resistance (or above support) is approaching
	// the level; within 3% is trading near it.
	approachMargin = 0.02
	nearMargin     = 0.03

	volumeSpikeRatio = 1.5
	volumeBonus      = 15
)

// BreakoutDetector clusters historical extrema into support and resistance
// levels and signals when price breaks, approaches, or holds near the
// strongest level.
type BreakoutDetector struct{}

// NewBreakoutDetector creates a new support/resistance breakout detector.
func NewBreakoutDetector() *BreakoutDetector {
	return &BreakoutDetector{}
}

func (d *BreakoutDetector) Name() string {
	return "BreakoutDetector"
}

func (d *BreakoutDetector) Category() analysis.Category {
	return analysis.CategoryBreakout
}

// Detect emits at most one instance: a confirmed breakout or breakdown takes
// priority, then an approaching level, then a near-level consolidation.
func (d *BreakoutDetector) Detect(candles []models.Candle, cfg analysis.Config) ([]analysis.PatternInstance, error) {
	cfg = cfg.Normalize()
	if len(candles) < minBreakoutBars {
		return nil, nil
	}

	window := candles
	if len(window) > minBreakoutBars {
		window = window[len(window)-minBreakoutBars:]
	}
	offset := len(candles) - len(window)

	highs := models.Highs(window)
	lows := models.Lows(window)
	closes := models.Closes(window)
	lastClose := closes[len(closes)-1]

	peaks, _ := extrema.Find(highs, cfg.MinSeparation, cfg.ProminenceTolerance)
	_, valleys := extrema.Find(lows, cfg.MinSeparation, cfg.ProminenceTolerance)

	resistance := StrongLevels(
		ClusterLevels(peaks, analysis.LevelResistance, cfg.LevelTolerance),
		cfg.MinTouches, cfg.LevelTolerance)
	support := StrongLevels(
		ClusterLevels(valleys, analysis.LevelSupport, cfg.LevelTolerance),
		cfg.MinTouches, cfg.LevelTolerance)

	volumeConfirmed := hasVolumeSpike(window)

	// Confirmed breaks first. Levels arrive strongest first, so the first
	// match is the one that matters.
	for _, lvl := range resistance {
		if lastClose > lvl.Price*(1+breakMargin) {
			return []analysis.PatternInstance{breakInstance(lvl, lastClose, cfg.LevelTolerance, volumeConfirmed, offset, len(window))}, nil
		}
	}
	for _, lvl := range support {
		if lastClose < lvl.Price*(1-breakMargin) {
			return []analysis.PatternInstance{breakInstance(lvl, lastClose, cfg.LevelTolerance, volumeConfirmed, offset, len(window))}, nil
		}
	}

	// Approaching a level from the inside.
	for _, lvl := range resistance {
		if lastClose <= lvl.Price && lastClose >= lvl.Price*(1-approachMargin) {
			return []analysis.PatternInstance{approachInstance(lvl, offset, len(window))}, nil
		}
	}
	for _, lvl := range support {
		if lastClose >= lvl.Price && lastClose <= lvl.Price*(1+approachMargin) {
			return []analysis.PatternInstance{approachInstance(lvl, offset, len(window))}, nil
		}
	}

	// Trading near a level without direction.
	for _, lvl := range append(resistance, support...) {
		if math.Abs(lastClose-lvl.Price)/lvl.Price <= nearMargin {
			return []analysis.PatternInstance{nearInstance(lvl, offset, len(window))}, nil
		}
	}

	return nil, nil
}

func breakInstance(lvl Level, lastClose, tolerance float64, volumeConfirmed bool, offset, windowLen int) analysis.PatternInstance {
	strength := lvl.Strength(tolerance)
	confidence := math.Min(85, 50+strength*10)

	var name, description string
	var signal analysis.Signal
	if lvl.Kind == analysis.LevelResistance {
		name = "Resistance Breakout"
		signal = analysis.SignalBuy
		description = fmt.Sprintf("Breakout above resistance %.2f (%d touches)", lvl.Price, lvl.TouchCount)
	} else {
		name = "Support Breakdown"
		signal = analysis.SignalSell
		description = fmt.Sprintf("Breakdown below support %.2f (%d touches)", lvl.Price, lvl.TouchCount)
	}
	if volumeConfirmed {
		confidence = math.Min(90, confidence+volumeBonus)
		description += ", volume confirmed"
	}

	return analysis.PatternInstance{
		Name:        name,
		Category:    analysis.CategoryBreakout,
		Confidence:  analysis.Clamp(confidence),
		Signal:      signal,
		Description: description,
		KeyLevels: map[string]float64{
			"level":      lvl.Price,
			"touches":    float64(lvl.TouchCount),
			"last_close": lastClose,
		},
		Span: analysis.Span{Start: offset, End: offset + windowLen - 1},
	}
}

func approachInstance(lvl Level, offset, windowLen int) analysis.PatternInstance {
	var name, description string
	if lvl.Kind == analysis.LevelResistance {
		name = "Approaching Resistance"
		description = fmt.Sprintf("Price approaching resistance at %.2f (%d touches)", lvl.Price, lvl.TouchCount)
	} else {
		name = "Approaching Support"
		description = fmt.Sprintf("Price approaching support at %.2f (%d touches)", lvl.Price, lvl.TouchCount)
	}
	return analysis.PatternInstance{
		Name:        name,
		Category:    analysis.CategoryBreakout,
		Confidence:  60,
		Signal:      analysis.SignalHold,
		Description: description,
		KeyLevels: map[string]float64{
			"level":   lvl.Price,
			"touches": float64(lvl.TouchCount),
		},
		Span: analysis.Span{Start: offset, End: offset + windowLen - 1},
	}
}

func nearInstance(lvl Level, offset, windowLen int) analysis.PatternInstance {
	kind := "support"
	if lvl.Kind == analysis.LevelResistance {
		kind = "resistance"
	}
	return analysis.PatternInstance{
		Name:        "Near Key Level",
		Category:    analysis.CategoryBreakout,
		Confidence:  50,
		Signal:      analysis.SignalHold,
		Description: fmt.Sprintf("Price consolidating near %s at %.2f", kind, lvl.Price),
		KeyLevels: map[string]float64{
			"level":   lvl.Price,
			"touches": float64(lvl.TouchCount),
		},
		Span: analysis.Span{Start: offset, End: offset + windowLen - 1},
	}
}

// hasVolumeSpike reports whether the last three bars averaged at least
// 1.5x the volume of the preceding stretch.
func hasVolumeSpike(candles []models.Candle) bool {
	if len(candles) < 20 {
		return false
	}
	var recent float64
	for _, c := range candles[len(candles)-3:] {
		recent += float64(c.Volume)
	}
	recent /= 3

	var earlier float64
	prior := candles[len(candles)-20 : len(candles)-3]
	for _, c := range prior {
		earlier += float64(c.Volume)
	}
	earlier /= float64(len(prior))

	if earlier == 0 {
		return false
	}
	return recent > earlier*volumeSpikeRatio
}
