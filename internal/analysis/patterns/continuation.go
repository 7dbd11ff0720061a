package patterns

import (
	"fmt"
	"math"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/analysis/extrema"
	"chart-analyzer/internal/models"
)

// Continuation pattern minimum series lengths and slope thresholds. Slopes
// are normalized by mean price so the thresholds hold across price scales:
// a trendline is flat below 0.1% per bar and trending above it.
const (
	minTriangleBars = 40
	minFlagBars     = 30
	minPennantBars  = 25

	flatSlope  = 0.001
	trendSlope = 0.001
	// convergence bounds for a tradeable symmetrical triangle, in relative
	// price per bar: not too flat, not too steep.
	minConvergence = 0.001
	maxConvergence = 0.05

	minTrendlineR2 = 0.6

	flagConsolidationMax = 0.08
	pennantMinPole       = 0.08
)

// ContinuationDetector detects continuation patterns: ascending, descending
// and symmetrical triangles, flags, and pennants.
type ContinuationDetector struct{}

// NewContinuationDetector creates a new continuation pattern detector.
func NewContinuationDetector() *ContinuationDetector {
	return &ContinuationDetector{}
}

func (d *ContinuationDetector) Name() string {
	return "ContinuationDetector"
}

func (d *ContinuationDetector) Category() analysis.Category {
	return analysis.CategoryContinuation
}

// Detect runs the triangle, flag, and pennant sub-detectors in order. Each
// contributes at most one instance per call.
func (d *ContinuationDetector) Detect(candles []models.Candle, cfg analysis.Config) ([]analysis.PatternInstance, error) {
	cfg = cfg.Normalize()

	var out []analysis.PatternInstance
	if p := d.detectTriangle(candles, cfg); p != nil {
		out = append(out, *p)
	}
	if p := d.detectFlag(candles, cfg); p != nil {
		out = append(out, *p)
	}
	if p := d.detectPennant(candles, cfg); p != nil {
		out = append(out, *p)
	}
	return out, nil
}

// detectTriangle fits trendlines through the recent peaks and valleys and
// classifies the shape by the normalized slopes.
func (d *ContinuationDetector) detectTriangle(candles []models.Candle, cfg analysis.Config) *analysis.PatternInstance {
	if len(candles) < minTriangleBars {
		return nil
	}

	window := candles
	if cfg.LookbackWindow < len(window) {
		window = window[len(window)-cfg.LookbackWindow:]
	}
	offset := len(candles) - len(window)

	highs := models.Highs(window)
	lows := models.Lows(window)
	closes := models.Closes(window)

	peaks, _ := extrema.Find(highs, cfg.MinSeparation, cfg.ProminenceTolerance)
	_, valleys := extrema.Find(lows, cfg.MinSeparation, cfg.ProminenceTolerance)
	if len(peaks) < cfg.MinTouches || len(valleys) < cfg.MinTouches {
		return nil
	}

	peakLine := fitTrendline(extrema.Indices(peaks), extrema.Prices(peaks))
	valleyLine := fitTrendline(extrema.Indices(valleys), extrema.Prices(valleys))
	if peakLine.R2 < minTrendlineR2 || valleyLine.R2 < minTrendlineR2 {
		return nil
	}

	meanPrice := meanOf(closes)
	if meanPrice == 0 {
		return nil
	}
	peakSlopeF := peakLine.Slope / meanPrice
	valleySlopeF := valleyLine.Slope / meanPrice

	lastClose := closes[len(closes)-1]
	span := analysis.Span{Start: offset + peaks[0].Index, End: offset + len(window) - 1}
	keyLevels := map[string]float64{
		"peak_slope":       peakLine.Slope,
		"valley_slope":     valleyLine.Slope,
		"peak_r_squared":   peakLine.R2,
		"valley_r_squared": valleyLine.R2,
	}

	var (
		name        string
		signal      analysis.Signal
		confidence  float64
		description string
	)

	switch {
	// Ascending: flat resistance, rising support.
	case math.Abs(peakSlopeF) < flatSlope && valleySlopeF > trendSlope:
		resistance := meanOf(lastN(extrema.Prices(peaks), 3))
		name = "Ascending Triangle"
		signal = analysis.SignalHold
		if lastClose > resistance*0.98 {
			signal = analysis.SignalBuy
		}
		confidence = math.Min(80, 50+valleyLine.R2*30)
		description = fmt.Sprintf("Ascending Triangle: bullish continuation, resistance at %.2f", resistance)
		keyLevels["resistance"] = resistance

	// Descending: declining resistance, flat support.
	case peakSlopeF < -trendSlope && math.Abs(valleySlopeF) < flatSlope:
		support := meanOf(lastN(extrema.Prices(valleys), 3))
		name = "Descending Triangle"
		signal = analysis.SignalHold
		if lastClose < support*1.02 {
			signal = analysis.SignalSell
		}
		confidence = math.Min(80, 50+peakLine.R2*30)
		description = fmt.Sprintf("Descending Triangle: bearish continuation, support at %.2f", support)
		keyLevels["support"] = support

	// Symmetrical: converging trendlines with opposite signs.
	case peakSlopeF < -flatSlope/2 && valleySlopeF > flatSlope/2:
		convergence := valleySlopeF - peakSlopeF
		if convergence < minConvergence || convergence > maxConvergence {
			return nil
		}
		upper := peakLine.At(len(window) - 1)
		lower := valleyLine.At(len(window) - 1)
		name = "Symmetrical Triangle"
		switch {
		case lastClose > upper*0.98:
			signal = analysis.SignalBuy
		case lastClose < lower*1.02:
			signal = analysis.SignalSell
		default:
			signal = analysis.SignalHold
		}
		confidence = math.Min(75, 40+(peakLine.R2+valleyLine.R2)*25)
		description = fmt.Sprintf("Symmetrical Triangle: watch for break above %.2f or below %.2f", upper, lower)
		keyLevels["upper_line"] = upper
		keyLevels["lower_line"] = lower

	default:
		return nil
	}

	// Declining volume inside the triangle supports the pattern.
	if hasDecliningVolume(window) {
		confidence = math.Min(85, confidence+10)
	}

	return &analysis.PatternInstance{
		Name:        name,
		Category:    analysis.CategoryContinuation,
		Confidence:  analysis.Clamp(confidence),
		Signal:      signal,
		Description: description,
		KeyLevels:   keyLevels,
		Span:        span,
	}
}

// detectFlag looks for a strong directional pole followed by a tight
// roughly parallel consolidation.
func (d *ContinuationDetector) detectFlag(candles []models.Candle, cfg analysis.Config) *analysis.PatternInstance {
	if len(candles) < minFlagBars {
		return nil
	}

	window := candles
	if len(window) > minFlagBars {
		window = window[len(window)-minFlagBars:]
	}
	offset := len(candles) - len(window)
	closes := models.Closes(window)

	poleMove := (closes[len(closes)-1] - closes[0]) / closes[0]
	if math.Abs(poleMove) < cfg.MinPoleMove {
		return nil
	}

	consolidationBars := len(window) / 2
	if consolidationBars > 15 {
		consolidationBars = 15
	}
	consolidation := window[len(window)-consolidationBars:]
	consolidationHigh := maxInRange(models.Highs(consolidation), 0, len(consolidation)-1)
	consolidationLow := minInRange(models.Lows(consolidation), 0, len(consolidation)-1)
	if consolidationLow <= 0 {
		return nil
	}
	consolidationRange := (consolidationHigh - consolidationLow) / consolidationLow
	if consolidationRange > flagConsolidationMax {
		return nil
	}

	lastClose := closes[len(closes)-1]
	bullish := poleMove > 0

	var (
		name          string
		signal        analysis.Signal
		confidence    float64
		description   string
		breakoutLevel float64
	)
	if bullish {
		name = "Bull Flag"
		breakoutLevel = consolidationHigh
		if lastClose > breakoutLevel*0.99 {
			signal = analysis.SignalBuy
			confidence = math.Min(75, 50+math.Abs(poleMove)*100)
			description = fmt.Sprintf("Bull Flag: bullish continuation, breakout above %.2f", breakoutLevel)
		} else {
			signal = analysis.SignalHold
			confidence = math.Min(60, 40+math.Abs(poleMove)*50)
			description = fmt.Sprintf("Bull Flag forming: watch for breakout above %.2f", breakoutLevel)
		}
	} else {
		name = "Bear Flag"
		breakoutLevel = consolidationLow
		if lastClose < breakoutLevel*1.01 {
			signal = analysis.SignalSell
			confidence = math.Min(75, 50+math.Abs(poleMove)*100)
			description = fmt.Sprintf("Bear Flag: bearish continuation, breakdown below %.2f", breakoutLevel)
		} else {
			signal = analysis.SignalHold
			confidence = math.Min(60, 40+math.Abs(poleMove)*50)
			description = fmt.Sprintf("Bear Flag forming: watch for breakdown below %.2f", breakoutLevel)
		}
	}

	// Tighter consolidation makes a cleaner flag.
	confidence += (flagConsolidationMax - consolidationRange) * 50
	confidence = analysis.Clamp(confidence)

	return &analysis.PatternInstance{
		Name:        name,
		Category:    analysis.CategoryContinuation,
		Confidence:  confidence,
		Signal:      signal,
		Description: description,
		KeyLevels: map[string]float64{
			"flagpole_move":      poleMove * 100,
			"consolidation_high": consolidationHigh,
			"consolidation_low":  consolidationLow,
			"breakout_level":     breakoutLevel,
		},
		Span: analysis.Span{Start: offset, End: offset + len(window) - 1},
	}
}

// detectPennant looks for a strong pole followed by a short converging
// consolidation: declining highs and rising lows with a reasonable fit.
func (d *ContinuationDetector) detectPennant(candles []models.Candle, cfg analysis.Config) *analysis.PatternInstance {
	if len(candles) < minPennantBars {
		return nil
	}

	window := candles
	if len(window) > minPennantBars {
		window = window[len(window)-minPennantBars:]
	}
	offset := len(candles) - len(window)
	closes := models.Closes(window)

	poleMove := (closes[len(closes)-1] - closes[0]) / closes[0]
	if math.Abs(poleMove) < pennantMinPole {
		return nil
	}

	consolidationBars := len(window) / 2
	if consolidationBars > 12 {
		consolidationBars = 12
	}
	if consolidationBars < 5 {
		return nil
	}
	consolidation := window[len(window)-consolidationBars:]
	highs := models.Highs(consolidation)
	lows := models.Lows(consolidation)

	xs := make([]int, consolidationBars)
	for i := range xs {
		xs[i] = i
	}
	highLine := fitTrendline(xs, highs)
	lowLine := fitTrendline(xs, lows)

	meanPrice := meanOf(models.Closes(consolidation))
	if meanPrice == 0 {
		return nil
	}
	highSlopeF := highLine.Slope / meanPrice
	lowSlopeF := lowLine.Slope / meanPrice

	converging := highSlopeF < -trendSlope && lowSlopeF > trendSlope &&
		highLine.R2 > 0.5 && lowLine.R2 > 0.5
	if !converging {
		return nil
	}

	lastClose := closes[len(closes)-1]
	bullish := poleMove > 0
	recentHigh := maxInRange(highs, 0, len(highs)-1)
	recentLow := minInRange(lows, 0, len(lows)-1)

	var (
		name          string
		signal        analysis.Signal
		confidence    float64
		description   string
		breakoutLevel float64
	)
	if bullish {
		name = "Bull Pennant"
		breakoutLevel = recentHigh
		if lastClose > breakoutLevel*0.99 {
			signal = analysis.SignalBuy
			confidence = math.Min(80, 55+math.Abs(poleMove)*100)
			description = fmt.Sprintf("Bull Pennant: bullish continuation, breakout above %.2f", breakoutLevel)
		} else {
			signal = analysis.SignalHold
			confidence = math.Min(65, 45+math.Abs(poleMove)*50)
			description = fmt.Sprintf("Bull Pennant forming: watch for breakout above %.2f", breakoutLevel)
		}
	} else {
		name = "Bear Pennant"
		breakoutLevel = recentLow
		if lastClose < breakoutLevel*1.01 {
			signal = analysis.SignalSell
			confidence = math.Min(80, 55+math.Abs(poleMove)*100)
			description = fmt.Sprintf("Bear Pennant: bearish continuation, breakdown below %.2f", breakoutLevel)
		} else {
			signal = analysis.SignalHold
			confidence = math.Min(65, 45+math.Abs(poleMove)*50)
			description = fmt.Sprintf("Bear Pennant forming: watch for breakdown below %.2f", breakoutLevel)
		}
	}

	return &analysis.PatternInstance{
		Name:        name,
		Category:    analysis.CategoryContinuation,
		Confidence:  analysis.Clamp(confidence),
		Signal:      signal,
		Description: description,
		KeyLevels: map[string]float64{
			"pole_move":      poleMove * 100,
			"high_slope":     highLine.Slope,
			"low_slope":      lowLine.Slope,
			"breakout_level": breakoutLevel,
		},
		Span: analysis.Span{Start: offset, End: offset + len(window) - 1},
	}
}

// hasDecliningVolume reports whether recent volume is at least 10% below
// the preceding stretch, the contraction expected inside a consolidation.
func hasDecliningVolume(candles []models.Candle) bool {
	if len(candles) < 20 {
		return false
	}
	var recent, earlier float64
	for _, c := range candles[len(candles)-10:] {
		recent += float64(c.Volume)
	}
	for _, c := range candles[len(candles)-20 : len(candles)-10] {
		earlier += float64(c.Volume)
	}
	if earlier == 0 {
		return false
	}
	return recent < earlier*0.9
}
