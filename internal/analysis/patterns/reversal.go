package patterns

import (
	"fmt"
	"math"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/analysis/extrema"
	"chart-analyzer/internal/models"
)

// Reversal pattern minimum series lengths.
const (
	minHeadShouldersBars = 40
	minDoubleBars        = 30

	// headMinMargin is the minimum relative margin by which the head must
	// exceed both shoulders.
	headMinMargin = 0.02

	// necklineBreakBonus is added to confidence once price has closed
	// beyond the neckline, confirming the reversal.
	necklineBreakBonus = 15
)

// ReversalDetector detects trend reversal patterns: head-and-shoulders,
// inverse head-and-shoulders, double top, and double bottom. Incomplete
// patterns (no neckline or support break yet) are still reported as HOLD
// instances at lower confidence, since an approaching breakout is itself
// informative.
type ReversalDetector struct{}

// NewReversalDetector creates a new reversal pattern detector.
func NewReversalDetector() *ReversalDetector {
	return &ReversalDetector{}
}

func (d *ReversalDetector) Name() string {
	return "ReversalDetector"
}

func (d *ReversalDetector) Category() analysis.Category {
	return analysis.CategoryReversal
}

// Detect runs all reversal sub-detectors. Each contributes at most one
// instance per call.
func (d *ReversalDetector) Detect(candles []models.Candle, cfg analysis.Config) ([]analysis.PatternInstance, error) {
	cfg = cfg.Normalize()

	var out []analysis.PatternInstance
	if len(candles) >= minHeadShouldersBars {
		highs := models.Highs(candles)
		lows := models.Lows(candles)
		peaks, _ := extrema.Find(highs, cfg.MinSeparation, cfg.ProminenceTolerance)
		_, valleys := extrema.Find(lows, cfg.MinSeparation, cfg.ProminenceTolerance)

		if p := d.detectHeadAndShoulders(candles, peaks, cfg); p != nil {
			out = append(out, *p)
		}
		if p := d.detectInverseHeadAndShoulders(candles, valleys, cfg); p != nil {
			out = append(out, *p)
		}
	}
	if len(candles) >= minDoubleBars {
		highs := models.Highs(candles)
		lows := models.Lows(candles)
		peaks, _ := extrema.Find(highs, cfg.MinSeparation, cfg.ProminenceTolerance)
		_, valleys := extrema.Find(lows, cfg.MinSeparation, cfg.ProminenceTolerance)

		if p := d.detectDoubleTop(candles, peaks, cfg); p != nil {
			out = append(out, *p)
		}
		if p := d.detectDoubleBottom(candles, valleys, cfg); p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// detectHeadAndShoulders looks for three consecutive peaks where the
// middle one exceeds both flanks and the flanks are approximately equal.
// The neckline is the lowest low between the shoulders.
func (d *ReversalDetector) detectHeadAndShoulders(candles []models.Candle, peaks []extrema.Extremum, cfg analysis.Config) *analysis.PatternInstance {
	recent := recentExtrema(peaks, 5)
	if len(recent) < 3 {
		return nil
	}

	lows := models.Lows(candles)
	lastClose := candles[len(candles)-1].Close

	for i := 0; i+2 < len(recent); i++ {
		left, head, right := recent[i], recent[i+1], recent[i+2]

		if head.Price <= left.Price*(1+headMinMargin) || head.Price <= right.Price*(1+headMinMargin) {
			continue
		}
		shoulderDiff := math.Abs(left.Price-right.Price) / math.Max(left.Price, right.Price)
		if shoulderDiff > cfg.ShoulderTolerance {
			continue
		}

		neckline := minInRange(lows, left.Index, right.Index)
		headProminence := (head.Price - math.Max(left.Price, right.Price)) / head.Price
		broken := lastClose < neckline*1.01

		symmetry := (1 - shoulderDiff/cfg.ShoulderTolerance) * 15
		prominence := math.Min(20, headProminence*100)
		confidence := 50 + symmetry + prominence

		signal := analysis.SignalHold
		description := fmt.Sprintf("Head and Shoulders forming: watch for neckline break at %.2f", neckline)
		if broken {
			confidence += necklineBreakBonus
			signal = analysis.SignalSell
			description = fmt.Sprintf("Head and Shoulders: bearish reversal, head at %.2f, neckline at %.2f", head.Price, neckline)
		}

		return &analysis.PatternInstance{
			Name:        "Head and Shoulders",
			Category:    analysis.CategoryReversal,
			Confidence:  analysis.Clamp(confidence),
			Signal:      signal,
			Description: description,
			KeyLevels: map[string]float64{
				"head":           head.Price,
				"left_shoulder":  left.Price,
				"right_shoulder": right.Price,
				"neckline":       neckline,
			},
			Span: analysis.Span{Start: left.Index, End: right.Index},
		}
	}
	return nil
}

// detectInverseHeadAndShoulders mirrors detectHeadAndShoulders on valleys,
// with the neckline at the highest high between the shoulders.
func (d *ReversalDetector) detectInverseHeadAndShoulders(candles []models.Candle, valleys []extrema.Extremum, cfg analysis.Config) *analysis.PatternInstance {
	recent := recentExtrema(valleys, 5)
	if len(recent) < 3 {
		return nil
	}

	highs := models.Highs(candles)
	lastClose := candles[len(candles)-1].Close

	for i := 0; i+2 < len(recent); i++ {
		left, head, right := recent[i], recent[i+1], recent[i+2]

		if head.Price >= left.Price*(1-headMinMargin) || head.Price >= right.Price*(1-headMinMargin) {
			continue
		}
		shoulderDiff := math.Abs(left.Price-right.Price) / math.Max(left.Price, right.Price)
		if shoulderDiff > cfg.ShoulderTolerance {
			continue
		}

		neckline := maxInRange(highs, left.Index, right.Index)
		headProminence := (math.Min(left.Price, right.Price) - head.Price) / head.Price
		broken := lastClose > neckline*0.99

		symmetry := (1 - shoulderDiff/cfg.ShoulderTolerance) * 15
		prominence := math.Min(20, headProminence*100)
		confidence := 50 + symmetry + prominence

		signal := analysis.SignalHold
		description := fmt.Sprintf("Inverse Head and Shoulders forming: watch for neckline break above %.2f", neckline)
		if broken {
			confidence += necklineBreakBonus
			signal = analysis.SignalBuy
			description = fmt.Sprintf("Inverse Head and Shoulders: bullish reversal, head at %.2f, neckline at %.2f", head.Price, neckline)
		}

		return &analysis.PatternInstance{
			Name:        "Inverse Head and Shoulders",
			Category:    analysis.CategoryReversal,
			Confidence:  analysis.Clamp(confidence),
			Signal:      signal,
			Description: description,
			KeyLevels: map[string]float64{
				"head":           head.Price,
				"left_shoulder":  left.Price,
				"right_shoulder": right.Price,
				"neckline":       neckline,
			},
			Span: analysis.Span{Start: left.Index, End: right.Index},
		}
	}
	return nil
}

// detectDoubleTop looks for two peaks of similar height separated by a
// valley retracing at least MinDepth below their average.
func (d *ReversalDetector) detectDoubleTop(candles []models.Candle, peaks []extrema.Extremum, cfg analysis.Config) *analysis.PatternInstance {
	recent := recentExtrema(peaks, 10)
	if len(recent) < 2 {
		return nil
	}

	lows := models.Lows(candles)
	lastClose := candles[len(candles)-1].Close

	for i := 0; i < len(recent)-1; i++ {
		for j := i + 1; j < len(recent); j++ {
			first, second := recent[i], recent[j]

			heightDiff := math.Abs(first.Price-second.Price) / math.Max(first.Price, second.Price)
			if heightDiff > cfg.DoubleTolerance {
				continue
			}

			valleyLow := minInRange(lows, first.Index, second.Index)
			peakAvg := (first.Price + second.Price) / 2
			depth := (peakAvg - valleyLow) / peakAvg
			if depth < cfg.MinDepth {
				continue
			}

			confidence := math.Min(85, 40+depth*300+(1-heightDiff)*30)

			signal := analysis.SignalHold
			description := fmt.Sprintf("Double Top forming: watch for support break below %.2f", valleyLow)
			if lastClose < valleyLow*1.02 {
				signal = analysis.SignalSell
				description = fmt.Sprintf("Double Top: bearish reversal, peaks at %.2f and %.2f, support at %.2f",
					first.Price, second.Price, valleyLow)
			}

			return &analysis.PatternInstance{
				Name:        "Double Top",
				Category:    analysis.CategoryReversal,
				Confidence:  analysis.Clamp(confidence),
				Signal:      signal,
				Description: description,
				KeyLevels: map[string]float64{
					"first_peak":  first.Price,
					"second_peak": second.Price,
					"support":     valleyLow,
					"target":      valleyLow - (peakAvg - valleyLow),
				},
				Span: analysis.Span{Start: first.Index, End: second.Index},
			}
		}
	}
	return nil
}

// detectDoubleBottom mirrors detectDoubleTop on valleys.
func (d *ReversalDetector) detectDoubleBottom(candles []models.Candle, valleys []extrema.Extremum, cfg analysis.Config) *analysis.PatternInstance {
	recent := recentExtrema(valleys, 10)
	if len(recent) < 2 {
		return nil
	}

	highs := models.Highs(candles)
	lastClose := candles[len(candles)-1].Close

	for i := 0; i < len(recent)-1; i++ {
		for j := i + 1; j < len(recent); j++ {
			first, second := recent[i], recent[j]

			depthDiff := math.Abs(first.Price-second.Price) / math.Max(first.Price, second.Price)
			if depthDiff > cfg.DoubleTolerance {
				continue
			}

			peakHigh := maxInRange(highs, first.Index, second.Index)
			valleyAvg := (first.Price + second.Price) / 2
			height := (peakHigh - valleyAvg) / valleyAvg
			if height < cfg.MinDepth {
				continue
			}

			confidence := math.Min(85, 40+height*300+(1-depthDiff)*30)

			signal := analysis.SignalHold
			description := fmt.Sprintf("Double Bottom forming: watch for resistance break above %.2f", peakHigh)
			if lastClose > peakHigh*0.98 {
				signal = analysis.SignalBuy
				description = fmt.Sprintf("Double Bottom: bullish reversal, valleys at %.2f and %.2f, resistance at %.2f",
					first.Price, second.Price, peakHigh)
			}

			return &analysis.PatternInstance{
				Name:        "Double Bottom",
				Category:    analysis.CategoryReversal,
				Confidence:  analysis.Clamp(confidence),
				Signal:      signal,
				Description: description,
				KeyLevels: map[string]float64{
					"first_valley":  first.Price,
					"second_valley": second.Price,
					"resistance":    peakHigh,
					"target":        peakHigh + (peakHigh - valleyAvg),
				},
				Span: analysis.Span{Start: first.Index, End: second.Index},
			}
		}
	}
	return nil
}

// recentExtrema returns at most the last n extrema.
func recentExtrema(ex []extrema.Extremum, n int) []extrema.Extremum {
	if len(ex) <= n {
		return ex
	}
	return ex[len(ex)-n:]
}

// minInRange returns the minimum of values over the inclusive index range.
func minInRange(values []float64, start, end int) float64 {
	m := values[start]
	for i := start + 1; i <= end && i < len(values); i++ {
		if values[i] < m {
			m = values[i]
		}
	}
	return m
}

// maxInRange returns the maximum of values over the inclusive index range.
func maxInRange(values []float64, start, end int) float64 {
	m := values[start]
	for i := start + 1; i <= end && i < len(values); i++ {
		if values[i] > m {
			m = values[i]
		}
	}
	return m
}
