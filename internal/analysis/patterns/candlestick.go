package patterns

import (
	"fmt"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/models"
)

// Candlestick patterns read the last one to three bars. A handful of bars
// of context is still required to classify the preceding trend direction
// for hammer versus hanging man.
const minCandlestickBars = 5

// CandlestickDetector detects single and multi-bar candlestick patterns on
// the most recent bars of the series.
type CandlestickDetector struct{}

// NewCandlestickDetector creates a new candlestick pattern detector.
func NewCandlestickDetector() *CandlestickDetector {
	return &CandlestickDetector{}
}

func (d *CandlestickDetector) Name() string {
	return "CandlestickDetector"
}

func (d *CandlestickDetector) Category() analysis.Category {
	return analysis.CategoryCandlestick
}

// Detect checks the last bars for recognizable formations. Multiple
// candlestick patterns may coexist on the same bars.
func (d *CandlestickDetector) Detect(candles []models.Candle, cfg analysis.Config) ([]analysis.PatternInstance, error) {
	if len(candles) < minCandlestickBars {
		return nil, nil
	}

	last := len(candles) - 1
	var out []analysis.PatternInstance

	if p := detectHammer(candles); p != nil {
		out = append(out, *p)
	}
	if p := detectDoji(candles[last], last); p != nil {
		out = append(out, *p)
	}
	if p := detectEngulfing(candles); p != nil {
		out = append(out, *p)
	}
	if p := detectStar(candles); p != nil {
		out = append(out, *p)
	}
	if p := detectPiercing(candles); p != nil {
		out = append(out, *p)
	}
	return out, nil
}

// detectHammer finds a hammer (after a decline) or hanging man (after an
// advance): a small body near the top with a long lower shadow.
func detectHammer(candles []models.Candle) *analysis.PatternInstance {
	last := len(candles) - 1
	c := candles[last]
	rng := c.Range()
	if rng == 0 {
		return nil
	}
	bodyRatio := c.Body() / rng
	lowerRatio := c.LowerShadow() / rng
	upperRatio := c.UpperShadow() / rng

	// Long lower shadow, small body, little above.
	if bodyRatio >= 0.3 || lowerRatio <= 0.6 || upperRatio >= 0.1 {
		return nil
	}

	downtrend := candles[last-3].Close > c.Close
	span := analysis.Span{Start: last, End: last}
	keyLevels := map[string]float64{"close": c.Close, "low": c.Low}

	if downtrend {
		return &analysis.PatternInstance{
			Name:        "Hammer",
			Category:    analysis.CategoryCandlestick,
			Confidence:  analysis.Clamp(minFloat(70, 40+lowerRatio*50)),
			Signal:      analysis.SignalBuy,
			Description: "Hammer: potential bullish reversal after decline",
			KeyLevels:   keyLevels,
			Span:        span,
		}
	}
	return &analysis.PatternInstance{
		Name:        "Hanging Man",
		Category:    analysis.CategoryCandlestick,
		Confidence:  analysis.Clamp(minFloat(65, 35+lowerRatio*40)),
		Signal:      analysis.SignalSell,
		Description: "Hanging Man: potential bearish reversal after advance",
		KeyLevels:   keyLevels,
		Span:        span,
	}
}

// detectDoji finds a bar whose body is under 10% of its range, signaling
// indecision.
func detectDoji(c models.Candle, index int) *analysis.PatternInstance {
	rng := c.Range()
	if rng == 0 {
		return nil
	}
	bodyRatio := c.Body() / rng
	if bodyRatio > 0.1 {
		return nil
	}
	return &analysis.PatternInstance{
		Name:        "Doji",
		Category:    analysis.CategoryCandlestick,
		Confidence:  analysis.Clamp(minFloat(60, 30+(1-bodyRatio)*30)),
		Signal:      analysis.SignalHold,
		Description: "Doji: market indecision, wait for confirmation",
		KeyLevels:   map[string]float64{"close": c.Close},
		Span:        analysis.Span{Start: index, End: index},
	}
}

// detectEngulfing finds a two-bar engulfing: the last body fully covers the
// previous bar's body in the opposite direction.
func detectEngulfing(candles []models.Candle) *analysis.PatternInstance {
	last := len(candles) - 1
	prev, cur := candles[last-1], candles[last]
	if prev.Body() == 0 || cur.Body() == 0 {
		return nil
	}
	// The engulfing bar must be decisively larger, not merely covering.
	if cur.Body() < prev.Body()*1.2 {
		return nil
	}

	span := analysis.Span{Start: last - 1, End: last}
	ratio := cur.Body() / prev.Body()
	confidence := analysis.Clamp(55 + minFloat(ratio*10, 25))

	if prev.IsBearish() && cur.IsBullish() && cur.Open <= prev.Close && cur.Close >= prev.Open {
		return &analysis.PatternInstance{
			Name:        "Bullish Engulfing",
			Category:    analysis.CategoryCandlestick,
			Confidence:  confidence,
			Signal:      analysis.SignalBuy,
			Description: fmt.Sprintf("Bullish Engulfing: buyers overwhelmed sellers at %.2f", cur.Close),
			KeyLevels:   map[string]float64{"close": cur.Close},
			Span:        span,
		}
	}
	if prev.IsBullish() && cur.IsBearish() && cur.Open >= prev.Close && cur.Close <= prev.Open {
		return &analysis.PatternInstance{
			Name:        "Bearish Engulfing",
			Category:    analysis.CategoryCandlestick,
			Confidence:  confidence,
			Signal:      analysis.SignalSell,
			Description: fmt.Sprintf("Bearish Engulfing: sellers overwhelmed buyers at %.2f", cur.Close),
			KeyLevels:   map[string]float64{"close": cur.Close},
			Span:        span,
		}
	}
	return nil
}

// detectStar finds a three-bar morning or evening star: a long bar, a small
// gap bar, then a long reversal bar closing past the first bar's midpoint.
func detectStar(candles []models.Candle) *analysis.PatternInstance {
	last := len(candles) - 1
	first, middle, third := candles[last-2], candles[last-1], candles[last]
	if first.Body() == 0 {
		return nil
	}
	smallMiddle := middle.Body() < first.Body()*0.3
	if !smallMiddle {
		return nil
	}

	span := analysis.Span{Start: last - 2, End: last}
	firstMid := (first.Open + first.Close) / 2

	if first.IsBearish() && third.IsBullish() && third.Close > firstMid {
		return &analysis.PatternInstance{
			Name:        "Morning Star",
			Category:    analysis.CategoryCandlestick,
			Confidence:  70,
			Signal:      analysis.SignalBuy,
			Description: "Morning Star: bullish reversal formation",
			KeyLevels:   map[string]float64{"close": third.Close},
			Span:        span,
		}
	}
	if first.IsBullish() && third.IsBearish() && third.Close < firstMid {
		return &analysis.PatternInstance{
			Name:        "Evening Star",
			Category:    analysis.CategoryCandlestick,
			Confidence:  70,
			Signal:      analysis.SignalSell,
			Description: "Evening Star: bearish reversal formation",
			KeyLevels:   map[string]float64{"close": third.Close},
			Span:        span,
		}
	}
	return nil
}

// detectPiercing finds a piercing line or dark cloud cover: a two-bar
// pattern where the second bar opens beyond the first's extreme and
// closes past its midpoint.
func detectPiercing(candles []models.Candle) *analysis.PatternInstance {
	last := len(candles) - 1
	prev, cur := candles[last-1], candles[last]
	if prev.Body() == 0 {
		return nil
	}

	span := analysis.Span{Start: last - 1, End: last}
	prevMid := (prev.Open + prev.Close) / 2

	if prev.IsBearish() && cur.IsBullish() && cur.Open < prev.Low && cur.Close > prevMid && cur.Close < prev.Open {
		return &analysis.PatternInstance{
			Name:        "Piercing Line",
			Category:    analysis.CategoryCandlestick,
			Confidence:  60,
			Signal:      analysis.SignalBuy,
			Description: "Piercing Line: bullish reversal after gap down",
			KeyLevels:   map[string]float64{"close": cur.Close},
			Span:        span,
		}
	}
	if prev.IsBullish() && cur.IsBearish() && cur.Open > prev.High && cur.Close < prevMid && cur.Close > prev.Open {
		return &analysis.PatternInstance{
			Name:        "Dark Cloud Cover",
			Category:    analysis.CategoryCandlestick,
			Confidence:  60,
			Signal:      analysis.SignalSell,
			Description: "Dark Cloud Cover: bearish reversal after gap up",
			KeyLevels:   map[string]float64{"close": cur.Close},
			Span:        span,
		}
	}
	return nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
