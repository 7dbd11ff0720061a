// Package scoring combines detector outputs into a single scored signal
// and drives the full analysis pipeline for one instrument.
package scoring

import (
	"math"
	"sort"

	"chart-analyzer/internal/analysis"
)

// Aggregate folds all detected pattern instances into one overall result.
// The input order is the detector evaluation order and is preserved for
// equally ranked patterns, so the same instances always produce the same
// result.
func Aggregate(instrumentID string, instances []analysis.PatternInstance, cfg analysis.Config) analysis.AnalysisResult {
	cfg = cfg.Normalize()

	result := analysis.AnalysisResult{
		InstrumentID:     instrumentID,
		OverallSignal:    analysis.SignalHold,
		PatternsDetected: len(instances),
		TopPatterns:      []analysis.PatternInstance{},
		CategorySummary:  summarizeCategories(instances, cfg),
	}
	if len(instances) == 0 {
		return result
	}

	var bullish, bearish float64
	var buyCount, sellCount int
	for _, inst := range instances {
		weighted := cfg.Weight(inst.Category) * inst.Confidence
		switch inst.Signal {
		case analysis.SignalBuy:
			bullish += weighted
			buyCount++
		case analysis.SignalSell:
			bearish += weighted
			sellCount++
		}
	}

	winning, losing := bullish, bearish
	winningCount := buyCount
	signal := analysis.SignalBuy
	if bearish > bullish {
		winning, losing = bearish, bullish
		winningCount = sellCount
		signal = analysis.SignalSell
	}

	// The winning side must lead by a decisive margin, otherwise the
	// signals contradict each other and the call is HOLD.
	decisive := winning > 0 && (winning-losing) > winning*cfg.DecisivenessThreshold
	if decisive {
		result.OverallSignal = signal
	}

	// Confidence blends the winning side's weighted score with the
	// fraction of all instances agreeing with it. HOLD instances dilute
	// agreement without backing either side, so indecisive patterns drag
	// certainty down. Purely directionless input (only HOLD instances)
	// carries no conviction at all.
	if winning+losing > 0 {
		agreement := float64(winningCount) / float64(len(instances))
		confidence := 0.7*math.Min(winning, 100) + 0.3*100*agreement
		result.OverallConfidence = analysis.Clamp(confidence)
	}

	result.TopPatterns = topPatterns(instances, cfg, 3)
	return result
}

// topPatterns ranks instances by weighted confidence and returns the top n.
// The sort is stable so ties keep detector evaluation order.
func topPatterns(instances []analysis.PatternInstance, cfg analysis.Config, n int) []analysis.PatternInstance {
	ranked := make([]analysis.PatternInstance, len(instances))
	copy(ranked, instances)
	sort.SliceStable(ranked, func(i, j int) bool {
		wi := cfg.Weight(ranked[i].Category) * ranked[i].Confidence
		wj := cfg.Weight(ranked[j].Category) * ranked[j].Confidence
		return wi > wj
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// summarizeCategories counts instances per category and picks each
// category's dominant signal by confidence-weighted vote. A tied vote is
// indecision, reported as HOLD.
func summarizeCategories(instances []analysis.PatternInstance, cfg analysis.Config) map[analysis.Category]analysis.CategorySummary {
	summary := make(map[analysis.Category]analysis.CategorySummary)
	type vote struct {
		buy, sell float64
	}
	votes := make(map[analysis.Category]vote)

	for _, inst := range instances {
		s := summary[inst.Category]
		s.Count++
		summary[inst.Category] = s

		v := votes[inst.Category]
		switch inst.Signal {
		case analysis.SignalBuy:
			v.buy += inst.Confidence
		case analysis.SignalSell:
			v.sell += inst.Confidence
		}
		votes[inst.Category] = v
	}

	for cat, s := range summary {
		v := votes[cat]
		switch {
		case v.buy > v.sell:
			s.DominantSignal = analysis.SignalBuy
		case v.sell > v.buy:
			s.DominantSignal = analysis.SignalSell
		default:
			s.DominantSignal = analysis.SignalHold
		}
		summary[cat] = s
	}
	return summary
}
