// Package patterns provides the chart and candlestick pattern detectors.
package patterns

import (
	"math"
	"sort"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/analysis/extrema"
)

// Level represents a horizontal support or resistance level built by
// clustering nearby extrema. Consumers treat levels as read-only.
type Level struct {
	Price      float64
	TouchCount int
	Kind       analysis.LevelKind
	Indices    []int
}

// Strength is the ranking score of a level: more touches make a stronger
// level, discounted slightly by the clustering tolerance.
func (l Level) Strength(tolerance float64) float64 {
	return float64(l.TouchCount) * (1 - tolerance)
}

// ClusterLevels merges extrema whose prices lie within tolerance into
// horizontal levels, counting touches. It uses a single-linkage merge:
// extrema are sorted by price, and each is absorbed into the current
// cluster when its price sits within tolerance of the cluster's running
// mean. All clusters are returned, including single-touch ones; callers
// filter by touch count for their purpose (a tradeable level typically
// needs 3 touches, double top/bottom matching only 2).
func ClusterLevels(ex []extrema.Extremum, kind analysis.LevelKind, tolerance float64) []Level {
	if len(ex) == 0 {
		return nil
	}

	sorted := make([]extrema.Extremum, len(ex))
	copy(sorted, ex)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Price == sorted[j].Price {
			return sorted[i].Index < sorted[j].Index
		}
		return sorted[i].Price < sorted[j].Price
	})

	var levels []Level
	current := Level{
		Price:      sorted[0].Price,
		TouchCount: 1,
		Kind:       kind,
		Indices:    []int{sorted[0].Index},
	}

	for _, e := range sorted[1:] {
		if math.Abs(e.Price-current.Price) <= current.Price*tolerance {
			n := float64(current.TouchCount)
			current.Price = (current.Price*n + e.Price) / (n + 1)
			current.TouchCount++
			current.Indices = append(current.Indices, e.Index)
		} else {
			levels = append(levels, current)
			current = Level{
				Price:      e.Price,
				TouchCount: 1,
				Kind:       kind,
				Indices:    []int{e.Index},
			}
		}
	}
	levels = append(levels, current)

	for i := range levels {
		sort.Ints(levels[i].Indices)
	}
	return levels
}

// StrongLevels filters levels by minimum touch count and orders them by
// strength, strongest first. Equal-strength levels keep price order so the
// result is deterministic.
func StrongLevels(levels []Level, minTouches int, tolerance float64) []Level {
	var out []Level
	for _, l := range levels {
		if l.TouchCount >= minTouches {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength(tolerance) > out[j].Strength(tolerance)
	})
	return out
}
