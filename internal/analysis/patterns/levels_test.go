package patterns

import (
	"math"
	"testing"

	"chart-analyzer/internal/analysis"
	"chart-analyzer/internal/analysis/extrema"
)

func TestClusterLevelsMergesNearbyExtrema(t *testing.T) {
	ex := []extrema.Extremum{
		{Index: 5, Price: 100, Kind: extrema.Peak},
		{Index: 15, Price: 101, Kind: extrema.Peak},
		{Index: 25, Price: 150, Kind: extrema.Peak},
	}

	levels := ClusterLevels(ex, analysis.LevelResistance, 0.02)

	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %+v", len(levels), levels)
	}
	if levels[0].TouchCount != 2 {
		t.Errorf("first level touches = %d, want 2", levels[0].TouchCount)
	}
	if math.Abs(levels[0].Price-100.5) > 1e-9 {
		t.Errorf("first level price = %.4f, want 100.5", levels[0].Price)
	}
	if levels[1].TouchCount != 1 || levels[1].Price != 150 {
		t.Errorf("second level = %+v, want single touch at 150", levels[1])
	}
	if got := levels[0].Indices; len(got) != 2 || got[0] != 5 || got[1] != 15 {
		t.Errorf("first level indices = %v, want [5 15]", got)
	}
}

func TestClusterLevelsEmpty(t *testing.T) {
	if levels := ClusterLevels(nil, analysis.LevelSupport, 0.02); levels != nil {
		t.Errorf("expected nil for empty extrema, got %+v", levels)
	}
}

func TestStrongLevelsFiltersAndRanks(t *testing.T) {
	levels := []Level{
		{Price: 100, TouchCount: 2, Kind: analysis.LevelSupport},
		{Price: 110, TouchCount: 4, Kind: analysis.LevelSupport},
		{Price: 120, TouchCount: 3, Kind: analysis.LevelSupport},
	}

	strong := StrongLevels(levels, 3, 0.02)

	if len(strong) != 2 {
		t.Fatalf("expected 2 strong levels, got %d", len(strong))
	}
	if strong[0].Price != 110 || strong[1].Price != 120 {
		t.Errorf("strong levels ordered %v, want strongest (110) first then 120",
			[]float64{strong[0].Price, strong[1].Price})
	}
}

func TestLevelStrength(t *testing.T) {
	l := Level{TouchCount: 4}
	if got := l.Strength(0.02); math.Abs(got-3.92) > 1e-9 {
		t.Errorf("Strength(0.02) = %.4f, want 3.92", got)
	}
}

func TestFitTrendlinePerfectLine(t *testing.T) {
	xs := []int{0, 1, 2, 3, 4}
	ys := []float64{1, 3, 5, 7, 9} // y = 2x + 1

	line := fitTrendline(xs, ys)

	if math.Abs(line.Slope-2) > 1e-9 {
		t.Errorf("slope = %.6f, want 2", line.Slope)
	}
	if math.Abs(line.Intercept-1) > 1e-9 {
		t.Errorf("intercept = %.6f, want 1", line.Intercept)
	}
	if math.Abs(line.R2-1) > 1e-9 {
		t.Errorf("r2 = %.6f, want 1", line.R2)
	}
	if got := line.At(10); math.Abs(got-21) > 1e-9 {
		t.Errorf("At(10) = %.6f, want 21", got)
	}
}

func TestFitTrendlineFlat(t *testing.T) {
	xs := []int{0, 1, 2, 3}
	ys := []float64{5, 5, 5, 5}

	line := fitTrendline(xs, ys)

	if line.Slope != 0 {
		t.Errorf("flat slope = %.6f, want 0", line.Slope)
	}
	if math.Abs(line.Intercept-5) > 1e-9 {
		t.Errorf("flat intercept = %.6f, want 5", line.Intercept)
	}
}
