package extrema

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFindShortSeries(t *testing.T) {
	values := []float64{1, 2, 3, 2, 1}
	peaks, valleys := Find(values, 1, 0.02)
	if peaks != nil || valleys != nil {
		t.Errorf("expected no extrema for series of length %d, got %d peaks %d valleys",
			len(values), len(peaks), len(valleys))
	}
}

func TestFindSinglePeakAndValley(t *testing.T) {
	// Rise to a peak at index 5, fall to a valley at index 10, recover.
	values := []float64{100, 102, 104, 106, 108, 110, 106, 102, 98, 94, 90, 94, 98, 102, 106}

	peaks, valleys := Find(values, 2, 0.02)

	if len(peaks) != 1 {
		t.Fatalf("expected 1 peak, got %d: %+v", len(peaks), peaks)
	}
	if peaks[0].Index != 5 || peaks[0].Price != 110 {
		t.Errorf("peak = {%d, %.1f}, want {5, 110.0}", peaks[0].Index, peaks[0].Price)
	}
	if len(valleys) != 1 {
		t.Fatalf("expected 1 valley, got %d: %+v", len(valleys), valleys)
	}
	if valleys[0].Index != 10 || valleys[0].Price != 90 {
		t.Errorf("valley = {%d, %.1f}, want {10, 90.0}", valleys[0].Index, valleys[0].Price)
	}
}

func TestFindPlateauResolvesToFirstIndex(t *testing.T) {
	values := []float64{90, 95, 100, 100, 100, 95, 90, 85, 80, 85, 90}

	peaks, _ := Find(values, 3, 0.02)

	if len(peaks) != 1 {
		t.Fatalf("expected 1 peak on plateau, got %d: %+v", len(peaks), peaks)
	}
	if peaks[0].Index != 2 {
		t.Errorf("plateau peak index = %d, want 2 (first index of plateau)", peaks[0].Index)
	}
}

func TestFindMinSeparationSuppressesNearbyExtrema(t *testing.T) {
	// Two local bumps three indices apart; with separation 5 only the
	// higher one dominates its window.
	values := []float64{90, 95, 100, 96, 98, 94, 90, 88, 86, 84, 82, 80}

	peaks, _ := Find(values, 5, 0.02)

	if len(peaks) != 1 {
		t.Fatalf("expected 1 peak with wide separation, got %d: %+v", len(peaks), peaks)
	}
	if peaks[0].Index != 2 {
		t.Errorf("peak index = %d, want 2", peaks[0].Index)
	}
}

func TestFindRejectsLowProminence(t *testing.T) {
	// A tiny wiggle on a strong downtrend should not register with a
	// strict prominence floor.
	values := []float64{200, 190, 180, 170, 171, 160, 150, 140, 130, 120, 110}

	peaks, _ := Find(values, 1, 0.5)
	if len(peaks) != 0 {
		t.Errorf("expected low-prominence bump rejected, got %+v", peaks)
	}

	// The same wiggle passes with a permissive floor.
	peaks, _ = Find(values, 1, 0.001)
	if len(peaks) != 1 || peaks[0].Index != 4 {
		t.Errorf("expected bump at index 4 with permissive floor, got %+v", peaks)
	}
}

func TestFindFlatSeries(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100
	}
	peaks, valleys := Find(values, 3, 0.02)
	if len(peaks) != 0 || len(valleys) != 0 {
		t.Errorf("flat series produced %d peaks and %d valleys", len(peaks), len(valleys))
	}
}

// Property: every reported extremum is interior, dominates its immediate
// neighbors, and carries a prominence at or above the requested floor.
func TestPropertyExtremaWellFormed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("extrema are interior local extrema with valid prominence", prop.ForAll(
		func(raw []float64) bool {
			values := make([]float64, len(raw))
			for i, v := range raw {
				values[i] = 100 + v
			}

			const minProminence = 0.02
			peaks, valleys := Find(values, 2, minProminence)

			for _, p := range peaks {
				if p.Index <= 0 || p.Index >= len(values)-1 {
					return false
				}
				if values[p.Index-1] >= p.Price || values[p.Index+1] > p.Price {
					return false
				}
				if p.Prominence < minProminence {
					return false
				}
			}
			for _, v := range valleys {
				if v.Index <= 0 || v.Index >= len(values)-1 {
					return false
				}
				if values[v.Index-1] <= v.Price || values[v.Index+1] < v.Price {
					return false
				}
				if v.Prominence < minProminence {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(0, 50)),
	))

	properties.TestingRun(t)
}
