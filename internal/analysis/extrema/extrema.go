// Package extrema finds local peaks and valleys in a price series. It is
// the shared primitive every geometric pattern detector consumes, so it is
// deliberately standalone: a pure function of its inputs with no
// configuration state.
package extrema

// MinSeriesLength is the minimum number of values required before any
// extrema are reported.
const MinSeriesLength = 10

// Kind distinguishes peaks from valleys.
type Kind string

const (
	Peak   Kind = "peak"
	Valley Kind = "valley"
)

// Extremum is a local maximum or minimum in a series. Prominence is the
// deviation from the higher (for peaks) flanking minimum, expressed as a
// fraction of the local price range around the extremum.
type Extremum struct {
	Index      int
	Price      float64
	Kind       Kind
	Prominence float64
}

// Find returns the peaks and valleys of values, in index order.
//
// A peak at i is strictly greater than every value in the minSeparation
// window before it and greater than or equal to every value in the window
// after it, so a plateau of equal values resolves to its first index.
// Candidates whose prominence falls below minProminence (a fraction of the
// local window range) are rejected. Valleys mirror the rule. Series
// shorter than MinSeriesLength yield no extrema; this is not an error.
func Find(values []float64, minSeparation int, minProminence float64) (peaks, valleys []Extremum) {
	n := len(values)
	if n < MinSeriesLength {
		return nil, nil
	}
	if minSeparation < 1 {
		minSeparation = 1
	}

	for i := 1; i < n-1; i++ {
		lo := i - minSeparation
		if lo < 0 {
			lo = 0
		}
		hi := i + minSeparation
		if hi > n-1 {
			hi = n - 1
		}

		if isWindowMax(values, i, lo, hi) {
			if prom, ok := peakProminence(values, i, lo, hi, minProminence); ok {
				peaks = append(peaks, Extremum{
					Index:      i,
					Price:      values[i],
					Kind:       Peak,
					Prominence: prom,
				})
			}
		}
		if isWindowMin(values, i, lo, hi) {
			if prom, ok := valleyProminence(values, i, lo, hi, minProminence); ok {
				valleys = append(valleys, Extremum{
					Index:      i,
					Price:      values[i],
					Kind:       Valley,
					Prominence: prom,
				})
			}
		}
	}

	return peaks, valleys
}

// isWindowMax reports whether values[i] dominates its separation window.
// Strictly greater on the left, greater-or-equal on the right: the first
// index of a flat plateau wins.
func isWindowMax(values []float64, i, lo, hi int) bool {
	for j := lo; j < i; j++ {
		if values[j] >= values[i] {
			return false
		}
	}
	for j := i + 1; j <= hi; j++ {
		if values[j] > values[i] {
			return false
		}
	}
	return true
}

func isWindowMin(values []float64, i, lo, hi int) bool {
	for j := lo; j < i; j++ {
		if values[j] <= values[i] {
			return false
		}
	}
	for j := i + 1; j <= hi; j++ {
		if values[j] < values[i] {
			return false
		}
	}
	return true
}

// peakProminence measures how far values[i] rises above the higher of the
// two flanking window minima, relative to the window's full price range.
// A flat window has zero range and yields no extremum.
func peakProminence(values []float64, i, lo, hi int, minProminence float64) (float64, bool) {
	wMin, wMax := windowRange(values, lo, hi)
	if wMax <= wMin {
		return 0, false
	}

	leftMin := minOf(values, lo, i-1)
	rightMin := minOf(values, i+1, hi)
	base := leftMin
	if rightMin > base {
		base = rightMin
	}

	prom := (values[i] - base) / (wMax - wMin)
	if prom < minProminence {
		return 0, false
	}
	return prom, true
}

func valleyProminence(values []float64, i, lo, hi int, minProminence float64) (float64, bool) {
	wMin, wMax := windowRange(values, lo, hi)
	if wMax <= wMin {
		return 0, false
	}

	leftMax := maxOf(values, lo, i-1)
	rightMax := maxOf(values, i+1, hi)
	base := leftMax
	if rightMax < base {
		base = rightMax
	}

	prom := (base - values[i]) / (wMax - wMin)
	if prom < minProminence {
		return 0, false
	}
	return prom, true
}

func windowRange(values []float64, lo, hi int) (float64, float64) {
	wMin, wMax := values[lo], values[lo]
	for j := lo + 1; j <= hi; j++ {
		if values[j] < wMin {
			wMin = values[j]
		}
		if values[j] > wMax {
			wMax = values[j]
		}
	}
	return wMin, wMax
}

func minOf(values []float64, lo, hi int) float64 {
	m := values[lo]
	for j := lo + 1; j <= hi; j++ {
		if values[j] < m {
			m = values[j]
		}
	}
	return m
}

func maxOf(values []float64, lo, hi int) float64 {
	m := values[lo]
	for j := lo + 1; j <= hi; j++ {
		if values[j] > m {
			m = values[j]
		}
	}
	return m
}

// Prices extracts the prices of a list of extrema.
func Prices(ex []Extremum) []float64 {
	out := make([]float64, len(ex))
	for i, e := range ex {
		out[i] = e.Price
	}
	return out
}

// Indices extracts the series indices of a list of extrema.
func Indices(ex []Extremum) []int {
	out := make([]int, len(ex))
	for i, e := range ex {
		out[i] = e.Index
	}
	return out
}
