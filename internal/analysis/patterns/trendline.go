package patterns

// trendline holds a least-squares fit through a set of (index, price)
// points along with its goodness of fit.
type trendline struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// At evaluates the trendline at a series index.
func (t trendline) At(index int) float64 {
	return t.Slope*float64(index) + t.Intercept
}

// fitTrendline computes the least-squares line through the given points.
// With fewer than two points, or zero variance in x, it returns a flat
// line with zero fit quality rather than failing.
func fitTrendline(xs []int, ys []float64) trendline {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return trendline{}
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += float64(xs[i])
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var ssXX, ssXY, ssYY float64
	for i := 0; i < n; i++ {
		dx := float64(xs[i]) - meanX
		dy := ys[i] - meanY
		ssXX += dx * dx
		ssXY += dx * dy
		ssYY += dy * dy
	}
	if ssXX == 0 {
		return trendline{}
	}

	slope := ssXY / ssXX
	intercept := meanY - slope*meanX

	r2 := 1.0
	if ssYY > 0 {
		r2 = (ssXY * ssXY) / (ssXX * ssYY)
	}

	return trendline{Slope: slope, Intercept: intercept, R2: r2}
}

// meanOf returns the arithmetic mean of values, zero for an empty slice.
func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// lastN returns at most the last n elements of values.
func lastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
