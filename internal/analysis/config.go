package analysis

// Config is the immutable configuration value passed into every analysis
// call. It is never stored as ambient state, keeping calls pure and
// parallel-safe.
type Config struct {
	// ProminenceTolerance is the minimum extremum prominence as a fraction
	// of the local price range.
	ProminenceTolerance float64
	// MinSeparation is the minimum index distance between extrema.
	MinSeparation int
	// LevelTolerance is the relative tolerance for clustering extrema into
	// horizontal levels.
	LevelTolerance float64
	// MinTouches is the minimum touch count for a tradeable level.
	MinTouches int
	// ShoulderTolerance is the maximum relative difference between the two
	// shoulders of a head-and-shoulders pattern.
	ShoulderTolerance float64
	// DoubleTolerance is the maximum relative difference between the two
	// extrema of a double top/bottom.
	DoubleTolerance float64
	// MinDepth is the minimum relative retracement between the two extrema
	// of a double top/bottom.
	MinDepth float64
	// MinPoleMove is the minimum relative move qualifying as a flag pole.
	MinPoleMove float64
	// LookbackWindow bounds the recent window continuation and breakout
	// detectors analyze.
	LookbackWindow int
	// DecisivenessThreshold is the margin, as a fraction of the larger
	// directional score, required for a non-HOLD overall signal.
	DecisivenessThreshold float64
	// CategoryWeights maps categories to aggregation weights.
	CategoryWeights map[Category]float64
}

// DefaultConfig returns the default analysis configuration.
func DefaultConfig() Config {
	return Config{
		ProminenceTolerance:   0.02,
		MinSeparation:         5,
		LevelTolerance:        0.02,
		MinTouches:            3,
		ShoulderTolerance:     0.05,
		DoubleTolerance:       0.03,
		MinDepth:              0.05,
		MinPoleMove:           0.10,
		LookbackWindow:        40,
		DecisivenessThreshold: 0.10,
		CategoryWeights: map[Category]float64{
			CategoryReversal:     1.5,
			CategoryBreakout:     1.3,
			CategoryContinuation: 1.0,
			CategoryCandlestick:  0.8,
		},
	}
}

// Weight returns the aggregation weight for a category, falling back to
// the defaults for categories absent from CategoryWeights.
func (c Config) Weight(cat Category) float64 {
	if w, ok := c.CategoryWeights[cat]; ok {
		return w
	}
	switch cat {
	case CategoryReversal:
		return 1.5
	case CategoryBreakout:
		return 1.3
	case CategoryContinuation:
		return 1.0
	case CategoryCandlestick:
		return 0.8
	}
	return 1.0
}

// Normalize returns a copy of the config with zero values replaced by
// defaults, so a partially populated config behaves predictably.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.ProminenceTolerance <= 0 {
		c.ProminenceTolerance = def.ProminenceTolerance
	}
	if c.MinSeparation <= 0 {
		c.MinSeparation = def.MinSeparation
	}
	if c.LevelTolerance <= 0 {
		c.LevelTolerance = def.LevelTolerance
	}
	if c.MinTouches <= 0 {
		c.MinTouches = def.MinTouches
	}
	if c.ShoulderTolerance <= 0 {
		c.ShoulderTolerance = def.ShoulderTolerance
	}
	if c.DoubleTolerance <= 0 {
		c.DoubleTolerance = def.DoubleTolerance
	}
	if c.MinDepth <= 0 {
		c.MinDepth = def.MinDepth
	}
	if c.MinPoleMove <= 0 {
		c.MinPoleMove = def.MinPoleMove
	}
	if c.LookbackWindow <= 0 {
		c.LookbackWindow = def.LookbackWindow
	}
	if c.DecisivenessThreshold <= 0 {
		c.DecisivenessThreshold = def.DecisivenessThreshold
	}
	if c.CategoryWeights == nil {
		c.CategoryWeights = def.CategoryWeights
	}
	return c
}
