package pipeline

// Tuning limits
const (
	// Normalized tuning is limited to ±Nyquist in cycles/sample
	maxTuningNorm = 0.5

	// Real input is treated as complex with its band centred on fs/4
	realReferenceDivisor = 4.0
)

// Decimation constants
const (
	minDecimation = 1

	// Relative slack when flooring inputRate/desiredRate, so ratios that are
	// integers up to rounding do not lose a whole step
	decimationEpsilon = 1e-9
)

// Buffer sizing
const (
	minBufferCapacity  = 64
	bufferGrowthFactor = 2
)
