package filter

import "math"

// Design bounds applied when Params leaves them zero.
const (
	DefaultMinTaps    = 25
	DefaultMaxTaps    = 4 * 1024 * 1024
	DefaultMinFFTSize = 64
	DefaultMaxFFTSize = 8 * 1024 * 1024
)

const (
	twoPi = 2 * math.Pi

	// Halves a length or a band: window center, one-sided cutoff, Nyquist
	halfBandDivisor = 2.0

	// sin(2πfc·x)/(πx) tends to 2·fc at x=0
	sincLimitScale = 2.0

	// Sinc function constants
	sincCenterTap     = 1.0
	sincPiMultiplier  = math.Pi
	sincZeroThreshold = 1e-10

	// Normalized cutoff is kept inside (minCutoff, maxCutoff]
	minCutoff = 1e-9
	maxCutoff = 0.5

	// Filter normalization
	filterGainTarget = 1.0

	// Default number of points for ComputeFrequencyResponse
	defaultResponsePoints = 512
)
