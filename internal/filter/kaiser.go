// Package filter designs the Kaiser-windowed low-pass FIR used by the
// tune-filter-decimate chain and sizes the FFT block that applies it.
package filter

import (
	"math"

	"github.com/tphakala/go-tune-filter-decimate/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

// KaiserWindow generates a Kaiser window of the specified length and β parameter.
//
// Parameters:
//
//	length: Number of samples in the window
//	beta: Kaiser β parameter (controls sidelobe attenuation)
//
// Returns:
//
//	Window coefficients with a peak value of 1.0
//
// The window is symmetric: w[i] = w[length-1-i]. The Bessel ratio is evaluated
// in scaled form, so β in the hundreds still yields finite coefficients.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)

	if length == 1 {
		window[0] = sincCenterTap
		return window
	}

	if math.IsNaN(beta) || beta < 0 {
		beta = 0
	}

	// w[n] = I₀(β·sqrt(1 - ((n - α)/α)²)) / I₀(β), α = (N-1)/2
	alpha := float64(length-1) / halfBandDivisor

	for n := range length {
		x := (float64(n) - alpha) / alpha

		r := 1.0 - x*x
		if r < 0 {
			r = 0
		}

		window[n] = mathutil.BesselI0Ratio(beta*math.Sqrt(r), beta)
	}

	return window
}

// windowedSinc builds a unity-DC-gain low-pass of numTaps taps with normalized
// cutoff fc (cycles/sample) shaped by a Kaiser window of the given β.
func windowedSinc(numTaps int, fc, beta float64) []float64 {
	if math.IsNaN(fc) {
		fc = maxCutoff
	}
	fc = math.Min(math.Max(fc, minCutoff), maxCutoff)

	window := KaiserWindow(numTaps, beta)
	coeffs := make([]float64, numTaps)
	center := float64(numTaps-1) / halfBandDivisor

	for n := range numTaps {
		x := float64(n) - center

		// sin(2πfc·x) / (πx), limit 2·fc at x=0
		var sincValue float64
		if math.Abs(x) < sincZeroThreshold {
			sincValue = sincLimitScale * fc
		} else {
			arg := twoPi * fc * x
			sincValue = math.Sin(arg) / (sincPiMultiplier * x)
		}

		coeffs[n] = sincValue * window[n]
	}

	sum := f64.Sum(coeffs)
	if math.Abs(sum) > sincZeroThreshold {
		f64.Scale(coeffs, coeffs, filterGainTarget/sum)
	}

	return coeffs
}

// FilterResponse holds the frequency response of a filter.
type FilterResponse struct {
	// Frequencies at which response was calculated (normalized, 0 to 0.5)
	Frequencies []float64

	// Magnitude response at each frequency (linear scale)
	Magnitude []float64

	// Phase response at each frequency (radians)
	Phase []float64
}

// ComputeFrequencyResponse evaluates the DTFT of a FIR filter at numPoints
// frequencies between DC and Nyquist (default 512).
func ComputeFrequencyResponse(coeffs []float64, numPoints int) FilterResponse {
	if numPoints <= 0 {
		numPoints = defaultResponsePoints
	}

	response := FilterResponse{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}

	for k := range numPoints {
		freq := float64(k) / (halfBandDivisor * float64(numPoints))
		response.Frequencies[k] = freq

		// H(e^jω) = Σ h[n]·e^(-jωn)
		var realPart, imagPart float64
		omega := twoPi * freq

		for n, h := range coeffs {
			sin, cos := math.Sincos(omega * float64(n))
			realPart += h * cos
			imagPart -= h * sin
		}

		response.Magnitude[k] = math.Hypot(realPart, imagPart)
		response.Phase[k] = math.Atan2(imagPart, realPart)
	}

	return response
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10 // Avoid log(0)
		dbMultiplier = 20.0  // 20*log10 for magnitude
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
