package mathutil

import (
	"math"
)

// RippleToAttenuation converts a linear ripple (0 < ripple < 1) into the
// stopband attenuation A = -20·log10(ripple) in dB.
//
// The ripple is clamped into [minRipple, maxRipple] first so that values at
// or beyond the open interval never produce ±Inf.
func RippleToAttenuation(ripple float64) float64 {
	if math.IsNaN(ripple) {
		ripple = maxRipple
	}
	ripple = math.Min(math.Max(ripple, minRipple), maxRipple)

	return -dbPerDecade * math.Log10(ripple)
}

// KaiserBeta computes the Kaiser window β parameter from the desired
// stopband attenuation in decibels.
//
// Formula from Kaiser & Schafer:
//   - For att > 50 dB: β = 0.1102 * (att - 8.7)
//   - For 21 dB ≤ att ≤ 50 dB: β = 0.5842 * (att - 21)^0.4 + 0.07886 * (att - 21)
//   - For att < 21 dB: β = 0
func KaiserBeta(attenuation float64) float64 {
	if attenuation > kaiserAttHigh {
		return kaiserBetaHighCoeff1 * (attenuation - kaiserBetaHighOffset)
	} else if attenuation >= kaiserAttMedium {
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	}
	return 0.0
}

// KaiserTaps returns the minimum FIR length meeting attenuation A (dB) over a
// transition width deltaOmega given in radians/sample (2π·Δf/fs).
//
//	A > 20.96:  N = ceil((A - 7.95) / (2.285·Δω)) + 1
//	otherwise:  N = ceil(5.79 / Δω) + 1
//
// No bounds are applied here; the designer enforces its own floor and ceiling.
// Results that would not fit in an int saturate at math.MaxInt32.
func KaiserTaps(attenuation, deltaOmega float64) int {
	if math.IsNaN(deltaOmega) || deltaOmega < minDeltaOmega {
		deltaOmega = minDeltaOmega
	}

	var order float64
	if attenuation > kaiserAttOrderThreshold {
		order = math.Ceil((attenuation - kaiserOrderOffset) / (kaiserOrderMultiplier * deltaOmega))
	} else {
		order = math.Ceil(kaiserLowAttOrder / deltaOmega)
	}

	if math.IsNaN(order) || order >= math.MaxInt32-1 {
		return math.MaxInt32
	}

	return int(order) + 1
}

// NextPowerOfTwo returns the smallest power of two that is ≥ n (and ≥ 1).
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
