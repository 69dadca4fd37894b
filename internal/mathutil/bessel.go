// Package mathutil provides the special functions and Kaiser design equations
// used by the tune-filter-decimate filter designer.
package mathutil

import (
	"math"
)

// BesselI0 computes the modified Bessel function of the first kind, order zero: I₀(x).
// This function is used in Kaiser window calculation for filter design.
//
// The implementation uses Chebyshev polynomial approximations for numerical stability:
//   - For |x| ≤ 3.75: Direct polynomial series expansion
//   - For |x| > 3.75: Asymptotic expansion with exponential scaling
//
// I₀ overflows float64 near x ≈ 713. Window code that can see large β should
// use BesselI0Scaled instead.
//
// Reference: Abramowitz & Stegun, "Handbook of Mathematical Functions"
func BesselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		return besselI0Poly(x)
	}

	return math.Exp(ax) * besselI0Asymp(ax) / math.Sqrt(ax)
}

// BesselI0Scaled computes e^(-|x|)·I₀(x).
//
// The scaled form stays finite for every finite x, so ratios of I₀ values can be
// evaluated as exp(a-b)·scaled(a)/scaled(b) without intermediate overflow.
func BesselI0Scaled(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		return besselI0Poly(x) * math.Exp(-ax)
	}

	return besselI0Asymp(ax) / math.Sqrt(ax)
}

// BesselI0Ratio returns I₀(a)/I₀(b) for 0 ≤ a ≤ b without overflowing.
func BesselI0Ratio(a, b float64) float64 {
	a = math.Abs(a)
	b = math.Abs(b)

	den := BesselI0Scaled(b)
	if den == 0 || math.IsNaN(den) {
		return 0
	}

	return math.Exp(a-b) * BesselI0Scaled(a) / den
}

// besselI0Poly evaluates I₀(x) ≈ 1 + P(t), t = (x/3.75)², valid for |x| < 3.75.
func besselI0Poly(x float64) float64 {
	t := x / besselSmallArgThreshold
	t *= t

	return 1.0 + t*(besselI0Coeff1+t*(besselI0Coeff2+t*(besselI0Coeff3+
		t*(besselI0Coeff4+t*(besselI0Coeff5+t*besselI0Coeff6)))))
}

// besselI0Asymp evaluates the polynomial part of I₀(x)·√x·e^(-x) for x ≥ 3.75.
func besselI0Asymp(ax float64) float64 {
	t := besselSmallArgThreshold / ax

	return besselI0AsympCoeff0 + t*(besselI0AsympCoeff1+t*(besselI0AsympCoeff2+
		t*(besselI0AsympCoeff3+t*(besselI0AsympCoeff4+t*(besselI0AsympCoeff5+
			t*(besselI0AsympCoeff6+t*(besselI0AsympCoeff7+t*besselI0AsympCoeff8)))))))
}
