package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-tune-filter-decimate/internal/testutil"
)

const (
	// Test tolerances
	magnitudeTolerance = 1e-2
	windowTolerance    = 1e-10
	deltaTolerance     = 1e-9
	dcGainTolerance    = 1e-9

	// Test window parameters
	testWindowLength11 = 11
	testWindowLength21 = 21
	testWindowLength51 = 51
	testBeta5          = 5.0
	testBeta8          = 8.653728
	testBeta10         = 10.0
	testBeta700        = 700.0
	testBeta5000       = 5000.0

	// Frequency response test parameters
	testNumPoints512  = 512
	testNumPoints1024 = 1024
)

// TestKaiserWindow_Symmetry verifies that Kaiser window is symmetric.
func TestKaiserWindow_Symmetry(t *testing.T) {
	tests := []struct {
		name   string
		length int
		beta   float64
	}{
		{"length_11_beta_5", testWindowLength11, testBeta5},
		{"length_21_beta_8", testWindowLength21, testBeta8},
		{"length_51_beta_10", testWindowLength51, testBeta10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := KaiserWindow(tt.length, tt.beta)

			assert.Len(t, window, tt.length, "window length mismatch")
			testutil.AssertSymmetric(t, window, windowTolerance)
		})
	}
}

// TestKaiserWindow_CenterTap verifies that center tap is maximum.
func TestKaiserWindow_CenterTap(t *testing.T) {
	window := KaiserWindow(testWindowLength21, testBeta8)

	testutil.AssertCenterIsMax(t, window)

	// Center value should be close to 1.0 (I₀(β)/I₀(β) = 1)
	centerIdx := testWindowLength21 / 2
	assert.InDelta(t, 1.0, window[centerIdx], windowTolerance,
		"center value should be ~1.0")
}

// TestKaiserWindow_EdgeCases tests edge cases.
func TestKaiserWindow_EdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		length int
		beta   float64
		want   int
	}{
		{"zero_length", 0, testBeta5, 0},
		{"negative_length", -1, testBeta5, 0},
		{"length_one", 1, testBeta5, 1},
		{"length_two", 2, testBeta5, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := KaiserWindow(tt.length, tt.beta)
			assert.Len(t, window, tt.want, "window length mismatch")

			if tt.length == 1 && len(window) == 1 {
				// Single tap should be 1.0
				assert.InDelta(t, 1.0, window[0], windowTolerance,
					"single tap value should be 1.0")
			}
		})
	}
}

// TestKaiserWindow_LargeBeta verifies the window stays finite where I₀(β) overflows.
func TestKaiserWindow_LargeBeta(t *testing.T) {
	for _, beta := range []float64{testBeta700, testBeta5000} {
		window := KaiserWindow(testWindowLength51, beta)

		testutil.AssertNoNaNOrInf(t, window, "beta=%v", beta)
		testutil.AssertAllInRange(t, window, 0, 1, "beta=%v", beta)
		assert.InDelta(t, 1.0, window[testWindowLength51/2], windowTolerance)
	}
}

// TestWindowedSinc_HalfBandIsDelta checks that a cutoff at Nyquist degenerates
// to a pass-through filter for odd lengths.
func TestWindowedSinc_HalfBandIsDelta(t *testing.T) {
	coeffs := windowedSinc(testWindowLength51, 0.5, testBeta5)

	for i, c := range coeffs {
		if i == testWindowLength51/2 {
			assert.InDelta(t, 1.0, c, deltaTolerance)
		} else {
			assert.InDelta(t, 0.0, c, deltaTolerance, "tap %d", i)
		}
	}
}

// TestWindowedSinc_CutoffClamped verifies out-of-range cutoffs do not break the design.
func TestWindowedSinc_CutoffClamped(t *testing.T) {
	for _, fc := range []float64{0, -0.2, 1e-30, 0.9, math.NaN()} {
		coeffs := windowedSinc(testWindowLength21, fc, testBeta8)

		testutil.AssertNoNaNOrInf(t, coeffs, "fc=%v", fc)
		testutil.AssertDCGain(t, coeffs, 1.0, dcGainTolerance)
	}
}

// TestComputeFrequencyResponse tests frequency response calculation.
func TestComputeFrequencyResponse(t *testing.T) {
	// Simple 3-tap averaging filter: [0.25, 0.5, 0.25]
	const (
		tap0 = 0.25
		tap1 = 0.5
		tap2 = 0.25
	)
	coeffs := []float64{tap0, tap1, tap2}

	response := ComputeFrequencyResponse(coeffs, testNumPoints512)

	assert.Len(t, response.Frequencies, testNumPoints512, "frequencies length mismatch")
	assert.Len(t, response.Magnitude, testNumPoints512, "magnitude length mismatch")
	assert.Len(t, response.Phase, testNumPoints512, "phase length mismatch")

	// DC response (freq=0) should equal sum of coefficients
	expectedDC := tap0 + tap1 + tap2
	assert.InDelta(t, expectedDC, response.Magnitude[0], magnitudeTolerance,
		"DC magnitude mismatch")

	// Nyquist response (freq=0.5) for this filter should be zero
	// because [0.25, 0.5, 0.25] alternating signs = 0.25 - 0.5 + 0.25 = 0
	nyquistIdx := testNumPoints512 - 1
	nyquistMag := response.Magnitude[nyquistIdx]
	assert.LessOrEqual(t, nyquistMag, magnitudeTolerance,
		"Nyquist magnitude should be ~0")
}

// TestMagnitudeDB tests linear to dB conversion.
func TestMagnitudeDB(t *testing.T) {
	const (
		mag1    = 1.0
		mag0_5  = 0.5
		mag0_1  = 0.1
		mag0_01 = 0.01

		db1    = 0.0
		db0_5  = -6.0206
		db0_1  = -20.0
		db0_01 = -40.0

		dbTolerance = 0.01
	)

	tests := []struct {
		name string
		mag  float64
		want float64
	}{
		{"magnitude_1", mag1, db1},
		{"magnitude_0_5", mag0_5, db0_5},
		{"magnitude_0_1", mag0_1, db0_1},
		{"magnitude_0_01", mag0_01, db0_01},
		{"magnitude_zero", 0.0, -200.0}, // Should clip to minimum
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MagnitudeDB(tt.mag)
			assert.InDelta(t, tt.want, got, dbTolerance,
				"MagnitudeDB(%f) = %f dB, want %f dB", tt.mag, got, tt.want)
		})
	}
}

// BenchmarkKaiserWindow benchmarks window generation.
func BenchmarkKaiserWindow(b *testing.B) {
	benchmarks := []struct {
		name   string
		length int
		beta   float64
	}{
		{"length_51", testWindowLength51, testBeta8},
		{"length_101", 101, testBeta8},
		{"length_201", 201, testBeta10},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			for b.Loop() {
				_ = KaiserWindow(bm.length, bm.beta)
			}
		})
	}
}

// BenchmarkNewDesign benchmarks filter design at the default settings.
func BenchmarkNewDesign(b *testing.B) {
	params := defaultParams()

	for b.Loop() {
		_, _ = NewDesign(params)
	}
}

// BenchmarkComputeFrequencyResponse benchmarks frequency response calculation.
func BenchmarkComputeFrequencyResponse(b *testing.B) {
	d, err := NewDesign(defaultParams())
	require.NoError(b, err)

	b.ResetTimer()
	for b.Loop() {
		_ = ComputeFrequencyResponse(d.Taps, testNumPoints1024)
	}
}
