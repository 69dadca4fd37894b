package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/go-tune-filter-decimate/internal/testutil"
)

// Shared rate for the tap-count table below.
const testInputRate = 5000.0

func deltaOmega(tw, rate float64) float64 {
	return 2 * math.Pi * tw / rate
}

// TestKaiserBeta tests the three regions of the Kaiser β formula.
func TestKaiserBeta(t *testing.T) {
	tests := []struct {
		name     string
		att      float64
		min, max float64
	}{
		{"below 21 dB", 15.0, 0, 0},
		{"exactly 21 dB", 21.0, 0, 0},
		{"40 dB", 40.0, 3.39, 3.40},
		{"50 dB", 50.0, 4.5, 4.6},
		{"100 dB", 100.0, 10.0, 10.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertInRange(t, KaiserBeta(tt.att), tt.min, tt.max)
		})
	}
}

// TestKaiserBeta_Monotonic tests β never decreases with attenuation.
func TestKaiserBeta_Monotonic(t *testing.T) {
	prev := KaiserBeta(0)
	for att := 1.0; att <= 150; att++ {
		curr := KaiserBeta(att)
		assert.GreaterOrEqual(t, curr, prev, "β decreased at %v dB", att)
		prev = curr
	}
}

func TestRippleToAttenuation(t *testing.T) {
	assert.InDelta(t, 40.0, RippleToAttenuation(0.01), 1e-9)
	assert.InDelta(t, 20.0, RippleToAttenuation(0.1), 1e-9)

	t.Run("clamped at the edges", func(t *testing.T) {
		for _, r := range []float64{0, -1, 1, 2, math.NaN()} {
			a := RippleToAttenuation(r)
			assert.False(t, math.IsNaN(a) || math.IsInf(a, 0), "ripple=%v gave %v", r, a)
		}
	})
}

// TestKaiserTaps checks tap counts against reference designs at a 5 kHz input rate.
func TestKaiserTaps(t *testing.T) {
	tests := []struct {
		name   string
		tw     float64
		ripple float64
		want   int
	}{
		{"high attenuation branch", 180.64, 0.0562, 34},
		{"low attenuation branch", 140.056, 0.1778, 34},
		{"wide transition", 222.816, 0.1778, 22},
		{"narrow transition", 65.254, 0.1778, 72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KaiserTaps(RippleToAttenuation(tt.ripple), deltaOmega(tt.tw, testInputRate))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKaiserTaps_Defaults(t *testing.T) {
	// 800 Hz transition at 100 kHz, 0.01 ripple
	assert.Equal(t, 281, KaiserTaps(40, deltaOmega(800, 100000)))
}

func TestKaiserTaps_DegenerateWidth(t *testing.T) {
	for _, dw := range []float64{0, -1, math.NaN(), 1e-300} {
		assert.Equal(t, math.MaxInt32, KaiserTaps(60, dw), "deltaOmega=%v", dw)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {64, 64}, {65, 128}, {4097, 8192},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextPowerOfTwo(tt.in), "n=%d", tt.in)
	}
	assert.True(t, IsPowerOfTwo(4096))
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(96))
}

// BenchmarkKaiserTaps benchmarks tap estimation.
func BenchmarkKaiserTaps(b *testing.B) {
	for b.Loop() {
		_ = KaiserTaps(80, 0.05)
	}
}
