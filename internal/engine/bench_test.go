package engine

import (
	"testing"

	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
	"github.com/tphakala/go-tune-filter-decimate/internal/testutil"
)

func benchChain(b *testing.B, fftSize, blockSize int) {
	b.Helper()

	d, err := filter.NewDesign(filter.Params{
		FilterBW:        8000,
		TransitionWidth: 800,
		Ripple:          0.01,
		InputRate:       100000,
		OutputRate:      10000,
		FFTSize:         fftSize,
	})
	if err != nil {
		b.Fatal(err)
	}

	c := NewChain(0.125, d, 10)
	input := testutil.ComplexNoise(blockSize, 1)
	dst := make([]complex128, 0, blockSize)

	b.SetBytes(int64(blockSize) * 16)
	b.ResetTimer()
	for b.Loop() {
		dst = c.Process(dst[:0], input)
	}
}

// BenchmarkChain_Second benchmarks one second of 100 kHz input per call
func BenchmarkChain_Second(b *testing.B) { benchChain(b, 4096, 100000) }

// BenchmarkChain_SmallBlocks benchmarks packets shorter than a frame
func BenchmarkChain_SmallBlocks(b *testing.B) { benchChain(b, 4096, 1024) }

// BenchmarkChain_LargeFFT benchmarks a frame much longer than the filter
func BenchmarkChain_LargeFFT(b *testing.B) { benchChain(b, 65536, 100000) }

// BenchmarkChain_Refilter benchmarks switching between two filters
func BenchmarkChain_Refilter(b *testing.B) {
	narrow, wide := testDesign(b, 400), testDesign(b, 800)
	c := NewChain(0, narrow, 10)
	input := testutil.ComplexNoise(4096, 2)

	b.ResetTimer()
	for i := 0; b.Loop(); i++ {
		if i%2 == 0 {
			c.Refilter(wide, 10)
		} else {
			c.Refilter(narrow, 10)
		}
		_ = c.Process(nil, input)
	}
}
