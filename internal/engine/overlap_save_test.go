package engine

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
	"github.com/tphakala/go-tune-filter-decimate/internal/testutil"
)

const (
	osInputRate  = 100000.0
	osOutputRate = 10000.0
	osFilterBW   = 8000.0
	osFFTHint    = 512
	osTolerance  = 1e-9
)

func testDesign(t testing.TB, tw float64) *filter.Design {
	t.Helper()
	d, err := filter.NewDesign(filter.Params{
		FilterBW:        osFilterBW,
		TransitionWidth: tw,
		Ripple:          0.01,
		InputRate:       osInputRate,
		OutputRate:      osOutputRate,
		FFTSize:         osFFTHint,
	})
	require.NoError(t, err)
	return d
}

// directConvolve computes y[n] = Σ h[k]·x[n-k] with x[n<0] = 0.
func directConvolve(x []complex128, h []float64) []complex128 {
	y := make([]complex128, len(x))
	for n := range x {
		var acc complex128
		for k, c := range h {
			if n-k < 0 {
				break
			}
			acc += complex(c, 0) * x[n-k]
		}
		y[n] = acc
	}
	return y
}

func assertClose(t *testing.T, want, got []complex128, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if !assert.InDelta(t, 0.0, cmplx.Abs(want[i]-got[i]), tol, "sample %d: want %v got %v", i, want[i], got[i]) {
			return
		}
	}
}

func TestOverlapSave_Geometry(t *testing.T) {
	d := testDesign(t, 800)
	o := NewOverlapSave(d)

	assert.Equal(t, 281, o.NumTaps())
	assert.Equal(t, 1024, o.FFTSize())
	assert.Equal(t, 1024-281+1, o.FrameSize())
	assert.Equal(t, 280, o.ExportedBuffered(), "history starts as numTaps-1 zeros")
	assert.Zero(t, o.Pending())

	// DC bin of the kernel spectrum is the DC gain divided by the FFT size
	assert.InDelta(t, 1.0/1024, real(o.ExportedKernelSpectrum()[0]), osTolerance)
}

// TestOverlapSave_MatchesDirectConvolution checks the block filter against
// a plain time-domain convolution for arbitrary chunking.
func TestOverlapSave_MatchesDirectConvolution(t *testing.T) {
	d := testDesign(t, 800)
	o := NewOverlapSave(d)

	x := testutil.ComplexNoise(5000, 7)

	var got []complex128
	for start, size := 0, 1; start < len(x); size = size*3 + 1 {
		end := min(start+size, len(x))
		got = o.Process(got, x[start:end])
		start = end
	}

	frames := len(x) / o.FrameSize()
	require.Len(t, got, frames*o.FrameSize())
	assert.Equal(t, len(x)-len(got), o.Pending())

	want := directConvolve(x, d.Taps)
	assertClose(t, want[:len(got)], got, osTolerance)
}

func TestOverlapSave_Flush(t *testing.T) {
	d := testDesign(t, 800)
	o := NewOverlapSave(d)

	x := testutil.ComplexNoise(2000, 8)
	got := o.Process(nil, x)
	pending := o.Pending()
	require.Positive(t, pending)

	got = o.Flush(got)
	require.Len(t, got, len(x))
	assertClose(t, directConvolve(x, d.Taps), got, osTolerance)

	assert.Zero(t, o.Pending())
	assert.Empty(t, o.Flush(nil), "second flush produces nothing")
}

// TestOverlapSave_RebuildSameFilter verifies that rebuilding mid-stream with
// an identical design does not change the output.
func TestOverlapSave_RebuildSameFilter(t *testing.T) {
	d := testDesign(t, 800)
	x := testutil.ComplexNoise(6000, 9)

	want := NewOverlapSave(d).Process(nil, x)

	o := NewOverlapSave(d)
	got := o.Process(nil, x[:1234])
	o = o.Rebuild(testDesign(t, 800))
	got = o.Process(got, x[1234:])

	assertClose(t, want, got, osTolerance)
}

// TestOverlapSave_RebuildNewFilter verifies carried input is not lost when
// the filter length changes.
func TestOverlapSave_RebuildNewFilter(t *testing.T) {
	short := testDesign(t, 800)
	long := testDesign(t, 200)
	require.Greater(t, long.NumTaps(), short.NumTaps())

	x := testutil.ComplexNoise(9000, 10)

	o := NewOverlapSave(short)
	got := o.Process(nil, x[:3000])
	consumed := len(got)

	o = o.Rebuild(long)
	assert.Equal(t, 3000-consumed, o.Pending())

	got = o.Process(got, x[3000:])
	got = o.Flush(got)
	assert.Len(t, got, len(x))
	testutil.AssertComplexFinite(t, got)

	// Past the new filter's length the output is the long filter's response
	tail := directConvolve(x, long.Taps)
	from := consumed + long.NumTaps()
	assertClose(t, tail[from:], got[from:], osTolerance)
}

func BenchmarkOverlapSave_Process(b *testing.B) {
	d := testDesign(b, 800)
	o := NewOverlapSave(d)
	x := testutil.ComplexNoise(o.FrameSize()*8, 11)
	out := make([]complex128, 0, len(x))

	for b.Loop() {
		out = o.Process(out[:0], x)
	}
}
