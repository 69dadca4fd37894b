package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ramp(n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(float64(i), 0)
	}
	return out
}

func TestDecimator_Count(t *testing.T) {
	tests := []struct {
		factor, n, want int
	}{
		{1, 10, 10},
		{3, 10, 4},
		{3, 9, 3},
		{10, 1, 1},
		{10, 0, 0},
		{7, 100, 15},
	}

	for _, tt := range tests {
		d := NewDecimator(tt.factor)
		assert.Equal(t, tt.want, d.OutputLen(tt.n), "factor %d n %d", tt.factor, tt.n)
		assert.Len(t, d.Process(nil, ramp(tt.n)), tt.want, "factor %d n %d", tt.factor, tt.n)
	}
}

// TestDecimator_PhaseContinuous verifies block boundaries do not shift the
// kept samples.
func TestDecimator_PhaseContinuous(t *testing.T) {
	in := ramp(1000)
	whole := NewDecimator(7).Process(nil, in)

	d := NewDecimator(7)
	var split []complex128
	for _, size := range []int{1, 2, 13, 100, 6, 500, 378} {
		split = d.Process(split, in[:size])
		in = in[size:]
	}

	assert.Equal(t, whole, split)
	for i, v := range whole {
		assert.Equal(t, float64(7*i), real(v))
	}
}

func TestDecimator_SetFactor(t *testing.T) {
	d := NewDecimator(0)
	assert.Equal(t, 1, d.Factor())

	d.SetFactor(10)
	d.Process(nil, ramp(3)) // keeps sample 0, next kept is 7 samples away
	d.SetFactor(4)

	out := d.Process(nil, ramp(8))
	assert.Equal(t, []complex128{3, 7}, out)

	d.Reset()
	assert.Equal(t, []complex128{0, 4}, d.Process(nil, ramp(8)))
}
