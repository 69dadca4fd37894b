package engine

import (
	"math"
)

// NCO is a numerically controlled oscillator that shifts a complex stream
// down by a normalized frequency.
//
// The phase accumulator is kept in radians and wrapped into (-π, π] every
// sample, so rounding error does not grow with stream length. Retuning changes
// only the increment; the phase carries over.
type NCO struct {
	norm  float64
	step  float64
	phase float64
}

// NewNCO creates an oscillator at the given normalized frequency (cycles/sample).
func NewNCO(norm float64) *NCO {
	n := &NCO{}
	n.Retune(norm)
	return n
}

// Retune sets a new frequency, effective from the next sample.
//
// Frequencies outside [-0.5, 0.5] alias back into that range.
func (n *NCO) Retune(norm float64) {
	if math.IsNaN(norm) || math.IsInf(norm, 0) {
		norm = 0
	}
	n.norm = norm
	n.step = twoPi * (norm - math.Round(norm))
}

// Norm returns the configured normalized frequency.
func (n *NCO) Norm() float64 {
	return n.norm
}

// Phase returns the phase that will be applied to the next sample.
func (n *NCO) Phase() float64 {
	return n.phase
}

// Reset sets the phase back to zero.
func (n *NCO) Reset() {
	n.phase = 0
}

// Mix multiplies src by exp(-j·phase) sample by sample and writes the result
// to dst, which may alias src. dst must be at least len(src) long.
func (n *NCO) Mix(dst, src []complex128) []complex128 {
	dst = dst[:len(src)]

	if n.step == 0 && n.phase == 0 {
		copy(dst, src)
		return dst
	}

	phase := n.phase
	for i, s := range src {
		sin, cos := math.Sincos(phase)
		dst[i] = s * complex(cos, -sin)

		phase += n.step
		if phase > math.Pi {
			phase -= twoPi
		} else if phase <= -math.Pi {
			phase += twoPi
		}
	}
	n.phase = phase

	return dst
}
