// Package engine implements the sample-level tune-filter-decimate chain:
// an NCO mixer, an overlap-save FFT filter and a phase-continuous decimator.
package engine

import (
	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
	"github.com/tphakala/simd/cpu"
)

// Chain runs one stream through tuning, filtering and decimation.
//
// A Chain is not safe for concurrent use; each stream owns its own.
type Chain struct {
	nco    *NCO
	framer *OverlapSave
	decim  *Decimator
	design *filter.Design

	// Scratch space reused between calls
	mixed    []complex128
	filtered []complex128
}

// NewChain creates a chain tuned to norm (cycles/sample) with a fresh filter
// history.
func NewChain(norm float64, design *filter.Design, decimation int) *Chain {
	return &Chain{
		nco:    NewNCO(norm),
		framer: NewOverlapSave(design),
		decim:  NewDecimator(decimation),
		design: design,
	}
}

// Process mixes, filters and decimates in, appending the output to dst.
// Input is buffered until a whole frame is available.
func (c *Chain) Process(dst, in []complex128) []complex128 {
	if cap(c.mixed) < len(in) {
		c.mixed = make([]complex128, len(in))
	}
	mixed := c.nco.Mix(c.mixed[:len(in)], in)

	c.filtered = c.framer.Process(c.filtered[:0], mixed)

	return c.decim.Process(dst, c.filtered)
}

// Flush filters whatever partial frame is buffered and appends its decimated
// output to dst.
func (c *Chain) Flush(dst []complex128) []complex128 {
	c.filtered = c.framer.Flush(c.filtered[:0])
	return c.decim.Process(dst, c.filtered)
}

// Retune changes the tuning frequency without disturbing the oscillator phase.
func (c *Chain) Retune(norm float64) {
	c.nco.Retune(norm)
}

// Refilter switches to a new filter design and decimation factor. Buffered
// samples and the decimation position carry over.
func (c *Chain) Refilter(design *filter.Design, decimation int) {
	if design != c.design {
		c.framer = c.framer.Rebuild(design)
		c.design = design
	}
	c.decim.SetFactor(decimation)
}

// Design returns the filter currently in use.
func (c *Chain) Design() *filter.Design { return c.design }

// Norm returns the current tuning frequency in cycles/sample.
func (c *Chain) Norm() float64 { return c.nco.Norm() }

// Decimation returns the current decimation factor.
func (c *Chain) Decimation() int { return c.decim.Factor() }

// FrameSize returns the number of filtered samples per FFT block.
func (c *Chain) FrameSize() int { return c.framer.FrameSize() }

// FFTSize returns the FFT block size in use.
func (c *Chain) FFTSize() int { return c.framer.FFTSize() }

// NumTaps returns the filter length in use.
func (c *Chain) NumTaps() int { return c.framer.NumTaps() }

// Pending returns the number of input samples buffered but not yet filtered.
func (c *Chain) Pending() int { return c.framer.Pending() }

// SIMDInfo reports the SIMD instruction set used by the vector kernels.
func SIMDInfo() string {
	return cpu.Info()
}

// ToComplex converts a block of samples to complex form, appending to dst.
// Interleaved I/Q input with an odd length loses its trailing value; the
// second result reports whether that happened.
func ToComplex(dst []complex128, data []float64, isComplex bool) ([]complex128, bool) {
	if !isComplex {
		for _, v := range data {
			dst = append(dst, complex(v, 0))
		}
		return dst, false
	}

	n := len(data) / valuesPerComplex
	for i := range n {
		dst = append(dst, complex(data[valuesPerComplex*i], data[valuesPerComplex*i+1]))
	}

	return dst, len(data)%valuesPerComplex != 0
}
