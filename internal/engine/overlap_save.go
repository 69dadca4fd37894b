package engine

import (
	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
	"github.com/tphakala/go-tune-filter-decimate/internal/pipeline"
	"github.com/tphakala/simd/c128"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// OverlapSave filters a complex stream with a real FIR using overlap-save
// FFT convolution.
//
// Input accumulates in a frame buffer that always starts with numTaps-1
// samples of history (zeros for a new stream). Every time fftSize samples are
// buffered one block is transformed and frameSize = fftSize - numTaps + 1
// filtered samples come out:
//  1. FFT the fftSize-sample block
//  2. Multiply by the precomputed kernel spectrum
//  3. Inverse FFT and drop the first numTaps-1 (circularly wrapped) samples
//  4. Advance the buffer by frameSize, leaving the new history in place
type OverlapSave struct {
	fft       *fourier.CmplxFFT
	fftSize   int
	numTaps   int
	frameSize int

	// Kernel spectrum, pre-scaled by 1/fftSize since gonum's inverse
	// transform does not normalize
	kernelFFT []complex128

	buf *pipeline.RingBuffer

	// Working buffers
	block     []complex128
	signalFFT []complex128
	product   []complex128
	result    []complex128
}

// NewOverlapSave creates a framer for the given design with zeroed history.
func NewOverlapSave(d *filter.Design) *OverlapSave {
	o := newOverlapSave(d)
	o.buf.Write(make([]complex128, o.numTaps-1))
	return o
}

func newOverlapSave(d *filter.Design) *OverlapSave {
	fftSize := d.FFTSize
	numTaps := d.NumTaps()

	fft := fourier.NewCmplxFFT(fftSize)

	// Symmetric taps, so no reversal is needed for convolution
	scaled := make([]float64, numTaps)
	f64.Scale(scaled, d.Taps, 1.0/float64(fftSize))

	kernel := make([]complex128, fftSize)
	for i, h := range scaled {
		kernel[i] = complex(h, 0)
	}

	return &OverlapSave{
		fft:       fft,
		fftSize:   fftSize,
		numTaps:   numTaps,
		frameSize: fftSize - numTaps + 1,
		kernelFFT: fft.Coefficients(nil, kernel),
		buf:       pipeline.NewRingBuffer(frameBufferBlocks * fftSize),
		block:     make([]complex128, fftSize),
		signalFFT: make([]complex128, fftSize),
		product:   make([]complex128, fftSize),
		result:    make([]complex128, fftSize),
	}
}

// FFTSize returns the transform length.
func (o *OverlapSave) FFTSize() int { return o.fftSize }

// NumTaps returns the filter length.
func (o *OverlapSave) NumTaps() int { return o.numTaps }

// FrameSize returns the number of filtered samples produced per block.
func (o *OverlapSave) FrameSize() int { return o.frameSize }

// Pending returns the number of buffered input samples not yet filtered.
func (o *OverlapSave) Pending() int {
	return max(o.buf.Available()-(o.numTaps-1), 0)
}

// Process buffers src and appends the output of every completed block to dst.
func (o *OverlapSave) Process(dst, src []complex128) []complex128 {
	o.buf.Write(src)

	for o.buf.Available() >= o.fftSize {
		o.buf.PeekInto(o.block)
		dst = append(dst, o.convolveBlock()...)
		o.buf.Discard(o.frameSize)
	}

	return dst
}

// Flush zero-pads the partial frame, filters it, and appends its valid
// samples to dst. The history is reset afterwards, as for a new stream.
func (o *OverlapSave) Flush(dst []complex128) []complex128 {
	pending := o.Pending()
	if pending == 0 {
		return dst
	}

	n := o.buf.PeekInto(o.block)
	clear(o.block[n:])

	valid := o.convolveBlock()
	dst = append(dst, valid[:pending]...)

	o.buf.Clear()
	o.buf.Write(make([]complex128, o.numTaps-1))

	return dst
}

// Rebuild returns a framer for a new design that continues this one's stream:
// buffered input that has not been filtered yet is carried over, along with as
// much history as the new filter needs.
func (o *OverlapSave) Rebuild(d *filter.Design) *OverlapSave {
	next := newOverlapSave(d)

	pending := o.Pending()
	all := o.buf.ReadAll()

	wantHistory := next.numTaps - 1
	haveHistory := len(all) - pending

	if haveHistory < wantHistory {
		next.buf.Write(make([]complex128, wantHistory-haveHistory))
		next.buf.Write(all)
	} else {
		next.buf.Write(all[haveHistory-wantHistory:])
	}

	// The carried input may already complete blocks for the new frame size;
	// they are produced on the next Process call.
	return next
}

// convolveBlock filters o.block and returns the valid part of the result.
// The returned slice aliases internal storage.
func (o *OverlapSave) convolveBlock() []complex128 {
	o.fft.Coefficients(o.signalFFT, o.block)
	c128.Mul(o.product, o.signalFFT, o.kernelFFT)
	o.fft.Sequence(o.result, o.product)

	return o.result[o.numTaps-1:]
}
