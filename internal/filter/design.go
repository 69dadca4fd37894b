package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-tune-filter-decimate/internal/mathutil"
)

// ErrInvalidSpec is returned when filter design parameters are out of domain.
var ErrInvalidSpec = errors.New("invalid filter spec")

// Params holds everything needed to design the channel filter.
//
// Zero bounds select the package defaults (DefaultMinTaps and friends).
type Params struct {
	FilterBW        float64 // Passband width in Hz; cutoff is FilterBW/2
	TransitionWidth float64 // Requested transition width in Hz
	Ripple          float64 // Linear ripple, 0 < Ripple < 1
	InputRate       float64 // Rate the filter runs at, Hz
	OutputRate      float64 // Post-decimation rate, Hz; 0 disables the anti-alias clamp
	FFTSize         int     // FFT block size hint, power of two

	MinTaps    int
	MaxTaps    int
	MinFFTSize int
	MaxFFTSize int
}

// Design is the result of a filter design: coefficients and the FFT block size
// the overlap-save framer must use.
type Design struct {
	Taps    []float64
	FFTSize int

	// TransitionWidth is the width actually designed for, after the
	// anti-alias clamp.
	TransitionWidth   float64
	TransitionClamped bool

	Attenuation float64 // dB
	Beta        float64
	Cutoff      float64 // Normalized, cycles/sample
}

// NumTaps returns the filter length.
func (d *Design) NumTaps() int {
	return len(d.Taps)
}

// FrameSize returns the number of valid output samples per FFT block.
func (d *Design) FrameSize() int {
	return d.FFTSize - len(d.Taps) + 1
}

// ValidateSpec checks the user-settable filter properties.
func ValidateSpec(fftSize int, transitionWidth, ripple float64) error {
	if !(ripple > 0 && ripple < 1) {
		return fmt.Errorf("%w: ripple %g must be in (0, 1)", ErrInvalidSpec, ripple)
	}

	if !(transitionWidth > 0) || math.IsInf(transitionWidth, 0) {
		return fmt.Errorf("%w: transition width %g must be positive", ErrInvalidSpec, transitionWidth)
	}

	if !mathutil.IsPowerOfTwo(fftSize) {
		return fmt.Errorf("%w: FFT size %d must be a positive power of two", ErrInvalidSpec, fftSize)
	}

	return nil
}

// Validate checks the parameters without designing anything.
func (p *Params) Validate() error {
	if err := ValidateSpec(p.FFTSize, p.TransitionWidth, p.Ripple); err != nil {
		return err
	}

	if !(p.FilterBW > 0) || math.IsInf(p.FilterBW, 0) {
		return fmt.Errorf("%w: filter bandwidth %g must be positive", ErrInvalidSpec, p.FilterBW)
	}

	if !(p.InputRate > 0) || math.IsInf(p.InputRate, 0) {
		return fmt.Errorf("%w: input rate %g must be positive", ErrInvalidSpec, p.InputRate)
	}

	return nil
}

func (p *Params) withDefaults() Params {
	out := *p
	if out.MinTaps <= 0 {
		out.MinTaps = DefaultMinTaps
	}
	if out.MaxTaps <= 0 {
		out.MaxTaps = DefaultMaxTaps
	}
	if out.MinFFTSize <= 0 {
		out.MinFFTSize = DefaultMinFFTSize
	}
	if out.MaxFFTSize <= 0 {
		out.MaxFFTSize = DefaultMaxFFTSize
	}
	return out
}

// NewDesign designs a Kaiser-windowed low-pass filter.
//
// The tap count follows the Kaiser order estimate for the requested ripple
// and transition width at InputRate, floored at MinTaps and capped at
// min(MaxTaps, MaxFFTSize/2). The FFT size is the hint, raised until it holds
// at least 2·taps samples, then capped at MaxFFTSize.
//
// When OutputRate is set and the transition band would reach past the output
// Nyquist frequency, the transition width is narrowed to OutputRate/2 - FilterBW/2.
func NewDesign(params Params) (*Design, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	p := params.withDefaults()

	d := &Design{TransitionWidth: p.TransitionWidth}

	cutoffHz := p.FilterBW / halfBandDivisor
	if p.OutputRate > 0 {
		maxTW := p.OutputRate/halfBandDivisor - cutoffHz
		if maxTW > 0 && maxTW < d.TransitionWidth {
			d.TransitionWidth = maxTW
			d.TransitionClamped = true
		}
	}

	d.Attenuation = mathutil.RippleToAttenuation(p.Ripple)
	d.Beta = mathutil.KaiserBeta(d.Attenuation)

	deltaOmega := twoPi * d.TransitionWidth / p.InputRate
	numTaps := mathutil.KaiserTaps(d.Attenuation, deltaOmega)

	maxTaps := min(p.MaxTaps, p.MaxFFTSize/2)
	if maxTaps < 1 {
		return nil, fmt.Errorf("%w: maximum FFT size %d leaves no room for taps", ErrInvalidSpec, p.MaxFFTSize)
	}
	numTaps = min(max(numTaps, p.MinTaps), maxTaps)

	fftSize := max(p.FFTSize, p.MinFFTSize, mathutil.NextPowerOfTwo(2*numTaps))
	d.FFTSize = min(fftSize, p.MaxFFTSize)

	d.Cutoff = cutoffHz / p.InputRate
	d.Taps = windowedSinc(numTaps, d.Cutoff, d.Beta)

	return d, nil
}
