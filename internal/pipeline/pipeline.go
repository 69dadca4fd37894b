// Package pipeline derives the per-stream processing plan of the
// tune-filter-decimate chain: the three tuning coordinates, the decimation
// factor and the channel filter, from the configured settings and what is
// known about the input stream.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
)

// ErrInvalidTuneMode is returned for tune modes other than RF, IF and NORM.
var ErrInvalidTuneMode = errors.New("invalid tune mode")

// TuneMode selects which tuning coordinate is authoritative.
type TuneMode int

const (
	// TuneRF tunes to an absolute RF frequency in Hz.
	TuneRF TuneMode = iota

	// TuneIF tunes to an offset in Hz from the reference IF.
	TuneIF

	// TuneNorm tunes to a normalized frequency in cycles/sample.
	TuneNorm
)

// String returns the property spelling of the mode.
func (m TuneMode) String() string {
	switch m {
	case TuneRF:
		return "RF"
	case TuneIF:
		return "IF"
	case TuneNorm:
		return "NORM"
	default:
		return fmt.Sprintf("TuneMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m TuneMode) Valid() bool {
	return m == TuneRF || m == TuneIF || m == TuneNorm
}

// ParseTuneMode parses "RF", "IF" or "NORM", ignoring case and surrounding space.
func ParseTuneMode(s string) (TuneMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RF":
		return TuneRF, nil
	case "IF":
		return TuneIF, nil
	case "NORM":
		return TuneNorm, nil
	default:
		return 0, fmt.Errorf("%w: %q (want RF, IF or NORM)", ErrInvalidTuneMode, s)
	}
}

// Tuning is the user's tuning request. Only the field selected by Mode is read.
type Tuning struct {
	Mode TuneMode
	RF   uint64  // Hz
	IF   float64 // Hz
	Norm float64 // cycles/sample
}

// FilterSpec holds the user-settable filter design properties.
type FilterSpec struct {
	FFTSize         int
	TransitionWidth float64 // Hz
	Ripple          float64 // linear
}

// Input describes what is known about a stream at the time of planning.
type Input struct {
	Rate    float64 // Hz
	RF      float64 // Hz, 0 when unknown
	Complex bool
}

// Request bundles everything BuildPlan needs.
type Request struct {
	Tuning            Tuning
	Filter            FilterSpec
	FilterBW          float64
	DesiredOutputRate float64
	Input             Input

	// Design bounds, zero for the filter package defaults
	MinTaps    int
	MaxFFTSize int
}

// FilterKey captures every input the filter design depends on. Two requests
// with equal keys produce the same design.
type FilterKey struct {
	Spec       FilterSpec
	FilterBW   float64
	InputRate  float64
	Decimation int
	MinTaps    int
	MaxFFTSize int
}

// Plan is the derived processing state for one stream.
type Plan struct {
	Mode TuneMode

	// Derived tuning coordinates
	TuningRF    uint64
	TuningIF    float64
	TuningNorm  float64
	ReferenceIF float64

	Decimation int
	OutputRate float64

	Design *filter.Design
	Key    FilterKey

	// Conditions the caller may want to log
	NormClamped       bool
	DecimationClamped bool
	RFUnknown         bool
	OutputBelowBW     bool
}

// ReferenceIF returns the IF that maps onto COL_RF: 0 for complex input and
// a quarter of the sample rate for real input.
func ReferenceIF(in Input) float64 {
	if in.Complex {
		return 0
	}
	return in.Rate / realReferenceDivisor
}

// Decimation returns floor(inputRate/desiredRate), at least 1. A ratio within
// a relative 1e-9 below an integer counts as that integer, so a reported
// output rate set back as the desired rate keeps its factor. The second
// result reports whether the floor was applied.
func Decimation(inputRate, desiredRate float64) (int, bool) {
	if !(inputRate > 0) || !(desiredRate > 0) {
		return minDecimation, true
	}

	ratio := inputRate / desiredRate
	d := math.Floor(ratio + ratio*decimationEpsilon)
	if d < minDecimation {
		return minDecimation, true
	}
	if d > math.MaxInt32 {
		d = math.MaxInt32
	}

	return int(d), false
}

// DeriveTuning fills in the tuning coordinates of p from the request.
func DeriveTuning(p *Plan, req *Request) {
	in := req.Input
	p.Mode = req.Tuning.Mode
	p.ReferenceIF = ReferenceIF(in)
	p.NormClamped = false
	p.RFUnknown = false

	switch req.Tuning.Mode {
	case TuneIF:
		p.TuningIF = req.Tuning.IF
	case TuneNorm:
		norm := req.Tuning.Norm
		if math.IsNaN(norm) {
			norm = 0
		}
		if math.Abs(norm) > maxTuningNorm {
			norm = math.Copysign(maxTuningNorm, norm)
			p.NormClamped = true
		}
		p.TuningNorm = norm
		p.TuningIF = norm * in.Rate
	default:
		if in.RF == 0 {
			p.RFUnknown = true
			p.TuningIF = 0
		} else {
			p.TuningIF = float64(req.Tuning.RF) + p.ReferenceIF - in.RF
		}
	}

	if req.Tuning.Mode != TuneNorm {
		p.TuningNorm = 0
		if in.Rate > 0 {
			p.TuningNorm = p.TuningIF / in.Rate
		}
	}

	switch {
	case req.Tuning.Mode == TuneRF:
		p.TuningRF = req.Tuning.RF
	case in.RF != 0:
		rf := in.RF + p.TuningIF - p.ReferenceIF
		p.TuningRF = 0
		if rf > 0 {
			p.TuningRF = uint64(math.Round(rf))
		}
	default:
		p.TuningRF = 0
	}
}

// BuildPlan derives a complete plan. When prev is non-nil and its filter key
// matches, prev's design is reused instead of designing a new filter.
func BuildPlan(req Request, prev *Plan) (*Plan, error) {
	if !req.Tuning.Mode.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTuneMode, req.Tuning.Mode)
	}

	p := &Plan{}
	DeriveTuning(p, &req)

	p.Decimation, p.DecimationClamped = Decimation(req.Input.Rate, req.DesiredOutputRate)
	p.OutputRate = req.Input.Rate / float64(p.Decimation)
	p.OutputBelowBW = p.OutputRate < req.FilterBW

	p.Key = FilterKey{
		Spec:       req.Filter,
		FilterBW:   req.FilterBW,
		InputRate:  req.Input.Rate,
		Decimation: p.Decimation,
		MinTaps:    req.MinTaps,
		MaxFFTSize: req.MaxFFTSize,
	}

	if prev != nil && prev.Design != nil && prev.Key == p.Key {
		p.Design = prev.Design
		return p, nil
	}

	design, err := filter.NewDesign(filter.Params{
		FilterBW:        req.FilterBW,
		TransitionWidth: req.Filter.TransitionWidth,
		Ripple:          req.Filter.Ripple,
		InputRate:       req.Input.Rate,
		OutputRate:      p.OutputRate,
		FFTSize:         req.Filter.FFTSize,
		MinTaps:         req.MinTaps,
		MaxFFTSize:      req.MaxFFTSize,
	})
	if err != nil {
		return nil, err
	}
	p.Design = design

	return p, nil
}

// FilterChanged reports whether moving from p to next requires a new filter.
func (p *Plan) FilterChanged(next *Plan) bool {
	return p == nil || p.Design != next.Design
}

// TuningChanged reports whether moving from p to next requires retuning.
func (p *Plan) TuningChanged(next *Plan) bool {
	return p == nil || p.TuningNorm != next.TuningNorm
}
