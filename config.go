package tfd

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
	"github.com/tphakala/go-tune-filter-decimate/internal/mathutil"
	"github.com/tphakala/go-tune-filter-decimate/internal/pipeline"
)

// Common errors returned by the engine.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid tfd configuration")

	// ErrInvalidTuneMode indicates a tune mode other than RF, IF or NORM.
	ErrInvalidTuneMode = pipeline.ErrInvalidTuneMode

	// ErrInvalidFilterSpec indicates filter properties out of domain.
	ErrInvalidFilterSpec = filter.ErrInvalidSpec

	// ErrInvalidOutputRate indicates a desired output rate that is not
	// positive or exceeds the input rate.
	ErrInvalidOutputRate = errors.New("invalid output rate")

	// ErrUnknownProperty indicates a property name Configure does not know.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrStreamClosed indicates a push to a stream that already ended.
	ErrStreamClosed = errors.New("stream closed")

	// ErrUnknownStream indicates a stream ID with no session.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrTimeout indicates a read that found no output within the read timeout.
	ErrTimeout = errors.New("read timed out")

	// ErrEngineClosed indicates use of an engine after Close.
	ErrEngineClosed = errors.New("engine closed")
)

// TuneMode selects which tuning coordinate is authoritative.
type TuneMode = pipeline.TuneMode

// Tune modes.
const (
	TuneRF   = pipeline.TuneRF
	TuneIF   = pipeline.TuneIF
	TuneNorm = pipeline.TuneNorm
)

// ParseTuneMode parses "RF", "IF" or "NORM", ignoring case.
func ParseTuneMode(s string) (TuneMode, error) {
	return pipeline.ParseTuneMode(s)
}

// FilterProps holds the filter design properties.
type FilterProps struct {
	// FFTSize is the FFT block size hint. It must be a power of two and
	// grows automatically when the filter needs more room.
	FFTSize int

	// TransitionWidth is the filter transition band in Hz.
	TransitionWidth float64

	// Ripple is the linear passband/stopband ripple, 0 < Ripple < 1.
	Ripple float64
}

// Validate checks the filter properties.
func (p FilterProps) Validate() error {
	return filter.ValidateSpec(p.FFTSize, p.TransitionWidth, p.Ripple)
}

// Settings is the user-facing configuration of the tuner, filter and
// decimator. Published settings are never modified; the controller replaces
// them as a whole.
type Settings struct {
	// TuneMode selects which of the three tuning fields is used.
	TuneMode TuneMode

	// TuningRF is the absolute RF to tune to, in Hz.
	TuningRF uint64

	// TuningIF is the offset from the reference IF, in Hz.
	TuningIF float64

	// TuningNorm is the tuning frequency in cycles/sample, [-0.5, 0.5].
	TuningNorm float64

	// FilterBW is the passband width in Hz.
	FilterBW float64

	// DesiredOutputRate is the requested output rate in Hz. The actual rate
	// is the input rate divided by an integer factor.
	DesiredOutputRate float64

	FilterProps FilterProps
}

// DefaultSettings returns the default settings: RF tuning, 8 kHz bandwidth,
// 10 kHz output and a 4096-point FFT with 800 Hz transition and 0.01 ripple.
func DefaultSettings() Settings {
	return Settings{
		TuneMode:          TuneRF,
		FilterBW:          defaultFilterBW,
		DesiredOutputRate: defaultDesiredOutputRate,
		FilterProps: FilterProps{
			FFTSize:         defaultFFTSize,
			TransitionWidth: defaultTransitionWidth,
			Ripple:          defaultRipple,
		},
	}
}

// Validate checks the settings. inputRate is the last observed input rate,
// or 0 when none has been seen, in which case the output rate is only
// checked for being positive.
func (s *Settings) Validate(inputRate float64) error {
	if !s.TuneMode.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidTuneMode, s.TuneMode)
	}

	if !isFinite(s.TuningIF) || !isFinite(s.TuningNorm) {
		return fmt.Errorf("%w: tuning values must be finite", ErrInvalidConfig)
	}

	if !(s.FilterBW > 0) || math.IsInf(s.FilterBW, 0) {
		return fmt.Errorf("%w: filter bandwidth %g must be positive", ErrInvalidFilterSpec, s.FilterBW)
	}

	if !(s.DesiredOutputRate > 0) || math.IsInf(s.DesiredOutputRate, 0) {
		return fmt.Errorf("%w: %g must be positive", ErrInvalidOutputRate, s.DesiredOutputRate)
	}

	if inputRate > 0 && s.DesiredOutputRate > inputRate {
		return fmt.Errorf("%w: %g exceeds input rate %g", ErrInvalidOutputRate, s.DesiredOutputRate, inputRate)
	}

	return s.FilterProps.Validate()
}

// Config holds engine configuration.
type Config struct {
	// Settings are the initial tuning and filter settings.
	Settings Settings

	// ReadTimeout bounds how long Read waits for output.
	ReadTimeout time.Duration

	// MinTaps is the smallest filter length designed. Zero selects 25.
	MinTaps int

	// MaxFFTSize caps the FFT block size. Zero selects 8Mi. Must be a power of
	// two, at least 64 and at least twice MinTaps.
	MaxFFTSize int

	// Logger receives tuning and filter events. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with default settings.
func DefaultConfig() Config {
	return Config{
		Settings:    DefaultSettings(),
		ReadTimeout: defaultReadTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive", ErrInvalidConfig)
	}

	if c.MinTaps < 0 {
		return fmt.Errorf("%w: minimum taps must not be negative", ErrInvalidConfig)
	}

	if c.MaxFFTSize != 0 {
		if !mathutil.IsPowerOfTwo(c.MaxFFTSize) {
			return fmt.Errorf("%w: maximum FFT size %d is not a power of two", ErrInvalidConfig, c.MaxFFTSize)
		}

		// The FFT must hold twice the shortest filter
		minTaps := c.MinTaps
		if minTaps == 0 {
			minTaps = filter.DefaultMinTaps
		}
		if floor := max(filter.DefaultMinFFTSize, 2*minTaps); c.MaxFFTSize < floor {
			return fmt.Errorf("%w: maximum FFT size %d is below %d", ErrInvalidConfig, c.MaxFFTSize, floor)
		}
	}

	return c.Settings.Validate(0)
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
