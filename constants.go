package tfd

import "time"

// Default settings
const (
	defaultFFTSize           = 4096
	defaultTransitionWidth   = 800.0  // Hz
	defaultRipple            = 0.01   // linear
	defaultFilterBW          = 8000.0 // Hz
	defaultDesiredOutputRate = 10000.0
	defaultReadTimeout       = 2 * time.Second
)

// SRI keyword names
const (
	// KeywordColRF is the collection (tuner) reference frequency in Hz.
	KeywordColRF = "COL_RF"

	// KeywordChanRF is the channel frequency in Hz, present when it differs
	// from COL_RF.
	KeywordChanRF = "CHAN_RF"
)

// Property names accepted by Controller.Configure
const (
	PropTuneMode          = "TuneMode"
	PropTuningRF          = "TuningRF"
	PropTuningIF          = "TuningIF"
	PropTuningNorm        = "TuningNorm"
	PropFilterBW          = "FilterBW"
	PropDesiredOutputRate = "DesiredOutputRate"
	PropFilterProps       = "filterProps"
	PropFFTSize           = "FFT_size"
	PropTransitionWidth   = "TransitionWidth"
	PropRipple            = "Ripple"

	filterPropsPrefix = PropFilterProps + "."
)

// Read-only properties reported by Status
const (
	PropTaps             = "taps"
	PropActualOutputRate = "ActualOutputRate"
	PropInputRate        = "InputRate"
	PropInputRF          = "InputRF"
)
