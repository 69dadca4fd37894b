package tfd

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tphakala/go-tune-filter-decimate/internal/pipeline"
)

// snapshot is an immutable published version of the settings.
type snapshot struct {
	settings Settings
	version  uint64
}

// Update is a partial settings change. Nil fields are left as they are.
type Update struct {
	TuneMode          *TuneMode
	TuningRF          *uint64
	TuningIF          *float64
	TuningNorm        *float64
	FilterBW          *float64
	DesiredOutputRate *float64

	// FilterProps replaces the filter properties as a whole. The single
	// fields below are applied on top of it.
	FilterProps     *FilterProps
	FFTSize         *int
	TransitionWidth *float64
	Ripple          *float64
}

func (u *Update) applyTo(s *Settings) {
	if u.TuneMode != nil {
		s.TuneMode = *u.TuneMode
	}
	if u.TuningRF != nil {
		s.TuningRF = *u.TuningRF
	}
	if u.TuningIF != nil {
		s.TuningIF = *u.TuningIF
	}
	if u.TuningNorm != nil {
		s.TuningNorm = *u.TuningNorm
	}
	if u.FilterBW != nil {
		s.FilterBW = *u.FilterBW
	}
	if u.DesiredOutputRate != nil {
		s.DesiredOutputRate = *u.DesiredOutputRate
	}
	if u.FilterProps != nil {
		s.FilterProps = *u.FilterProps
	}
	if u.FFTSize != nil {
		s.FilterProps.FFTSize = *u.FFTSize
	}
	if u.TransitionWidth != nil {
		s.FilterProps.TransitionWidth = *u.TransitionWidth
	}
	if u.Ripple != nil {
		s.FilterProps.Ripple = *u.Ripple
	}
}

// Status is the read-only view of the current configuration and the values
// derived from it for the most recently observed input.
type Status struct {
	Settings Settings
	Version  uint64

	// Derived tuning, all three coordinates
	TuningRF   uint64
	TuningIF   float64
	TuningNorm float64

	InputRate float64
	InputRF   float64

	// Effective filter and decimation values
	Taps             int
	FFTSize          int
	TransitionWidth  float64
	DecimationFactor int
	ActualOutputRate float64
}

// Controller validates and publishes settings. Sessions read the current
// settings without locking; writers are serialized.
type Controller struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[snapshot]

	// Last input seen by any session, with the plan derived for it
	obsMu    sync.RWMutex
	observed pipeline.Input
	plan     *pipeline.Plan

	minTaps    int
	maxFFTSize int
	logger     *slog.Logger
}

// NewController creates a controller publishing the given settings.
func NewController(settings Settings, logger *slog.Logger) (*Controller, error) {
	if err := settings.Validate(0); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{logger: logger}
	c.current.Store(&snapshot{settings: settings, version: 1})

	return c, nil
}

func (c *Controller) snapshot() *snapshot {
	return c.current.Load()
}

// Settings returns a copy of the current settings.
func (c *Controller) Settings() Settings {
	return c.snapshot().settings
}

// Version returns the version of the current settings. It increases by one
// with every accepted change.
func (c *Controller) Version() uint64 {
	return c.snapshot().version
}

// Apply validates and publishes a settings change. A rejected change leaves
// the current settings untouched.
func (c *Controller) Apply(u Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snapshot()
	next := cur.settings
	u.applyTo(&next)

	if err := next.Validate(c.observedRate()); err != nil {
		c.logger.Debug("settings rejected", "error", err)
		return err
	}

	c.current.Store(&snapshot{settings: next, version: cur.version + 1})
	c.logger.Debug("settings updated",
		"version", cur.version+1,
		"tune_mode", next.TuneMode,
		"filter_bw", next.FilterBW,
		"output_rate", next.DesiredOutputRate)

	return nil
}

// SetTuneMode selects the authoritative tuning coordinate.
func (c *Controller) SetTuneMode(m TuneMode) error {
	return c.Apply(Update{TuneMode: &m})
}

// SetTuneModeString parses and sets the tune mode.
func (c *Controller) SetTuneModeString(s string) error {
	m, err := ParseTuneMode(s)
	if err != nil {
		return err
	}
	return c.SetTuneMode(m)
}

// SetTuningRF sets the RF tuning frequency in Hz.
func (c *Controller) SetTuningRF(rf uint64) error {
	return c.Apply(Update{TuningRF: &rf})
}

// SetTuningIF sets the IF tuning offset in Hz.
func (c *Controller) SetTuningIF(hz float64) error {
	return c.Apply(Update{TuningIF: &hz})
}

// SetTuningNorm sets the normalized tuning frequency.
func (c *Controller) SetTuningNorm(norm float64) error {
	return c.Apply(Update{TuningNorm: &norm})
}

// SetFilterBW sets the filter bandwidth in Hz.
func (c *Controller) SetFilterBW(hz float64) error {
	return c.Apply(Update{FilterBW: &hz})
}

// SetDesiredOutputRate sets the requested output rate in Hz.
func (c *Controller) SetDesiredOutputRate(hz float64) error {
	return c.Apply(Update{DesiredOutputRate: &hz})
}

// SetFilterProps replaces the filter design properties.
func (c *Controller) SetFilterProps(p FilterProps) error {
	return c.Apply(Update{FilterProps: &p})
}

// Configure applies a set of named properties as one change. Keys are the
// property names (TuneMode, TuningRF, TuningIF, TuningNorm, FilterBW,
// DesiredOutputRate, filterProps, filterProps.FFT_size,
// filterProps.TransitionWidth, filterProps.Ripple).
func (c *Controller) Configure(props map[string]any) error {
	var u Update

	// Sorted so the reported error does not depend on map order, and so a
	// whole filterProps value precedes its dotted fields.
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := props[key]

		switch key {
		case PropTuneMode:
			m, err := tuneModeValue(value)
			if err != nil {
				return err
			}
			u.TuneMode = &m

		case PropTuningRF:
			rf, err := uintValue(key, value)
			if err != nil {
				return err
			}
			u.TuningRF = &rf

		case PropTuningIF, PropTuningNorm, PropFilterBW, PropDesiredOutputRate:
			f, err := floatValue(key, value)
			if err != nil {
				return err
			}
			switch key {
			case PropTuningIF:
				u.TuningIF = &f
			case PropTuningNorm:
				u.TuningNorm = &f
			case PropFilterBW:
				u.FilterBW = &f
			default:
				u.DesiredOutputRate = &f
			}

		case PropFilterProps:
			if err := setFilterProps(&u, value); err != nil {
				return err
			}

		case PropTaps, PropActualOutputRate, PropInputRate, PropInputRF:
			return fmt.Errorf("%w: %s is read-only", ErrInvalidConfig, key)

		default:
			field, ok := strings.CutPrefix(key, filterPropsPrefix)
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownProperty, key)
			}
			if err := setFilterProp(&u, field, value); err != nil {
				return err
			}
		}
	}

	return c.Apply(u)
}

// Status reports the current settings together with the tuning, filter and
// decimation values derived for the most recently observed input.
func (c *Controller) Status() Status {
	snap := c.snapshot()

	st := Status{
		Settings: snap.settings,
		Version:  snap.version,
	}

	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	st.InputRate = c.observed.Rate
	st.InputRF = c.observed.RF

	req := c.request(&snap.settings, c.observed)
	if c.observed.Rate > 0 {
		plan, err := pipeline.BuildPlan(req, c.plan)
		if err == nil {
			c.plan = plan
			fillStatus(&st, plan)
			return st
		}
		c.logger.Warn("status plan failed", "error", err)
	}

	var p pipeline.Plan
	pipeline.DeriveTuning(&p, &req)
	st.TuningRF, st.TuningIF, st.TuningNorm = p.TuningRF, p.TuningIF, p.TuningNorm

	return st
}

func fillStatus(st *Status, plan *pipeline.Plan) {
	st.TuningRF = plan.TuningRF
	st.TuningIF = plan.TuningIF
	st.TuningNorm = plan.TuningNorm
	st.Taps = plan.Design.NumTaps()
	st.FFTSize = plan.Design.FFTSize
	st.TransitionWidth = plan.Design.TransitionWidth
	st.DecimationFactor = plan.Decimation
	st.ActualOutputRate = plan.OutputRate
}

// observe records the input and plan of a session that was just (re)configured.
func (c *Controller) observe(in pipeline.Input, plan *pipeline.Plan) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	c.observed = in
	c.plan = plan
}

func (c *Controller) observedRate() float64 {
	c.obsMu.RLock()
	defer c.obsMu.RUnlock()
	return c.observed.Rate
}

// request builds the planning request for settings s and input in.
func (c *Controller) request(s *Settings, in pipeline.Input) pipeline.Request {
	return pipeline.Request{
		Tuning: pipeline.Tuning{
			Mode: s.TuneMode,
			RF:   s.TuningRF,
			IF:   s.TuningIF,
			Norm: s.TuningNorm,
		},
		Filter: pipeline.FilterSpec{
			FFTSize:         s.FilterProps.FFTSize,
			TransitionWidth: s.FilterProps.TransitionWidth,
			Ripple:          s.FilterProps.Ripple,
		},
		FilterBW:          s.FilterBW,
		DesiredOutputRate: s.DesiredOutputRate,
		Input:             in,
		MinTaps:           c.minTaps,
		MaxFFTSize:        c.maxFFTSize,
	}
}

func tuneModeValue(v any) (TuneMode, error) {
	switch m := v.(type) {
	case TuneMode:
		if !m.Valid() {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTuneMode, m)
		}
		return m, nil
	case string:
		return ParseTuneMode(m)
	default:
		return 0, fmt.Errorf("%w: %w: %s must be a string, got %T", ErrInvalidConfig, ErrInvalidTuneMode, PropTuneMode, v)
	}
}

func floatValue(key string, v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidConfig, key, v)
	}
	return f, nil
}

func uintValue(key string, v any) (uint64, error) {
	if u, ok := v.(uint64); ok {
		return u, nil
	}

	f, err := floatValue(key, v)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %v", ErrInvalidConfig, key, v)
	}
	return uint64(f), nil
}

func setFilterProps(u *Update, v any) error {
	switch p := v.(type) {
	case FilterProps:
		u.FilterProps = &p
		return nil
	case map[string]any:
		fields := make([]string, 0, len(p))
		for field := range p {
			fields = append(fields, field)
		}
		slices.Sort(fields)

		for _, field := range fields {
			if err := setFilterProp(u, field, p[field]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s must be a FilterProps or map, got %T", ErrInvalidConfig, PropFilterProps, v)
	}
}

func setFilterProp(u *Update, field string, v any) error {
	key := filterPropsPrefix + field

	switch field {
	case PropFFTSize:
		n, err := uintValue(key, v)
		if err != nil {
			return err
		}
		if n > math.MaxInt32 {
			return fmt.Errorf("%w: %s %d too large", ErrInvalidFilterSpec, key, n)
		}
		size := int(n)
		u.FFTSize = &size
	case PropTransitionWidth:
		f, err := floatValue(key, v)
		if err != nil {
			return err
		}
		u.TransitionWidth = &f
	case PropRipple:
		f, err := floatValue(key, v)
		if err != nil {
			return err
		}
		u.Ripple = &f
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, key)
	}

	return nil
}
