package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
)

func TestSummarize(t *testing.T) {
	d, err := filter.NewDesign(filter.Params{
		FilterBW:        defaultFilterBW,
		TransitionWidth: defaultTW,
		Ripple:          defaultRipple,
		InputRate:       defaultInputRate,
		OutputRate:      defaultOutputRate,
		FFTSize:         defaultFFTSize,
	})
	require.NoError(t, err)

	s := summarize(d, defaultInputRate, defaultFilterBW)
	assert.InDelta(t, 1.0, s.DCGain, 1e-12)
	assert.InDelta(t, 3600.0, s.PassbandEdge, 1e-9)
	assert.InDelta(t, 4400.0, s.StopbandEdge, 1e-9)

	// 0.01 ripple is 40 dB; the window design lands close to it
	assert.Less(t, s.StopbandDB, -35.0)
	assert.Greater(t, s.PassbandMinDB, -0.5)
	assert.Less(t, s.PassbandMaxDB, 0.5)
}
