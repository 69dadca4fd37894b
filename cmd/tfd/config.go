package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	tfd "github.com/tphakala/go-tune-filter-decimate"
)

// fileConfig is the YAML configuration file. Properties are passed to the
// engine controller as they are, so they use the controller's property
// names:
//
//	col_rf: 100000000
//	read_timeout: 10s
//	properties:
//	  TuneMode: RF
//	  TuningRF: 100012500
//	  FilterBW: 6000
//	  filterProps:
//	    FFT_size: 8192
//	    Ripple: 0.001
type fileConfig struct {
	ColRF       float64        `yaml:"col_rf"`
	ReadTimeout time.Duration  `yaml:"read_timeout"`
	Properties  map[string]any `yaml:"properties"`
}

// loadFileConfig reads and decodes a YAML configuration file.
func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	fc := fileConfig{ReadTimeout: defaultReadTimeout}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.ReadTimeout <= 0 {
		return nil, fmt.Errorf("%w: read_timeout must be positive", tfd.ErrInvalidConfig)
	}
	if fc.ColRF < 0 {
		return nil, fmt.Errorf("%w: col_rf must not be negative", tfd.ErrInvalidConfig)
	}

	return &fc, nil
}

// merge overrides file properties with props.
func (fc *fileConfig) merge(props map[string]any) {
	if len(props) == 0 {
		return
	}
	if fc.Properties == nil {
		fc.Properties = make(map[string]any, len(props))
	}
	for k, v := range props {
		fc.Properties[k] = v
	}
}

// flagNames maps command line flags to controller property names.
var flagNames = map[string]string{
	"mode":   tfd.PropTuneMode,
	"if":     tfd.PropTuningIF,
	"norm":   tfd.PropTuningNorm,
	"rf":     tfd.PropTuningRF,
	"bw":     tfd.PropFilterBW,
	"rate":   tfd.PropDesiredOutputRate,
	"fft":    tfd.PropFilterProps + "." + tfd.PropFFTSize,
	"tw":     tfd.PropFilterProps + "." + tfd.PropTransitionWidth,
	"ripple": tfd.PropFilterProps + "." + tfd.PropRipple,
}

// flagProperties returns the properties for the flags that were set.
func flagProperties(values map[string]any, set map[string]bool) map[string]any {
	props := make(map[string]any)
	for name, value := range values {
		if !set[name] {
			continue
		}
		if prop, ok := flagNames[name]; ok {
			props[prop] = value
		}
	}
	return props
}

// keywords returns the input keywords for the recording.
func (fc *fileConfig) keywords() []tfd.Keyword {
	if fc.ColRF == 0 {
		return nil
	}
	return []tfd.Keyword{{ID: tfd.KeywordColRF, Value: fc.ColRF}}
}

// engineConfig builds the engine configuration.
func (fc *fileConfig) engineConfig(verbose bool) tfd.Config {
	cfg := tfd.DefaultConfig()
	cfg.ReadTimeout = fc.ReadTimeout
	cfg.Logger = newLogger(verbose)
	return cfg
}
