// Command analyze-filter prints the channel filter designed for a set of
// rates and filter properties, with a summary of its frequency response.
//
// Usage:
//
//	analyze-filter -rate 100000 -out 10000 -bw 8000 -tw 800 -ripple 0.01
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-tune-filter-decimate/internal/engine"
	"github.com/tphakala/go-tune-filter-decimate/internal/filter"
)

const (
	defaultInputRate  = 100000.0
	defaultOutputRate = 10000.0
	defaultFilterBW   = 8000.0
	defaultTW         = 800.0
	defaultRipple     = 0.01
	defaultFFTSize    = 4096

	responsePoints = 2048
	tapsToShow     = 5
)

// summary describes a designed filter's frequency response.
type summary struct {
	DCGain        float64
	PassbandMinDB float64 // Lowest gain below the passband edge
	PassbandMaxDB float64
	StopbandDB    float64 // Highest gain beyond the stopband edge
	PassbandEdge  float64 // Hz
	StopbandEdge  float64 // Hz
}

func main() {
	inputRate := flag.Float64("rate", defaultInputRate, "Input sample rate in Hz")
	outputRate := flag.Float64("out", defaultOutputRate, "Output rate in Hz")
	bw := flag.Float64("bw", defaultFilterBW, "Filter bandwidth in Hz")
	tw := flag.Float64("tw", defaultTW, "Transition width in Hz")
	ripple := flag.Float64("ripple", defaultRipple, "Linear ripple, 0 to 1")
	fftSize := flag.Int("fft", defaultFFTSize, "FFT size hint")
	flag.Parse()

	d, err := filter.NewDesign(filter.Params{
		FilterBW:        *bw,
		TransitionWidth: *tw,
		Ripple:          *ripple,
		InputRate:       *inputRate,
		OutputRate:      *outputRate,
		FFTSize:         *fftSize,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== Channel Filter ===")
	fmt.Printf("  SIMD: %s\n", engine.SIMDInfo())
	fmt.Printf("  Taps: %d\n", d.NumTaps())
	fmt.Printf("  FFT size: %d (frame %d)\n", d.FFTSize, d.FrameSize())
	fmt.Printf("  Attenuation: %.2f dB, beta %.4f\n", d.Attenuation, d.Beta)
	fmt.Printf("  Cutoff: %.6f cycles/sample (%.1f Hz)\n", d.Cutoff, d.Cutoff*(*inputRate))
	if d.TransitionClamped {
		fmt.Printf("  Transition width: %.1f Hz (reduced from %.1f Hz to prevent aliasing)\n",
			d.TransitionWidth, *tw)
	} else {
		fmt.Printf("  Transition width: %.1f Hz\n", d.TransitionWidth)
	}

	center := d.NumTaps() / 2
	lo, hi := max(0, center-tapsToShow/2), min(d.NumTaps(), center+tapsToShow/2+1)
	fmt.Println("\nCenter taps:")
	for i := lo; i < hi; i++ {
		fmt.Printf("  h[%d] = %+.10f\n", i, d.Taps[i])
	}

	s := summarize(d, *inputRate, *bw)
	fmt.Println("\n=== Response ===")
	fmt.Printf("  DC gain: %.10f\n", s.DCGain)
	fmt.Printf("  Passband (0 to %.1f Hz): %.3f to %.3f dB\n", s.PassbandEdge, s.PassbandMinDB, s.PassbandMaxDB)
	fmt.Printf("  Stopband (from %.1f Hz): %.2f dB\n", s.StopbandEdge, s.StopbandDB)
}

// summarize evaluates the response of d and reduces it to passband and
// stopband extremes.
func summarize(d *filter.Design, inputRate, bw float64) summary {
	s := summary{
		DCGain:       floats.Sum(d.Taps),
		PassbandEdge: bw/2 - d.TransitionWidth/2,
		StopbandEdge: bw/2 + d.TransitionWidth/2,
	}

	resp := filter.ComputeFrequencyResponse(d.Taps, responsePoints)

	var pass, stop []float64
	for k, f := range resp.Frequencies {
		hz := f * inputRate
		db := filter.MagnitudeDB(resp.Magnitude[k])
		switch {
		case hz <= s.PassbandEdge:
			pass = append(pass, db)
		case hz >= s.StopbandEdge:
			stop = append(stop, db)
		}
	}

	s.PassbandMinDB, s.PassbandMaxDB = math.NaN(), math.NaN()
	if len(pass) > 0 {
		s.PassbandMinDB, s.PassbandMaxDB = floats.Min(pass), floats.Max(pass)
	}
	s.StopbandDB = math.Inf(-1)
	if len(stop) > 0 {
		s.StopbandDB = floats.Max(stop)
	}

	return s
}
