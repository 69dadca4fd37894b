// Command tfd tunes, filters and decimates I/Q recordings stored as WAV files.
//
// A 2-channel input file is read as interleaved I/Q, a 1-channel file as
// real samples. The output is always a 2-channel I/Q file at the decimated
// rate.
//
// Usage:
//
//	tfd -mode IF -if 12500 -bw 8000 -rate 10000 input.wav output.wav
//	tfd -mode RF -colrf 100e6 -rf 100012500 input.wav output.wav
//	tfd -config channel.yaml input.wav output.wav
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	tfd "github.com/tphakala/go-tune-filter-decimate"
	"github.com/tphakala/go-tune-filter-decimate/internal/engine"
)

const (
	// Number of sample frames read from the input per packet
	bufferSize = 65536

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0

	// Channel layouts
	realChannels = 1
	iqChannels   = 2

	progressInterval = 10 // Print progress every N%
	percentScale     = 100
	minRequiredArgs  = 2

	streamID           = "wav"
	defaultReadTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	mode := flag.String("mode", "IF", "Tune mode: RF, IF or NORM")
	tuningIF := flag.Float64("if", 0, "IF tuning offset in Hz")
	tuningNorm := flag.Float64("norm", 0, "Normalized tuning frequency, -0.5 to 0.5")
	tuningRF := flag.Uint64("rf", 0, "RF tuning frequency in Hz (RF mode)")
	bw := flag.Float64("bw", 0, "Filter bandwidth in Hz (default 8000)")
	rate := flag.Float64("rate", 0, "Desired output rate in Hz (default 10000)")
	fftSize := flag.Int("fft", 0, "FFT size hint, a power of two (default 4096)")
	tw := flag.Float64("tw", 0, "Filter transition width in Hz (default 800)")
	ripple := flag.Float64("ripple", 0, "Filter ripple, 0 to 1 (default 0.01)")
	colRF := flag.Float64("colrf", 0, "RF of the recording's center frequency in Hz")
	configPath := flag.String("config", "", "YAML file with engine properties")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -if 12500 in.wav out.wav                     # Shift 12.5 kHz to baseband\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode NORM -norm 0.1 -rate 25000 in.wav out.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config channel.yaml in.wav out.wav\n", os.Args[0])
		return errors.New("insufficient arguments")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	fc := fileConfig{ReadTimeout: defaultReadTimeout}
	if *configPath != "" {
		loaded, err := loadFileConfig(*configPath)
		if err != nil {
			return err
		}
		fc = *loaded
	}

	// Flags given on the command line override the file
	flagValues := map[string]any{
		"mode":   *mode,
		"if":     *tuningIF,
		"norm":   *tuningNorm,
		"rf":     *tuningRF,
		"bw":     *bw,
		"rate":   *rate,
		"fft":    *fftSize,
		"tw":     *tw,
		"ripple": *ripple,
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *configPath == "" {
		set["mode"] = true
	}
	fc.merge(flagProperties(flagValues, set))
	if set["colrf"] {
		fc.ColRF = *colRF
	}

	opts := options{
		inputPath:  args[0],
		outputPath: args[1],
		file:       fc,
		verbose:    *verbose,
	}

	if opts.verbose {
		log.Printf("Input: %s", opts.inputPath)
		log.Printf("Output: %s", opts.outputPath)
		log.Printf("SIMD: %s", engine.SIMDInfo())
	}

	start := time.Now()
	stats, err := processFile(context.Background(), opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Processed %s -> %s\n", filepath.Base(opts.inputPath), filepath.Base(opts.outputPath))
	fmt.Printf("  %d Hz %s -> %d Hz I/Q (%d-bit)\n",
		stats.inputRate, stats.inputKind(), stats.outputRate, stats.bitDepth)
	fmt.Printf("  Tuned to IF %.1f Hz (norm %.6f), %d taps, FFT %d, decimation %d\n",
		stats.status.TuningIF, stats.status.TuningNorm,
		stats.status.Taps, stats.status.FFTSize, stats.status.DecimationFactor)
	fmt.Printf("  %d samples -> %d samples\n", stats.inputSamples, stats.outputSamples)
	if elapsed > 0 && stats.inputRate > 0 {
		fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
			elapsed.Seconds(),
			float64(stats.inputSamples)/float64(stats.inputRate)/elapsed.Seconds())
	}

	return nil
}

// options holds everything processFile needs.
type options struct {
	inputPath  string
	outputPath string
	file       fileConfig
	verbose    bool
}

type processStats struct {
	inputRate     int
	outputRate    int
	channels      int
	bitDepth      int
	inputSamples  int64
	outputSamples int64
	status        tfd.Status
}

func (s *processStats) inputKind() string {
	if s.channels == iqChannels {
		return "I/Q"
	}
	return "real"
}

// newLogger returns the engine logger: warnings only, or everything when verbose.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
