package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f64"

	tfd "github.com/tphakala/go-tune-filter-decimate"
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file         *os.File
	decoder      *wav.Decoder
	rate         int
	channels     int
	bitDepth     int
	totalSamples int64
	format       *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	channels := format.NumChannels
	if channels != realChannels && channels != iqChannels {
		_ = inputFile.Close()
		return nil, fmt.Errorf("unsupported channel count %d: need 1 (real) or 2 (I/Q)", channels)
	}

	bitDepth := int(decoder.BitDepth)
	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", format.SampleRate, channels, bitDepth)
	}

	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	return &wavInputInfo{
		file:         inputFile,
		decoder:      decoder,
		rate:         format.SampleRate,
		channels:     channels,
		bitDepth:     bitDepth,
		totalSamples: int64(duration.Seconds() * float64(format.SampleRate)),
		format:       format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// iqWriter writes complex samples as a 2-channel PCM WAV file. The file is
// created on the first write, once the output rate is known.
type iqWriter struct {
	path     string
	bitDepth int
	maxVal   float64

	file    *os.File
	encoder *wav.Encoder
	rate    int

	re, im, inter []float64
	buf           *audio.IntBuffer
}

func newIQWriter(path string, bitDepth int) *iqWriter {
	return &iqWriter{
		path:     path,
		bitDepth: bitDepth,
		maxVal:   getMaxValue(bitDepth),
	}
}

func (w *iqWriter) open(rate int) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w.file = f
	w.rate = rate
	w.encoder = wav.NewEncoder(f, rate, w.bitDepth, iqChannels, 1)
	w.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: iqChannels, SampleRate: rate},
		SourceBitDepth: w.bitDepth,
	}

	// Writing an empty buffer emits the header, so even a stream without
	// data leaves a valid file
	if err := w.encoder.Write(w.buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	return nil
}

// Write encodes one block of samples at the given rate.
func (w *iqWriter) Write(data []complex128, rate int) error {
	if w.encoder == nil {
		if err := w.open(rate); err != nil {
			return err
		}
	}
	if len(data) == 0 {
		return nil
	}

	n := len(data)
	w.re = resize(w.re, n)
	w.im = resize(w.im, n)
	w.inter = resize(w.inter, iqChannels*n)
	for i, v := range data {
		w.re[i], w.im[i] = real(v), imag(v)
	}

	f64.Interleave2(w.inter, w.re, w.im)
	f64.Scale(w.inter, w.inter, w.maxVal)

	w.buf.Data = w.buf.Data[:0]
	for _, v := range w.inter {
		w.buf.Data = append(w.buf.Data, int(math.Max(-w.maxVal, math.Min(w.maxVal, v))))
	}

	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file. A writer that never
// received a block creates an empty file at rate.
func (w *iqWriter) Close(rate int) error {
	if w.encoder == nil {
		if err := w.open(rate); err != nil {
			return err
		}
	}
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return w.file.Close()
}

func resize(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}

// getMaxValue returns the maximum sample value for the given bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalSamples int64
	lastProgress int
	verbose      bool
}

func newProgressTracker(totalSamples int64, verbose bool) *progressTracker {
	return &progressTracker{
		totalSamples: totalSamples,
		verbose:      verbose,
	}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(currentSamples int64) {
	if !p.verbose || p.totalSamples == 0 {
		return
	}

	progress := int(float64(currentSamples) / float64(p.totalSamples) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}

// processFile runs a WAV file through the engine. Input is pushed from the
// calling goroutine while a second goroutine drains the output.
func processFile(ctx context.Context, opts options) (stats *processStats, err error) {
	input, err := openWAVInput(opts.inputPath, opts.verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	eng, err := tfd.New(opts.file.engineConfig(opts.verbose))
	if err != nil {
		return nil, err
	}
	defer func() { _ = eng.Close() }()

	ctrl := eng.Controller()
	if len(opts.file.Properties) > 0 {
		if err := ctrl.Configure(opts.file.Properties); err != nil {
			return nil, fmt.Errorf("invalid properties: %w", err)
		}
	}

	stats = &processStats{
		inputRate: input.rate,
		channels:  input.channels,
		bitDepth:  input.bitDepth,
	}

	inRate := float64(input.rate)
	decimation := math.Max(1, math.Floor(inRate/ctrl.Settings().DesiredOutputRate))

	out := newIQWriter(opts.outputPath, input.bitDepth)
	written := make(chan error, 1)
	go func() {
		written <- drainOutput(ctx, eng, out, stats, inRate/decimation)
	}()

	pushErr := pushInput(eng, input, opts, stats)
	if pushErr != nil {
		_ = eng.Close()
	}

	if err := <-written; err != nil && pushErr == nil {
		pushErr = err
	}
	if pushErr != nil {
		return nil, pushErr
	}

	stats.status = ctrl.Status()
	return stats, nil
}

// pushInput reads the input file and pushes it to the engine, ending with EOS.
func pushInput(eng *tfd.Engine, input *wavInputInfo, opts options, stats *processStats) error {
	buf := &audio.IntBuffer{
		Data:   make([]int, bufferSize*input.channels),
		Format: input.format,
	}
	invMax := 1 / getMaxValue(input.bitDepth)
	keywords := opts.file.keywords()
	progress := newProgressTracker(input.totalSamples, opts.verbose)

	for {
		n, err := input.decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}

		// PCMBuffer counts values, not sample frames
		data := make([]float64, n)
		for i, v := range buf.Data[:n] {
			data[i] = float64(v) * invMax
		}

		if err := eng.Push(tfd.Packet{
			StreamID:   streamID,
			Data:       data,
			Complex:    input.channels == iqChannels,
			SampleRate: float64(input.rate),
			Keywords:   keywords,
		}); err != nil {
			return err
		}

		stats.inputSamples += int64(n / input.channels)
		progress.reportIfNeeded(stats.inputSamples)
	}

	return eng.Push(tfd.Packet{StreamID: streamID, EOS: true})
}

// drainOutput reads blocks until end of stream and writes them out.
// fallbackRate names the file rate when the stream produced no data.
func drainOutput(ctx context.Context, eng *tfd.Engine, out *iqWriter, stats *processStats, fallbackRate float64) error {
	rate := int(math.Round(fallbackRate))

	for {
		b, err := eng.Read(ctx, streamID)
		if err != nil {
			_ = out.Close(rate)
			return err
		}

		if sr := b.SRI.SampleRate(); sr > 0 {
			rate = int(math.Round(sr))
			if b.SRIChanged && float64(rate) != sr {
				log.Printf("Output rate %.3f Hz rounded to %d Hz in the WAV header", sr, rate)
			}
		}

		if b.EOS {
			stats.outputRate = rate
			return out.Close(rate)
		}

		if err := out.Write(b.Data, rate); err != nil {
			return err
		}
		stats.outputSamples += int64(len(b.Data))
	}
}
