// Package tfd provides a streaming tune-filter-decimate engine in pure Go.
//
// A sample stream at a known input rate is shifted so a chosen band sits at
// baseband, low-pass filtered with a Kaiser-windowed FIR applied by
// overlap-save FFT convolution, and decimated by an integer factor. Tuning
// and filter settings may change while streams are running; every stream
// picks up a change at its next packet, between frames.
//
// # Quick Start
//
//	e, err := tfd.New(tfd.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	ctrl := e.Controller()
//	_ = ctrl.SetTuneMode(tfd.TuneIF)
//	_ = ctrl.SetTuningIF(12500)
//
//	err = e.Push(tfd.Packet{
//	    StreamID:   "ch0",
//	    Data:       iq, // interleaved I/Q
//	    Complex:    true,
//	    SampleRate: 100000,
//	    Keywords:   []tfd.Keyword{{ID: tfd.KeywordColRF, Value: 100e6}},
//	})
//
//	block, err := e.Read(ctx, "ch0")
//
// # Tuning
//
// The tuning frequency can be given in one of three coordinates, selected by
// [TuneMode]:
//
//   - [TuneRF]: absolute RF in Hz, relative to the stream's COL_RF or CHAN_RF
//   - [TuneIF]: offset in Hz from the reference IF
//   - [TuneNorm]: normalized frequency in cycles/sample
//
// The reference IF is 0 for complex input and a quarter of the sample rate
// for real input. [Controller.Status] reports all three coordinates.
//
// # Filter Design
//
// The filter length follows the Kaiser order estimate for the requested
// ripple and transition width, with a minimum of 25 taps. The FFT size grows
// as needed so the filter fits in half a block. When the transition band
// would extend past the output Nyquist frequency it is narrowed to prevent
// aliasing.
//
// # Streams
//
// Every stream ID gets its own session with its own oscillator phase, filter
// history and decimation phase. Output is always complex. The output SRI
// carries the input keywords and adds CHAN_RF when the tuned frequency
// differs from COL_RF. An EOS packet flushes the final partial frame and ends
// the session with a block that has EOS set.
//
// # Thread Safety
//
// [Engine.Push] and [Engine.Read] may run concurrently. Each stream expects a
// single producer and a single consumer. [Controller] methods are safe for
// concurrent use; published settings are immutable, so a packet is always
// processed with one consistent configuration.
package tfd
