package tfd

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/tphakala/go-tune-filter-decimate/internal/engine"
	"github.com/tphakala/go-tune-filter-decimate/internal/pipeline"
)

// SessionState is the lifecycle state of one stream.
type SessionState int

const (
	// StateCreated is a session that has not processed data yet.
	StateCreated SessionState = iota

	// StateActive is a session processing data.
	StateActive

	// StateDraining is a session that received end-of-stream and is flushing.
	StateDraining

	// StateClosed is a finished session.
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateActive:
		return "ACTIVE"
	case StateDraining:
		return "DRAINING"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// SessionStats holds per-session counters.
type SessionStats struct {
	State            SessionState
	Generation       uint64
	SamplesIn        uint64
	SamplesOut       uint64
	Blocks           uint64
	Reconfigurations uint64
	Dropped          uint64 // packets dropped for lack of a sample rate
}

// Packet is one block of input for a stream.
type Packet struct {
	StreamID string

	// Data holds real samples, or interleaved I/Q pairs when Complex is set.
	Data    []float64
	Complex bool

	// SampleRate in Hz. Zero or negative keeps the last known rate.
	SampleRate float64

	// Keywords carry COL_RF/CHAN_RF and any other metadata. An absent RF
	// keyword keeps the last known RF.
	Keywords []Keyword

	// EOS marks the last packet of the stream.
	EOS bool

	Timestamp time.Time
}

// Block is one block of output for a stream. Output is always complex.
type Block struct {
	StreamID string
	Data     []complex128
	SRI      StreamSRI

	// SRIChanged is set on the first block after the SRI changed.
	SRIChanged bool

	// Flushed marks the block produced from the final partial frame.
	Flushed bool

	// EOS marks the end-of-stream block. It carries no data.
	EOS bool

	Timestamp time.Time
}

// session is the state of one generation of a stream.
type session struct {
	id     string
	gen    uint64
	ctrl   *Controller
	logger *slog.Logger
	out    *outputQueue

	mu       sync.Mutex
	state    SessionState
	chain    *engine.Chain
	plan     *pipeline.Plan
	version  uint64
	input    pipeline.Input
	keywords []Keyword
	sri      StreamSRI
	sriDirty bool
	stats    SessionStats
	samples  []complex128
}

func newSession(id string, gen uint64, ctrl *Controller, logger *slog.Logger) *session {
	return &session{
		id:     id,
		gen:    gen,
		ctrl:   ctrl,
		logger: logger.With("stream", id, "generation", gen),
		out:    newOutputQueue(),
	}
}

// push processes one packet. The settings snapshot is read once, so the
// whole packet is processed with one consistent configuration.
func (s *session) push(p Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state >= StateDraining {
		return fmt.Errorf("%w: %q", ErrStreamClosed, s.id)
	}

	if err := s.process(p); err != nil {
		return err
	}

	if p.EOS {
		s.drain(p.Timestamp)
	}

	return nil
}

func (s *session) process(p Packet) error {
	in, ok := s.resolveInput(p)
	if !ok {
		if len(p.Data) > 0 {
			s.stats.Dropped++
			s.logger.Warn("dropping packet without sample rate", "values", len(p.Data))
		}
		return nil
	}

	if p.Keywords != nil && !reflect.DeepEqual(p.Keywords, s.keywords) {
		s.keywords = slices.Clone(p.Keywords)
		s.refreshSRI()
	}

	snap := s.ctrl.snapshot()
	if s.chain == nil || snap.version != s.version || in != s.input {
		if err := s.reconfigure(snap, in); err != nil {
			return err
		}
	}

	var truncated bool
	s.samples, truncated = engine.ToComplex(s.samples[:0], p.Data, p.Complex)
	if truncated {
		s.logger.Warn("odd number of values in complex packet, dropping the last one")
	}
	s.stats.SamplesIn += uint64(len(s.samples))

	out := s.chain.Process(nil, s.samples)
	s.emit(out, p.Timestamp, false)

	return nil
}

// resolveInput merges the packet's metadata with what is already known.
func (s *session) resolveInput(p Packet) (pipeline.Input, bool) {
	in := s.input
	in.Complex = p.Complex

	if p.SampleRate > 0 {
		in.Rate = p.SampleRate
	}

	rf, found, both := inputRF(p.Keywords)
	if both {
		s.logger.Warn("both CHAN_RF and COL_RF present, using CHAN_RF", "chan_rf", rf)
	}
	if found {
		in.RF = rf
	}

	return in, in.Rate > 0
}

// reconfigure derives a new plan and moves the chain onto it between frames.
func (s *session) reconfigure(snap *snapshot, in pipeline.Input) error {
	req := s.ctrl.request(&snap.settings, in)

	plan, err := pipeline.BuildPlan(req, s.plan)
	if err != nil {
		return fmt.Errorf("stream %q: %w", s.id, err)
	}

	s.logPlan(plan, in)

	switch {
	case s.chain == nil:
		s.chain = engine.NewChain(plan.TuningNorm, plan.Design, plan.Decimation)
		s.state = StateActive
	default:
		if s.plan.TuningChanged(plan) {
			s.logger.Debug("retune", "norm", plan.TuningNorm, "if", plan.TuningIF)
			s.chain.Retune(plan.TuningNorm)
		}
		if s.plan.FilterChanged(plan) {
			s.logger.Debug("remake filter",
				"taps", plan.Design.NumTaps(),
				"fft_size", plan.Design.FFTSize,
				"decimation", plan.Decimation)
			s.chain.Refilter(plan.Design, plan.Decimation)
		}
		s.stats.Reconfigurations++
	}

	s.plan = plan
	s.version = snap.version
	s.input = in
	s.refreshSRI()
	s.ctrl.observe(in, plan)

	return nil
}

func (s *session) logPlan(plan *pipeline.Plan, in pipeline.Input) {
	if plan.NormClamped {
		s.logger.Warn("tuning norm clamped to ±0.5", "norm", plan.TuningNorm)
	}
	if plan.RFUnknown {
		s.logger.Warn("RF tuning requested but input RF is unknown, tuning to IF 0")
	}
	if plan.DecimationClamped {
		s.logger.Warn("desired output rate above input rate, decimation set to 1",
			"input_rate", in.Rate)
	}
	if plan.OutputBelowBW {
		s.logger.Warn("output rate below filter bandwidth", "output_rate", plan.OutputRate)
	}
	if plan.Design.TransitionClamped {
		s.logger.Warn("transition width reduced to prevent aliasing",
			"transition_width", plan.Design.TransitionWidth)
	}
}

// refreshSRI rebuilds the output SRI and marks it changed when it differs.
func (s *session) refreshSRI() {
	if s.plan == nil {
		return
	}

	kws := slices.Clone(s.keywords)
	col, hasCol := findKeyword(kws, KeywordColRF)
	colRF, _ := toFloat(col)

	tuned := float64(s.plan.TuningRF)
	if s.input.RF != 0 && (!hasCol || tuned != colRF) {
		kws = setKeyword(kws, KeywordChanRF, tuned)
	} else {
		kws = removeKeyword(kws, KeywordChanRF)
	}

	sri := StreamSRI{
		StreamID: s.id,
		XDelta:   1 / s.plan.OutputRate,
		Complex:  true,
		Keywords: kws,
	}

	if !sri.equal(s.sri) {
		s.sri = sri
		s.sriDirty = true
	}
}

func (s *session) emit(data []complex128, ts time.Time, flushed bool) {
	if len(data) == 0 {
		return
	}

	s.out.push(Block{
		StreamID:   s.id,
		Data:       data,
		SRI:        s.sri.Clone(),
		SRIChanged: s.sriDirty,
		Flushed:    flushed,
		Timestamp:  ts,
	})
	s.sriDirty = false

	s.stats.SamplesOut += uint64(len(data))
	s.stats.Blocks++
}

// drain flushes the partial frame, emits the end-of-stream block and
// releases the chain.
func (s *session) drain(ts time.Time) {
	s.state = StateDraining

	if s.chain != nil {
		s.emit(s.chain.Flush(nil), ts, true)
	}

	s.out.push(Block{
		StreamID:   s.id,
		SRI:        s.sri.Clone(),
		SRIChanged: s.sriDirty,
		EOS:        true,
		Timestamp:  ts,
	})
	s.sriDirty = false

	s.chain = nil
	s.samples = nil
	s.state = StateClosed
	s.logger.Debug("stream closed",
		"samples_in", s.stats.SamplesIn,
		"samples_out", s.stats.SamplesOut)
}

func (s *session) currentSRI() StreamSRI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sri.Clone()
}

func (s *session) snapshotStats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	st.State = s.state
	st.Generation = s.gen
	return st
}

func (s *session) ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state >= StateDraining
}

// outputQueue is an unbounded FIFO of output blocks with a wake-up signal
// for one reader.
type outputQueue struct {
	mu     sync.Mutex
	blocks []Block
	signal chan struct{}
}

func newOutputQueue() *outputQueue {
	return &outputQueue{signal: make(chan struct{}, 1)}
}

func (q *outputQueue) push(b Block) {
	q.mu.Lock()
	q.blocks = append(q.blocks, b)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *outputQueue) tryPop() (Block, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.blocks) == 0 {
		return Block{}, false
	}

	b := q.blocks[0]
	q.blocks[0] = Block{}
	q.blocks = q.blocks[1:]
	return b, true
}

// pop waits for a block until ctx ends, deadline fires or done is closed.
func (q *outputQueue) pop(ctx context.Context, deadline <-chan time.Time, done <-chan struct{}) (Block, error) {
	for {
		if b, ok := q.tryPop(); ok {
			return b, nil
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return Block{}, ctx.Err()
		case <-deadline:
			return Block{}, ErrTimeout
		case <-done:
			if b, ok := q.tryPop(); ok {
				return b, nil
			}
			return Block{}, ErrEngineClosed
		}
	}
}
