package tfd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"
)

// Engine runs any number of independent streams through the
// tune-filter-decimate chain under one shared configuration.
//
// Each stream should have a single producer calling Push and a single
// consumer calling Read. The controller may be used from any goroutine.
type Engine struct {
	cfg    Config
	ctrl   *Controller
	logger *slog.Logger

	mu sync.Mutex

	// Session generations per stream ID, oldest first
	streams map[string][]*session
	gens    uint64

	// Closed and replaced whenever streams change
	changed chan struct{}

	done   chan struct{}
	closed bool
}

// New creates an engine with the given configuration.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger()

	ctrl, err := NewController(cfg.Settings, logger)
	if err != nil {
		return nil, err
	}
	ctrl.minTaps = cfg.MinTaps
	ctrl.maxFFTSize = cfg.MaxFFTSize

	return &Engine{
		cfg:     cfg,
		ctrl:    ctrl,
		logger:  logger,
		streams: make(map[string][]*session),
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Controller returns the engine's configuration controller.
func (e *Engine) Controller() *Controller {
	return e.ctrl
}

// Push processes one packet of input. Output becomes available through Read.
//
// The first packet for a stream ID starts a new session. After an EOS packet
// the next packet with the same ID starts a fresh session.
func (e *Engine) Push(p Packet) error {
	s, err := e.sessionFor(p.StreamID)
	if err != nil {
		return err
	}
	return s.push(p)
}

func (e *Engine) sessionFor(id string) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	gens := e.streams[id]
	if n := len(gens); n > 0 && !gens[n-1].ended() {
		return gens[n-1], nil
	}

	e.gens++
	s := newSession(id, e.gens, e.ctrl, e.logger)
	e.streams[id] = append(gens, s)
	e.logger.Debug("stream created", "stream", id, "generation", e.gens)
	e.notifyLocked()

	return s, nil
}

// notifyLocked wakes readers waiting for a stream to appear.
func (e *Engine) notifyLocked() {
	close(e.changed)
	e.changed = make(chan struct{})
}

// Read returns the next output block of a stream, waiting up to the
// configured read timeout. The block with EOS set is the last one of a
// session; the next Read returns output of the next session with the same
// ID, if any.
func (e *Engine) Read(ctx context.Context, streamID string) (Block, error) {
	timer := time.NewTimer(e.cfg.ReadTimeout)
	defer timer.Stop()

	for {
		e.mu.Lock()
		var head *session
		if gens := e.streams[streamID]; len(gens) > 0 {
			head = gens[0]
		}
		changed, closed := e.changed, e.closed
		e.mu.Unlock()

		if head == nil {
			if closed {
				return Block{}, ErrEngineClosed
			}

			select {
			case <-changed:
				continue
			case <-ctx.Done():
				return Block{}, ctx.Err()
			case <-timer.C:
				return Block{}, fmt.Errorf("%w: stream %q", ErrTimeout, streamID)
			}
		}

		b, err := head.out.pop(ctx, timer.C, e.done)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				err = fmt.Errorf("%w: stream %q", ErrTimeout, streamID)
			}
			return Block{}, err
		}

		if b.EOS {
			e.retire(head)
		}

		return b, nil
	}
}

// retire removes a fully read session from its stream.
func (e *Engine) retire(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	gens := e.streams[s.id]
	gens = slices.DeleteFunc(gens, func(g *session) bool { return g == s })
	if len(gens) == 0 {
		delete(e.streams, s.id)
	} else {
		e.streams[s.id] = gens
	}
	e.notifyLocked()
}

// SRI returns the current output SRI of the newest session of a stream.
func (e *Engine) SRI(streamID string) (StreamSRI, bool) {
	s := e.latest(streamID)
	if s == nil {
		return StreamSRI{}, false
	}

	sri := s.currentSRI()
	return sri, sri.StreamID != ""
}

// SessionStats returns the counters of the newest session of a stream.
func (e *Engine) SessionStats(streamID string) (SessionStats, error) {
	s := e.latest(streamID)
	if s == nil {
		return SessionStats{}, fmt.Errorf("%w: %q", ErrUnknownStream, streamID)
	}
	return s.snapshotStats(), nil
}

// Streams returns the IDs of all streams with unread or live sessions, sorted.
func (e *Engine) Streams() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.streams))
}

func (e *Engine) latest(streamID string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()

	gens := e.streams[streamID]
	if len(gens) == 0 {
		return nil
	}
	return gens[len(gens)-1]
}

// Close stops the engine. Further pushes fail with ErrEngineClosed; reads
// return blocks already queued, then ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)
	e.notifyLocked()

	return nil
}
