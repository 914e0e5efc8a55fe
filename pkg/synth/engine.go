// Package synth implements a polyphonic subtractive synthesizer: voices
// built from band-limited oscillators, a resonant ladder filter and ADSR
// envelopes, a voice manager with note stealing, and a block renderer that
// applies note events at their exact sample.
package synth

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/framework/param"
	"github.com/justyntemme/synja/pkg/midi"
)

var (
	// ErrInvalidSampleRate is returned for non-positive or non-finite rates
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrInvalidBlockSize is returned for a non-positive maximum block size
	ErrInvalidBlockSize = errors.New("invalid block size")
	// ErrInvalidPolyphony is returned when the voice count is out of range
	ErrInvalidPolyphony = errors.New("invalid polyphony")
)

// Config holds engine settings fixed at construction.
type Config struct {
	SampleRate   float64
	MaxBlockSize int
	Polyphony    int
	// Seed for the unison start phases
	Seed uint64
	// Capacity of the live event queue
	QueueSize int
}

// DefaultConfig returns a 16 voice engine at 44.1 kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		MaxBlockSize: 512,
		Polyphony:    16,
		Seed:         1,
		QueueSize:    256,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.SampleRate <= 0 || math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.MaxBlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, c.MaxBlockSize)
	}
	if c.Polyphony < 1 || c.Polyphony > param.MaxMaskBits {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidPolyphony, c.Polyphony, param.MaxMaskBits)
	}
	return nil
}

// Engine renders stereo audio from note events. Process must be called
// from a single goroutine; parameters, tempo and the live queue are safe
// to use from any goroutine.
type Engine struct {
	config  Config
	params  *Parameters
	manager *Manager
	queue   *midi.EventQueue

	live  []midi.Event
	clock uint64
	tempo atomic.Uint64
}

// NewEngine creates an engine. A nil params uses a fresh default set.
func NewEngine(cfg Config, params *Parameters) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if params == nil {
		params = NewParameters()
	}

	e := &Engine{
		config:  cfg,
		params:  params,
		manager: NewManager(params, cfg.SampleRate, cfg.Polyphony, cfg.MaxBlockSize, cfg.Seed),
		queue:   midi.NewEventQueue(cfg.QueueSize),
		live:    make([]midi.Event, 0, cfg.QueueSize),
	}

	debug.Info("engine: %.0f Hz, %d voices, block %d", cfg.SampleRate, cfg.Polyphony, cfg.MaxBlockSize)
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Params returns the engine's parameter set.
func (e *Engine) Params() *Parameters {
	return e.params
}

// Manager returns the voice manager.
func (e *Engine) Manager() *Manager {
	return e.manager
}

// Queue returns the queue for live events. Queued events are applied at
// the start of the next Process call.
func (e *Engine) Queue() *midi.EventQueue {
	return e.queue
}

// Clock returns the number of samples rendered so far.
func (e *Engine) Clock() uint64 {
	return e.clock
}

// SetTempo sets the host tempo in beats per minute for LFO sync.
func (e *Engine) SetTempo(bpm float64) {
	e.tempo.Store(math.Float64bits(bpm))
}

// Tempo returns the host tempo.
func (e *Engine) Tempo() float64 {
	return math.Float64frombits(e.tempo.Load())
}

// Process adds len(left) samples of output to left and right. events must
// be sorted by sample offset; each is applied before the sample at its
// offset, and offsets past the block apply at its last sample. The block
// is split at every event and at the maximum block size.
func (e *Engine) Process(events []midi.Event, left, right []float32) {
	n := min(len(left), len(right))
	e.manager.SetTempo(e.Tempo())

	e.live = e.queue.Drain(e.live[:0])
	for _, ev := range e.live {
		e.handle(ev, e.clock)
	}

	pos, next := 0, 0
	for pos < n {
		for next < len(events) && eventOffset(events[next], n) <= pos {
			e.handle(events[next], e.clock+uint64(pos))
			next++
		}

		end := min(n, pos+e.config.MaxBlockSize)
		if next < len(events) {
			end = min(end, eventOffset(events[next], n))
		}

		e.manager.Render(left[pos:end], right[pos:end])
		pos = end
	}
	for ; next < len(events); next++ {
		e.handle(events[next], e.clock+uint64(n))
	}

	e.clock += uint64(n)
}

func eventOffset(ev midi.Event, n int) int {
	off := int(ev.SampleOffset())
	return max(0, min(off, n-1))
}

func (e *Engine) handle(ev midi.Event, timestamp uint64) {
	switch ev := ev.(type) {
	case midi.NoteOnEvent:
		if ev.Velocity == 0 {
			e.manager.NoteOff(ev.NoteNumber)
			return
		}
		e.manager.NoteOn(ev.NoteNumber, ev.Velocity, timestamp)
	case midi.NoteOffEvent:
		e.manager.NoteOff(ev.NoteNumber)
	case midi.PitchBendEvent:
		e.manager.PitchBend(ev.Value)
	case midi.ControlChangeEvent:
		switch ev.Controller {
		case midi.CCSustain:
			e.manager.SetSustain(ev.Value >= 64)
		case midi.CCAllNotesOff:
			e.manager.AllNotesOff()
		case midi.CCAllSoundOff:
			e.manager.Reset()
		case midi.CCResetAll:
			e.manager.SetSustain(false)
			e.manager.PitchBend(0)
		case midi.CCMonoModeOn:
			e.params.Set(PolyMode, ModeMono)
		case midi.CCPolyModeOn:
			e.params.Set(PolyMode, ModePoly)
		}
	}
}
