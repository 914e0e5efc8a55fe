// Package keyboard turns a computer keyboard into a note source. Terminals
// report key presses but not releases, so each note is held for a fixed
// time that key auto-repeat keeps extending.
package keyboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/justyntemme/synja/pkg/dsp/pitch"
	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/midi"
)

// Layout maps keys to semitones above the current octave's C, with the
// black keys on the row above like a piano.
const Layout = "awsedftgyhujkolp;'"

// DefaultHold keeps a note sounding across the gap before auto-repeat
const DefaultHold = 600 * time.Millisecond

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b

	minOctave = -1
	maxOctave = 8
)

// ErrNotTerminal is returned by MakeRaw when the file is not a terminal
var ErrNotTerminal = errors.New("not a terminal")

// Sink receives the generated events; midi.EventQueue implements it.
type Sink interface {
	Add(event midi.Event) bool
}

// Keyboard tracks octave, velocity and held notes.
type Keyboard struct {
	sink Sink
	hold time.Duration

	mu       sync.Mutex
	octave   int
	velocity uint8
	held     map[uint8]*time.Timer
	notify   func(string)
}

// New creates a keyboard playing into sink, starting at octave 4.
func New(sink Sink, hold time.Duration) *Keyboard {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Keyboard{
		sink:     sink,
		hold:     hold,
		octave:   4,
		velocity: 100,
		held:     make(map[uint8]*time.Timer),
	}
}

// OnStatus sets a callback for octave and velocity changes.
func (k *Keyboard) OnStatus(fn func(string)) {
	k.mu.Lock()
	k.notify = fn
	k.mu.Unlock()
}

// Octave returns the current octave.
func (k *Keyboard) Octave() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.octave
}

// Velocity returns the current note velocity.
func (k *Keyboard) Velocity() uint8 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.velocity
}

// Press handles one key and reports whether it asks to quit.
//
//	z / x   octave down / up
//	c / v   velocity down / up
//	space   all notes off
//	Esc, ^C quit
func (k *Keyboard) Press(key byte) (quit bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch key {
	case keyCtrlC, keyEscape:
		return true
	case 'z':
		k.octave = max(minOctave, k.octave-1)
		k.status("octave %d", k.octave)
	case 'x':
		k.octave = min(maxOctave, k.octave+1)
		k.status("octave %d", k.octave)
	case 'c':
		k.velocity = uint8(max(1, int(k.velocity)-16))
		k.status("velocity %d", k.velocity)
	case 'v':
		k.velocity = uint8(min(127, int(k.velocity)+16))
		k.status("velocity %d", k.velocity)
	case ' ':
		k.releaseAll()
		k.sink.Add(midi.ControlChangeEvent{Controller: midi.CCAllNotesOff})
	default:
		for i := range len(Layout) {
			if Layout[i] == key {
				k.play(i)
				break
			}
		}
	}
	return false
}

func (k *Keyboard) status(format string, args ...any) {
	debug.Debug("keyboard: "+format, args...)
	if k.notify != nil {
		k.notify(fmt.Sprintf(format, args...))
	}
}

func (k *Keyboard) play(semitone int) {
	n := (k.octave+1)*12 + semitone
	if n < 0 || n > 127 {
		return
	}
	note := uint8(n)

	// Auto-repeat of a held key only extends the note
	if t, ok := k.held[note]; ok && t.Stop() {
		t.Reset(k.hold)
		return
	}

	if !k.sink.Add(midi.NoteOnEvent{NoteNumber: note, Velocity: k.velocity}) {
		debug.Warn("keyboard: event queue full, dropped %s", pitch.NoteName(note))
		return
	}
	var t *time.Timer
	t = time.AfterFunc(k.hold, func() { k.release(note, t) })
	k.held[note] = t
}

// release ends a note unless it was retriggered after t fired
func (k *Keyboard) release(note uint8, t *time.Timer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.held[note] != t {
		return
	}
	delete(k.held, note)
	k.sink.Add(midi.NoteOffEvent{NoteNumber: note})
}

func (k *Keyboard) releaseAll() {
	for note, t := range k.held {
		t.Stop()
		delete(k.held, note)
	}
}

// Close cancels pending note offs and releases every held note.
func (k *Keyboard) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for note, t := range k.held {
		if t.Stop() {
			k.sink.Add(midi.NoteOffEvent{NoteNumber: note})
		}
		delete(k.held, note)
	}
}

// Run reads keys from r until a quit key, end of input or ctx is done.
// A quit key or end of input returns nil.
func (k *Keyboard) Run(ctx context.Context, r io.Reader) error {
	keys := make(chan byte)
	errc := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				select {
				case keys <- b:
				case <-done:
					return
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	defer k.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-keys:
			if k.Press(b) {
				return nil
			}
		case err := <-errc:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// MakeRaw puts the terminal on f into raw mode and returns a function
// restoring it.
func MakeRaw(f *os.File) (restore func(), err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, old) }, nil
}
