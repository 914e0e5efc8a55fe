// Package score loads note scores written as small Lua scripts and turns
// them into sample-timed event sequences for offline rendering.
//
// A score calls a handful of global functions:
//
//	tempo(120)                 -- beats per minute
//	set("FilterCutoff", "1 kHz") -- parameter by name, plain number or text
//	note(0, "C4", 1, 100)      -- beat, key (number or name), beats, velocity
//	bend(2, 0.5)               -- beat, amount in -1..1
//	cc(3, 64, 127)             -- beat, controller, value
//	tail(2)                    -- extra beats rendered after the last event
//
// Only the base, table, string and math libraries are available.
package score

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	lua "github.com/yuin/gopher-lua"

	"github.com/justyntemme/synja/pkg/dsp/pitch"
	"github.com/justyntemme/synja/pkg/framework/debug"
	"github.com/justyntemme/synja/pkg/midi"
)

// DefaultTempo is used until a score calls tempo()
const DefaultTempo = 120.0

var (
	// ErrScript wraps errors raised while running a score
	ErrScript = errors.New("score script failed")
	// ErrEmpty is returned for scores without notes
	ErrEmpty = errors.New("score has no notes")
)

//go:embed demo.lua
var demoSource string

// Note is a note held for Length beats.
type Note struct {
	Beat     float64
	Length   float64
	Key      uint8
	Velocity uint8
}

// Bend is a pitch wheel move, Value in -8192..8191.
type Bend struct {
	Beat  float64
	Value int16
}

// Control is a controller change.
type Control struct {
	Beat       float64
	Controller uint8
	Value      uint8
}

// Setting is a parameter assignment applied before rendering. Numbers are
// plain values in the parameter's units; Text is parsed by the parameter's
// own formatter when set.
type Setting struct {
	Name  string
	Value float64
	Text  string
}

// Score is the result of running a score script.
type Score struct {
	Name     string
	Tempo    float64
	Tail     float64
	Notes    []Note
	Bends    []Bend
	Controls []Control
	Settings []Setting
}

// Load runs the score script at path. A leading ~ is expanded to the home
// directory.
func Load(ctx context.Context, path string) (*Score, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(ctx, expanded, f)
}

// Demo returns the built-in demo score.
func Demo() *Score {
	s, err := Parse(context.Background(), "demo.lua", strings.NewReader(demoSource))
	if err != nil {
		// The demo is compiled in and covered by tests
		panic(err)
	}
	return s
}

// Parse runs a score script read from r. name is used in error messages.
func Parse(ctx context.Context, name string, r io.Reader) (*Score, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	L.SetContext(ctx)

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), Protect: true}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("open %q library: %w", lib.name, err)
		}
	}

	s := &Score{Name: name, Tempo: DefaultTempo}
	b := &builder{score: s}
	b.register(L)

	fn, err := L.Load(r, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScript, err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScript, err)
	}
	if len(s.Notes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, name)
	}

	debug.Debug("score %s: %d notes, %d bends, %d controls at %.1f bpm",
		name, len(s.Notes), len(s.Bends), len(s.Controls), s.Tempo)
	return s, nil
}

type builder struct {
	score *Score
}

func (b *builder) register(L *lua.LState) {
	for name, fn := range map[string]lua.LGFunction{
		"tempo": b.tempo,
		"note":  b.note,
		"bend":  b.bend,
		"cc":    b.cc,
		"set":   b.set,
		"tail":  b.tail,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

func checkBeat(L *lua.LState, n int) float64 {
	beat := float64(L.CheckNumber(n))
	if beat < 0 || math.IsNaN(beat) || math.IsInf(beat, 0) {
		L.ArgError(n, "beat must be a finite number >= 0")
	}
	return beat
}

func checkByte(L *lua.LState, n int, v int) uint8 {
	if v < 0 || v > 127 {
		L.ArgError(n, fmt.Sprintf("%d out of range 0..127", v))
	}
	return uint8(v)
}

func (b *builder) tempo(L *lua.LState) int {
	bpm := float64(L.CheckNumber(1))
	if bpm <= 0 || math.IsInf(bpm, 0) || math.IsNaN(bpm) {
		L.ArgError(1, "tempo must be positive")
	}
	b.score.Tempo = bpm
	return 0
}

func (b *builder) note(L *lua.LState) int {
	beat := checkBeat(L, 1)

	var key uint8
	switch v := L.CheckAny(2).(type) {
	case lua.LNumber:
		key = checkByte(L, 2, int(v))
	case lua.LString:
		k, err := pitch.ParseNoteName(string(v))
		if err != nil {
			L.ArgError(2, err.Error())
		}
		key = k
	default:
		L.ArgError(2, "key must be a note number or name")
	}

	length := float64(L.OptNumber(3, 1))
	if length <= 0 {
		L.ArgError(3, "length must be positive")
	}
	velocity := checkByte(L, 4, L.OptInt(4, 100))
	if velocity == 0 {
		L.ArgError(4, "velocity must be at least 1")
	}

	b.score.Notes = append(b.score.Notes, Note{Beat: beat, Length: length, Key: key, Velocity: velocity})
	return 0
}

func (b *builder) bend(L *lua.LState) int {
	beat := checkBeat(L, 1)
	amount := max(-1, min(float64(L.CheckNumber(2)), 1))
	value := int16(max(-8192, min(math.Round(amount*8192), 8191)))
	b.score.Bends = append(b.score.Bends, Bend{Beat: beat, Value: value})
	return 0
}

func (b *builder) cc(L *lua.LState) int {
	beat := checkBeat(L, 1)
	controller := checkByte(L, 2, L.CheckInt(2))
	value := checkByte(L, 3, L.CheckInt(3))
	b.score.Controls = append(b.score.Controls, Control{Beat: beat, Controller: controller, Value: value})
	return 0
}

func (b *builder) set(L *lua.LState) int {
	st := Setting{Name: L.CheckString(1)}
	switch v := L.CheckAny(2).(type) {
	case lua.LNumber:
		st.Value = float64(v)
	case lua.LString:
		st.Text = string(v)
	case lua.LBool:
		if v {
			st.Value = 1
		}
	default:
		L.ArgError(2, "value must be a number, string or boolean")
	}
	b.score.Settings = append(b.score.Settings, st)
	return 0
}

func (b *builder) tail(L *lua.LState) int {
	beats := float64(L.CheckNumber(1))
	if beats < 0 {
		L.ArgError(1, "tail must be >= 0")
	}
	b.score.Tail = beats
	return 0
}

// Length returns the score length in beats, from beat 0 to the end of the
// last note or event plus the tail.
func (s *Score) Length() float64 {
	end := 0.0
	for _, n := range s.Notes {
		end = max(end, n.Beat+n.Length)
	}
	for _, bd := range s.Bends {
		end = max(end, bd.Beat)
	}
	for _, c := range s.Controls {
		end = max(end, c.Beat)
	}
	return end + s.Tail
}

// Frames returns the score length in samples at sampleRate.
func (s *Score) Frames(sampleRate float64) int64 {
	return s.frame(s.Length(), sampleRate)
}

func (s *Score) frame(beat, sampleRate float64) int64 {
	return int64(math.Round(beat * 60 / s.Tempo * sampleRate))
}

// Sequence converts the score into events at sampleRate. At equal times
// note offs come before note ons so repeated keys retrigger.
func (s *Score) Sequence(sampleRate float64) *midi.Sequence {
	events := make([]midi.TimedEvent, 0, 2*len(s.Notes)+len(s.Bends)+len(s.Controls))
	for _, c := range s.Controls {
		events = append(events, midi.TimedEvent{
			At:    s.frame(c.Beat, sampleRate),
			Event: midi.ControlChangeEvent{Controller: c.Controller, Value: c.Value},
		})
	}
	for _, bd := range s.Bends {
		events = append(events, midi.TimedEvent{
			At:    s.frame(bd.Beat, sampleRate),
			Event: midi.PitchBendEvent{Value: bd.Value},
		})
	}
	for _, n := range s.Notes {
		events = append(events, midi.TimedEvent{
			At:    s.frame(n.Beat+n.Length, sampleRate),
			Event: midi.NoteOffEvent{NoteNumber: n.Key},
		})
	}
	for _, n := range s.Notes {
		events = append(events, midi.TimedEvent{
			At:    s.frame(n.Beat, sampleRate),
			Event: midi.NoteOnEvent{NoteNumber: n.Key, Velocity: n.Velocity},
		})
	}
	return midi.NewSequence(events)
}

// Setter sets parameters by name.
type Setter interface {
	SetPlain(name string, value float64) error
	SetText(name, text string) error
}

// Apply writes the score's parameter settings. It stops at the first
// unknown name or invalid value.
func (s *Score) Apply(params Setter) error {
	for _, st := range s.Settings {
		if st.Text != "" {
			if err := params.SetText(st.Name, st.Text); err != nil {
				return fmt.Errorf("%s: set %s = %q: %w", s.Name, st.Name, st.Text, err)
			}
			continue
		}
		if err := params.SetPlain(st.Name, st.Value); err != nil {
			return fmt.Errorf("%s: set %s = %v: %w", s.Name, st.Name, st.Value, err)
		}
	}
	return nil
}
