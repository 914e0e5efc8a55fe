package score

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justyntemme/synja/pkg/midi"
	"github.com/justyntemme/synja/pkg/synth"
)

func parse(t *testing.T, src string) *Score {
	t.Helper()
	s, err := Parse(context.Background(), "test.lua", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

func TestParseScore(t *testing.T) {
	s := parse(t, `
tempo(60)
set("FilterCutoff", 800)
set("PolyMode", "Mono")
note(0, "C4")
note(1, 64, 2, 90)
bend(0.5, -1)
cc(2, 64, 127)
tail(1)
`)

	if s.Tempo != 60 {
		t.Errorf("Tempo = %f, want 60", s.Tempo)
	}
	wantNotes := []Note{
		{Beat: 0, Length: 1, Key: 60, Velocity: 100},
		{Beat: 1, Length: 2, Key: 64, Velocity: 90},
	}
	if len(s.Notes) != len(wantNotes) {
		t.Fatalf("got %d notes, want %d", len(s.Notes), len(wantNotes))
	}
	for i, want := range wantNotes {
		if s.Notes[i] != want {
			t.Errorf("note %d = %+v, want %+v", i, s.Notes[i], want)
		}
	}
	if len(s.Bends) != 1 || s.Bends[0].Value != -8192 {
		t.Errorf("bends = %+v", s.Bends)
	}
	if len(s.Controls) != 1 || s.Controls[0] != (Control{Beat: 2, Controller: 64, Value: 127}) {
		t.Errorf("controls = %+v", s.Controls)
	}
	if len(s.Settings) != 2 || s.Settings[0] != (Setting{Name: "FilterCutoff", Value: 800}) {
		t.Errorf("settings = %+v", s.Settings)
	}
	if got := s.Length(); got != 4 {
		t.Errorf("Length() = %f beats, want 4", got)
	}
	if got := s.Frames(44100); got != 4*44100 {
		t.Errorf("Frames() = %d, want %d", got, 4*44100)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", `tempo(90)`, ErrEmpty},
		{"syntax", `note(0, `, ErrScript},
		{"bad key", `note(0, "H2")`, ErrScript},
		{"key range", `note(0, 128)`, ErrScript},
		{"negative beat", `note(-1, 60)`, ErrScript},
		{"zero velocity", `note(0, 60, 1, 0)`, ErrScript},
		{"bad tempo", `tempo(0) note(0, 60)`, ErrScript},
		{"runtime", `error("boom")`, ErrScript},
		{"no os library", `os.exit(1)`, ErrScript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), "bad.lua", strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Parse(ctx, "loop.lua", strings.NewReader(`while true do end`))
	if err == nil {
		t.Fatal("endless script was not stopped")
	}
}

func TestSequenceOrdering(t *testing.T) {
	s := parse(t, `
tempo(120)
note(0, 60, 1)
note(1, 60, 1)
cc(1, 64, 0)
`)
	seq := s.Sequence(1000)

	// 120 bpm at 1 kHz is 500 frames per beat
	var at500 []midi.EventType
	for _, te := range seq.Events() {
		if te.At == 500 {
			at500 = append(at500, te.Event.Type())
		}
	}
	want := []midi.EventType{midi.EventTypeControlChange, midi.EventTypeNoteOff, midi.EventTypeNoteOn}
	if len(at500) != len(want) {
		t.Fatalf("events at frame 500 = %v, want %v", at500, want)
	}
	for i := range want {
		if at500[i] != want[i] {
			t.Errorf("event %d at frame 500 = %s, want %s", i, at500[i], want[i])
		}
	}
	if seq.End() != 1000 {
		t.Errorf("End() = %d, want 1000", seq.End())
	}
}

func TestApplySettings(t *testing.T) {
	s := parse(t, `
set("FilterCutoff", "2 kHz")
set("Osc1WaveForm", "Square")
set("UnisonVoices", 4)
set("AmpEnvRelease", 0.5)
set("LfoKeyTrig", true)
note(0, 60)
`)
	p := synth.NewParameters()
	if err := s.Apply(p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := p.Value(synth.FilterCutoff); got < 1999 || got > 2001 {
		t.Errorf("cutoff = %f, want 2000", got)
	}
	if got := p.Int(synth.Osc1WaveForm); got != 1 {
		t.Errorf("waveform = %d, want 1", got)
	}
	if got := p.Int(synth.UnisonVoices); got != 4 {
		t.Errorf("unison = %d, want 4", got)
	}
	if got := p.Value(synth.AmpEnvRelease); got < 0.499 || got > 0.501 {
		t.Errorf("release = %f s, want 0.5", got)
	}
	if !p.Bool(synth.LfoKeyTrig) {
		t.Error("boolean setting ignored")
	}

	bad := parse(t, `set("Wobble", 1) note(0, 60)`)
	if err := bad.Apply(p); err == nil {
		t.Error("unknown parameter accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riff.lua")
	if err := os.WriteFile(path, []byte(`note(0, "A2", 0.5)`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Notes) != 1 || s.Notes[0].Key != 45 {
		t.Errorf("notes = %+v", s.Notes)
	}

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestDemo(t *testing.T) {
	s := Demo()
	if len(s.Notes) == 0 {
		t.Fatal("demo has no notes")
	}
	if err := s.Apply(synth.NewParameters()); err != nil {
		t.Errorf("demo settings: %v", err)
	}
	if s.Length() <= s.Tail {
		t.Errorf("demo length %f beats", s.Length())
	}
}
