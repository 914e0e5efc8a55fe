package audioout

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/justyntemme/synja/pkg/midi"
	"github.com/justyntemme/synja/pkg/synth"
)

// ramp writes an increasing sample count to left and its negation to right.
type ramp struct {
	next  float32
	calls int
	sizes []int
}

func (r *ramp) Process(_ []midi.Event, left, right []float32) {
	r.calls++
	r.sizes = append(r.sizes, len(left))
	for i := range left {
		r.next++
		left[i] += r.next
		right[i] -= r.next
	}
}

func frameAt(p []byte, i int) (float32, float32) {
	l := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8:]))
	r := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8+4:]))
	return l, r
}

func TestStreamInterleavesBlocks(t *testing.T) {
	src := &ramp{}
	s := NewStream(src, 44100, 4)

	p := make([]byte, 10*bytesPerFrame+3)
	n, err := s.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10*bytesPerFrame {
		t.Fatalf("Read() = %d bytes, want %d", n, 10*bytesPerFrame)
	}

	for i := range 10 {
		l, r := frameAt(p, i)
		if want := float32(i + 1); l != want || r != -want {
			t.Errorf("frame %d = (%f, %f), want (%f, %f)", i, l, r, want, -want)
		}
	}
	wantSizes := []int{4, 4, 2}
	if len(src.sizes) != len(wantSizes) {
		t.Fatalf("block sizes = %v, want %v", src.sizes, wantSizes)
	}
	for i := range wantSizes {
		if src.sizes[i] != wantSizes[i] {
			t.Errorf("block sizes = %v, want %v", src.sizes, wantSizes)
			break
		}
	}
	if s.Frames() != 10 {
		t.Errorf("Frames() = %d, want 10", s.Frames())
	}
	if s.Level() <= 0 {
		t.Error("level not tracked")
	}
}

func TestStreamClearsBetweenReads(t *testing.T) {
	src := &ramp{}
	s := NewStream(src, 44100, 8)
	p := make([]byte, 8*bytesPerFrame)

	for range 2 {
		if _, err := s.Read(p); err != nil {
			t.Fatal(err)
		}
	}
	// Accumulating renderers would double up on stale samples otherwise
	if l, _ := frameAt(p, 0); l != 9 {
		t.Errorf("first frame of second read = %f, want 9", l)
	}
}

func TestStreamPlaysEngine(t *testing.T) {
	e, err := synth.NewEngine(synth.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStream(e, 44100, 256)

	p := make([]byte, 1024*bytesPerFrame)
	if _, err := io.ReadFull(s, p); err != nil {
		t.Fatal(err)
	}
	if s.Level() != 0 {
		t.Errorf("silent engine level = %f", s.Level())
	}

	e.Queue().Add(midi.NoteOnEvent{NoteNumber: 60, Velocity: 120})
	if _, err := io.ReadFull(s, p); err != nil {
		t.Fatal(err)
	}
	if s.Level() <= 0 || s.LevelDB() <= -120 {
		t.Errorf("level after note on = %f (%f dB)", s.Level(), s.LevelDB())
	}
	if e.Clock() != 2048 {
		t.Errorf("engine clock = %d, want 2048", e.Clock())
	}
}

func BenchmarkStreamRead(b *testing.B) {
	e, err := synth.NewEngine(synth.DefaultConfig(), nil)
	if err != nil {
		b.Fatal(err)
	}
	for i := range 4 {
		e.Queue().Add(midi.NoteOnEvent{NoteNumber: uint8(48 + 7*i), Velocity: 100})
	}
	s := NewStream(e, 44100, 512)
	p := make([]byte, 512*bytesPerFrame)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Read(p)
	}
}
