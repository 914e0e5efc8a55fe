package wavout

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := Create(path, 48000)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	left := []float32{0, 0.5, -0.5, 1, -1}
	right := []float32{0.25, -0.25, 0, 0.75, 0.1}
	// Two blocks to check the stream continues across writes
	if err := w.Write(left[:2], right[:2]); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(left[2:], right[2:]); err != nil {
		t.Fatal(err)
	}
	if w.Frames() != 5 {
		t.Errorf("Frames() = %d, want 5", w.Frames())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gotL, gotR, rate, err := Read(f)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rate != 48000 {
		t.Errorf("sample rate = %d, want 48000", rate)
	}
	if len(gotL) != len(left) {
		t.Fatalf("read %d frames, want %d", len(gotL), len(left))
	}
	for i := range left {
		if math.Abs(float64(gotL[i]-left[i])) > 1e-4 || math.Abs(float64(gotR[i]-right[i])) > 1e-4 {
			t.Errorf("frame %d = (%f, %f), want (%f, %f)", i, gotL[i], gotR[i], left[i], right[i])
		}
	}
}

func TestWriteClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	w, err := Create(path, 44100)
	if err != nil {
		t.Fatal(err)
	}
	nan := float32(math.NaN())
	if err := w.Write([]float32{2, 0.5, nan}, []float32{-3, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if w.Clipped() != 3 {
		t.Errorf("Clipped() = %d, want 3", w.Clipped())
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	left, right, _, err := Read(f)
	if err != nil {
		t.Fatal(err)
	}
	if left[0] != 1 || right[0] != -1 {
		t.Errorf("clipped frame = (%f, %f), want (1, -1)", left[0], right[0])
	}
	if left[2] != 0 {
		t.Errorf("NaN written as %f, want 0", left[2])
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	_, _, _, err := Read(bytes.NewReader([]byte("definitely not a RIFF file")))
	if !errors.Is(err, ErrNotWAV) {
		t.Errorf("error = %v, want ErrNotWAV", err)
	}
}

func TestCreateBadPath(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "missing", "out.wav"), 44100); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
