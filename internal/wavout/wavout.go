// Package wavout writes rendered stereo audio to 16-bit PCM WAV files.
package wavout

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mitchellh/go-homedir"
)

const (
	bitDepth  = 16
	channels  = 2
	pcmFormat = 1
	fullScale = 32767
)

// ErrNotWAV is returned by Read for input that is not a PCM WAV stream
var ErrNotWAV = errors.New("not a PCM WAV file")

// Writer encodes planar stereo float blocks as interleaved 16-bit frames.
// Samples outside [-1, 1] are clipped and counted.
type Writer struct {
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	closer io.Closer

	frames  int64
	clipped int64
}

// NewWriter starts a WAV stream on w. Close must be called to finish the
// header.
func NewWriter(w io.WriteSeeker, sampleRate int) *Writer {
	return &Writer{
		enc: wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}
}

// Create creates or truncates the file at path and returns a writer that
// closes it. A leading ~ is expanded to the home directory.
func Create(path string, sampleRate int) (*Writer, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", path, err)
	}
	f, err := os.Create(expanded)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f, sampleRate)
	w.closer = f
	return w, nil
}

// Write appends min(len(left), len(right)) frames.
func (w *Writer) Write(left, right []float32) error {
	n := min(len(left), len(right))
	if cap(w.buf.Data) < channels*n {
		w.buf.Data = make([]int, channels*n)
	}
	data := w.buf.Data[:channels*n]
	for i := range n {
		data[2*i] = w.quantize(left[i])
		data[2*i+1] = w.quantize(right[i])
	}
	w.buf.Data = data
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	w.frames += int64(n)
	return nil
}

func (w *Writer) quantize(s float32) int {
	v := float64(s)
	if math.IsNaN(v) {
		w.clipped++
		return 0
	}
	if v > 1 || v < -1 {
		w.clipped++
		v = max(-1, min(v, 1))
	}
	return int(math.Round(v * fullScale))
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int64 {
	return w.frames
}

// Clipped returns the number of samples that were out of range.
func (w *Writer) Clipped() int64 {
	return w.clipped
}

// Close finishes the WAV header and closes the underlying file if the
// writer owns it.
func (w *Writer) Close() error {
	err := w.enc.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Read decodes a whole PCM WAV stream into planar float channels. Mono
// input is returned in both channels.
func Read(r io.ReadSeeker) (left, right []float32, sampleRate int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, nil, 0, ErrNotWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("decode wav: %w", err)
	}

	nch := buf.Format.NumChannels
	maxValue := audio.IntMaxSignedValue(int(dec.SampleBitDepth()))
	if nch < 1 || maxValue == 0 {
		return nil, nil, 0, ErrNotWAV
	}
	scale := float32(maxValue)
	frames := len(buf.Data) / nch
	left = make([]float32, frames)
	right = make([]float32, frames)
	for i := range frames {
		left[i] = float32(buf.Data[i*nch]) / scale
		right[i] = left[i]
		if nch > 1 {
			right[i] = float32(buf.Data[i*nch+1]) / scale
		}
	}
	return left, right, buf.Format.SampleRate, nil
}
