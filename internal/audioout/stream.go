// Package audioout plays an engine through the system audio device.
package audioout

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/justyntemme/synja/pkg/dsp/envelope"
	"github.com/justyntemme/synja/pkg/midi"
)

const bytesPerFrame = 8 // two float32 channels

// Renderer adds stereo output to left and right, applying events first.
type Renderer interface {
	Process(events []midi.Event, left, right []float32)
}

// Stream is an io.Reader producing interleaved little-endian float32
// stereo frames from a Renderer. Read is called from the audio device's
// goroutine; Level and Frames may be read from any goroutine.
type Stream struct {
	r           Renderer
	left, right []float32
	meter       *envelope.Follower

	level  atomic.Uint64
	frames atomic.Int64
}

// NewStream renders r in blocks of at most blockSize frames.
func NewStream(r Renderer, sampleRate float64, blockSize int) *Stream {
	blockSize = max(1, blockSize)
	return &Stream{
		r:     r,
		left:  make([]float32, blockSize),
		right: make([]float32, blockSize),
		meter: envelope.NewFollower(sampleRate),
	}
}

// Read fills p with whole frames and never fails.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	for done := 0; done < frames; {
		n := min(frames-done, len(s.left))
		left, right := s.left[:n], s.right[:n]
		clear(left)
		clear(right)
		s.r.Process(nil, left, right)

		out := p[done*bytesPerFrame:]
		for i := range n {
			binary.LittleEndian.PutUint32(out[i*bytesPerFrame:], math.Float32bits(left[i]))
			binary.LittleEndian.PutUint32(out[i*bytesPerFrame+4:], math.Float32bits(right[i]))
			s.meter.Follow(max(abs32(left[i]), abs32(right[i])))
		}
		done += n
	}

	s.level.Store(math.Float64bits(s.meter.Envelope()))
	s.frames.Add(int64(frames))
	return frames * bytesPerFrame, nil
}

func abs32(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) &^ (1 << 31))
}

// Level returns the output level envelope after the last Read.
func (s *Stream) Level() float64 {
	return math.Float64frombits(s.level.Load())
}

// LevelDB returns Level in decibels.
func (s *Stream) LevelDB() float64 {
	return envelope.LinearToDB(s.Level())
}

// Frames returns the number of frames produced.
func (s *Stream) Frames() int64 {
	return s.frames.Load()
}
