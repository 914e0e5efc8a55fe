package audioout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/synja/pkg/framework/debug"
)

// ErrClosed is returned by Run after Close
var ErrClosed = errors.New("player closed")

// Player owns the oto context and a player pulling from a Stream.
type Player struct {
	ctx    *oto.Context
	player *oto.Player
	stream *Stream

	mu      sync.Mutex
	started bool
}

// NewPlayer opens the default audio device for stereo float output.
// latency sets the device buffer; zero uses oto's default.
func NewPlayer(stream *Stream, sampleRate int, latency time.Duration) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	debug.Info("audio: %d Hz stereo, buffer %v", sampleRate, latency)
	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(stream),
		stream: stream,
	}, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

// Stream returns the stream being played.
func (p *Player) Stream() *Stream {
	return p.stream
}

// Run plays until ctx is cancelled or the device fails, then closes the
// player.
func (p *Player) Run(ctx context.Context) error {
	p.Start()
	defer p.Close()

	p.mu.Lock()
	player := p.player
	p.mu.Unlock()
	if player == nil {
		return ErrClosed
	}

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if err := p.ctx.Err(); err != nil {
				return fmt.Errorf("audio device: %w", err)
			}
			if err := player.Err(); err != nil {
				return fmt.Errorf("audio player: %w", err)
			}
		}
	}
}

// Close stops playback.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	p.started = false
	return err
}
