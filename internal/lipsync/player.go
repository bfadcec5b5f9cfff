package lipsync

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Player walks an audio stream in step with the frame clock and reports the
// mouth level for each frame. It never plays sound; the renderer does that.
type Player struct {
	mu       sync.Mutex
	streamer beep.Streamer
	closer   io.Closer
	format   beep.Format
	follower *Follower
	last     time.Duration
	started  bool
	done     bool
	buf      [][2]float64
}

// NewPlayer follows s, which is decoded at format's sample rate.
func NewPlayer(s beep.Streamer, format beep.Format, cfg Config) *Player {
	return &Player{
		streamer: s,
		format:   format,
		follower: NewFollower(cfg),
	}
}

// OpenWAV decodes the WAV file at path.
func OpenWAV(path string, cfg Config) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	p := NewPlayer(streamer, format, cfg)
	p.closer = streamer
	return p, nil
}

// Advance consumes the audio between the previous call and now and returns
// the mouth level. The first call only anchors the stream at now. Once the
// stream is exhausted the level is 0 and done is true.
func (p *Player) Advance(now time.Duration) (level float64, done bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return 0, true
	}
	if !p.started {
		p.started = true
		p.last = now
		return 0, false
	}

	dt := now - p.last
	if dt <= 0 {
		return p.follower.Level(), false
	}
	p.last = now

	n := p.format.SampleRate.N(dt)
	if cap(p.buf) < n {
		p.buf = make([][2]float64, n)
	}
	buf := p.buf[:n]

	read := 0
	for read < n {
		m, ok := p.streamer.Stream(buf[read:])
		read += m
		if !ok {
			p.done = true
			break
		}
	}

	level = p.follower.Step(RMS(buf[:read]), dt)
	if p.done {
		p.follower.Reset()
		return 0, true
	}
	return level, false
}

// Close releases the underlying file, if any.
func (p *Player) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
