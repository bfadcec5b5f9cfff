// Package pointer turns raw pointer positions into a smoothed head-rotation
// offset for the rig.
package pointer

import (
	"sync"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/normanking/cortexrig/internal/bus"
)

// Config maps the normalized pointer range onto head angles and tunes the
// spring.
type Config struct {
	Frequency float64
	Damping   float64
	MaxYaw    float64
	MaxPitch  float64
	MaxRoll   float64
}

func DefaultConfig() Config {
	return Config{Frequency: 6, Damping: 1, MaxYaw: 30, MaxPitch: 20}
}

// Smoother springs toward the last pointer position, one step per frame.
// Positions are normalized to [-1, 1] with +y up and (0, 0) at the
// character's face.
type Smoother struct {
	cfg    Config
	spring harmonica.Spring

	mu     sync.Mutex
	target [2]float64
	pos    [2]float64
	vel    [2]float64
}

// New creates a smoother stepped fps times per second.
func New(cfg Config, fps int) *Smoother {
	if fps <= 0 {
		fps = 60
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = DefaultConfig().Frequency
	}
	if cfg.Damping <= 0 {
		cfg.Damping = DefaultConfig().Damping
	}
	return &Smoother{
		cfg:    cfg,
		spring: harmonica.NewSpring(harmonica.FPS(fps), cfg.Frequency, cfg.Damping),
	}
}

// SetTarget records a new pointer position, clamped to the unit square.
func (s *Smoother) SetTarget(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = [2]float64{mgl64.Clamp(x, -1, 1), mgl64.Clamp(y, -1, 1)}
}

// Center sends the head back to rest, e.g. when the pointer leaves.
func (s *Smoother) Center() {
	s.SetTarget(0, 0)
}

// Step advances the spring one frame and returns the head offset.
func (s *Smoother) Step() avatar2d.Vector {
	s.mu.Lock()
	for i := range s.pos {
		s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], s.target[i])
	}
	x, y := s.pos[0], s.pos[1]
	s.mu.Unlock()

	var v avatar2d.Vector
	v.Set(avatar2d.HeadAngleX, x*s.cfg.MaxYaw)
	v.Set(avatar2d.HeadAngleY, y*s.cfg.MaxPitch)
	v.Set(avatar2d.HeadAngleZ, -x*y*s.cfg.MaxRoll)
	return v
}

// Position returns the smoothed normalized position.
func (s *Smoother) Position() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos[0], s.pos[1]
}

// Subscribe follows pointer.moved events carrying x and y.
func (s *Smoother) Subscribe(b *bus.EventBus) {
	b.Subscribe(bus.EventTypePointerMoved, func(e bus.Event) {
		x, okX := e.Float("x")
		y, okY := e.Float("y")
		if !okX || !okY {
			return
		}
		s.SetTarget(x, y)
	})
}
