// Package driver runs a rig's frame loop.
package driver

import (
	"context"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/rs/zerolog"
)

// Rig is the part of avatar2d.Rig the loop needs.
type Rig interface {
	Now() time.Duration
	Tick(now time.Duration) avatar2d.Vector
}

// Hook runs before every tick with the frame's timestamp. Input sources
// such as the pointer smoother and lip-sync player feed the rig here.
type Hook func(now time.Duration)

// Driver ticks a rig at a fixed wall-clock rate. Each frame is stamped with
// the rig clock's current time, so a late frame simply sees more elapsed
// time.
type Driver struct {
	rig      Rig
	interval time.Duration
	logger   zerolog.Logger
	hooks    []Hook
	observe  func(time.Duration)
	frames   uint64
}

func New(rig Rig, interval time.Duration, logger zerolog.Logger) *Driver {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Driver{
		rig:      rig,
		interval: interval,
		logger:   logger.With().Str("component", "driver").Logger(),
	}
}

// AddHook registers h. Hooks are not safe to add while Run is active.
func (d *Driver) AddHook(h Hook) {
	d.hooks = append(d.hooks, h)
}

// SetTickObserver receives the time each frame took.
func (d *Driver) SetTickObserver(fn func(time.Duration)) {
	d.observe = fn
}

func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Frames returns how many frames Step has produced.
func (d *Driver) Frames() uint64 {
	return d.frames
}

// Run ticks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info().Dur("interval", d.interval).Msg("Frame loop started")
	defer d.logger.Info().Uint64("frames", d.frames).Msg("Frame loop stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Step()
		}
	}
}

// Step produces one frame at the rig's current time.
func (d *Driver) Step() avatar2d.Vector {
	start := time.Now()
	now := d.rig.Now()
	for _, h := range d.hooks {
		h(now)
	}
	frame := d.rig.Tick(now)
	d.frames++
	if d.observe != nil {
		d.observe(time.Since(start))
	}
	return frame
}
