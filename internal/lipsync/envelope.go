// Package lipsync derives a [0,1] mouth-open level from audio energy.
package lipsync

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Config tunes the envelope follower.
type Config struct {
	Attack  time.Duration // time constant while the level rises
	Release time.Duration // time constant while it falls
	Gain    float64       // RMS above Floor is scaled by Gain
	Floor   float64       // RMS at or below this is silence
}

func DefaultConfig() Config {
	return Config{
		Attack:  20 * time.Millisecond,
		Release: 120 * time.Millisecond,
		Gain:    4,
		Floor:   0.01,
	}
}

// silence is the level under which the follower reports exactly 0, so the
// mouth override switches off between words.
const silence = 0.02

// Follower is a one-pole attack/release envelope over RMS energy.
type Follower struct {
	cfg   Config
	level float64
}

func NewFollower(cfg Config) *Follower {
	d := DefaultConfig()
	if cfg.Attack < 0 {
		cfg.Attack = d.Attack
	}
	if cfg.Release < 0 {
		cfg.Release = d.Release
	}
	if cfg.Gain <= 0 {
		cfg.Gain = d.Gain
	}
	return &Follower{cfg: cfg}
}

// Step feeds the RMS energy of the last dt of audio and returns the new
// mouth level.
func (f *Follower) Step(rms float64, dt time.Duration) float64 {
	target := mgl64.Clamp((rms-f.cfg.Floor)*f.cfg.Gain, 0, 1)

	tau := f.cfg.Release
	if target > f.level {
		tau = f.cfg.Attack
	}
	if tau <= 0 || dt <= 0 {
		f.level = target
	} else {
		alpha := 1 - math.Exp(-dt.Seconds()/tau.Seconds())
		f.level += (target - f.level) * alpha
	}

	if f.level < silence {
		f.level = 0
	}
	return f.level
}

func (f *Follower) Level() float64 {
	return f.level
}

func (f *Follower) Reset() {
	f.level = 0
}

// RMS is the root mean square of the mono mix of stereo frames.
func RMS(samples [][2]float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		mono := (s[0] + s[1]) / 2
		sum += mono * mono
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// RMSPCM16 computes the RMS of little-endian signed 16-bit PCM.
func RMSPCM16(data []byte) float64 {
	var sum float64
	var count int
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(data[i]) | int16(data[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}
