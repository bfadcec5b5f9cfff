package avatar2d

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleStartsAtRest(t *testing.T) {
	g := NewIdleGenerator(DefaultIdleConfig(), rand.New(rand.NewSource(1)))
	out := g.Update(0)

	for _, p := range []Param{Breath, BodyAngleX, BodyAngleY, HeadAngleX, HeadAngleY} {
		require.True(t, out.Has(p), p.String())
		assert.InDelta(t, 0, out.Get(p), 1e-12, p.String())
	}
	assert.Equal(t, 1.0, out.Get(EyeLOpen))
	assert.Equal(t, 1.0, out.Get(EyeROpen))
	assert.False(t, out.Has(MouthForm))
}

func TestIdleBreathes(t *testing.T) {
	cfg := DefaultIdleConfig()
	g := NewIdleGenerator(cfg, rand.New(rand.NewSource(1)))

	half := g.Update(cfg.BreathPeriod / 2)
	assert.InDelta(t, cfg.BreathDepth, half.Get(Breath), 1e-9)

	full := g.Update(cfg.BreathPeriod)
	assert.InDelta(t, 0, full.Get(Breath), 1e-9)
}

func TestIdlePauseResume(t *testing.T) {
	g := NewIdleGenerator(DefaultIdleConfig(), rand.New(rand.NewSource(1)))
	g.Pause()
	assert.True(t, g.Paused())
	out := g.Update(time.Second)
	assert.Equal(t, 0, out.Len())

	resumeAt := 30 * time.Second
	g.Resume(resumeAt)
	assert.False(t, g.Paused())
	out = g.Update(resumeAt)
	assert.InDelta(t, 0, out.Get(Breath), 1e-12)
	assert.InDelta(t, 0, out.Get(HeadAngleX), 1e-12)
	assert.Equal(t, 1.0, out.Get(EyeLOpen))

	next := g.NextBlinkAt()
	assert.GreaterOrEqual(t, next, resumeAt+2*time.Second)
	assert.LessOrEqual(t, next, resumeAt+6*time.Second)
}

func TestIdleBlinkCloses(t *testing.T) {
	cfg := DefaultIdleConfig()
	g := NewIdleGenerator(cfg, rand.New(rand.NewSource(7)))
	start := g.NextBlinkAt()

	shut := g.Update(start + cfg.BlinkClose + cfg.BlinkHold/2)
	assert.Equal(t, 0.0, shut.Get(EyeLOpen))
	assert.Equal(t, 0.0, shut.Get(EyeROpen))

	closing := g.Update(start + cfg.BlinkClose/2)
	assert.Greater(t, closing.Get(EyeLOpen), 0.0)
	assert.Less(t, closing.Get(EyeLOpen), 1.0)
}

func TestIdleBlinkInterval(t *testing.T) {
	g := NewIdleGenerator(DefaultIdleConfig(), rand.New(rand.NewSource(42)))

	var starts []time.Duration
	prevOpen := true
	for now := time.Duration(0); now <= 10*time.Minute; now += 10 * time.Millisecond {
		out := g.Update(now)
		open := out.Get(EyeLOpen) == 1
		if prevOpen && !open {
			starts = append(starts, now)
		}
		prevOpen = open
	}

	require.Greater(t, len(starts), 50)
	mean := (starts[len(starts)-1] - starts[0]) / time.Duration(len(starts)-1)
	assert.GreaterOrEqual(t, mean, 2*time.Second)
	assert.LessOrEqual(t, mean, 6*time.Second)

	for i := 1; i < len(starts); i++ {
		gap := starts[i] - starts[i-1]
		assert.GreaterOrEqual(t, gap, 2*time.Second-20*time.Millisecond)
		assert.LessOrEqual(t, gap, 6*time.Second+20*time.Millisecond)
	}
}

func TestStillIdleIsBaseline(t *testing.T) {
	g := NewIdleGenerator(StillIdleConfig(), rand.New(rand.NewSource(1)))
	frame := Baseline()
	out := g.Update(3 * time.Second)
	frame.Overlay(out)
	assert.True(t, frame.Equal(Baseline()))
}
