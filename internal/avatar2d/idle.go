package avatar2d

import (
	"math"
	"math/rand"
	"time"
)

// IdleConfig tunes the procedural idle layer. Angles are in rig units
// (degrees for Cubism models).
type IdleConfig struct {
	BreathPeriod time.Duration `mapstructure:"breath_period" yaml:"breath_period"`
	BreathDepth  float64       `mapstructure:"breath_depth" yaml:"breath_depth"`
	BodySway     float64       `mapstructure:"body_sway" yaml:"body_sway"`

	HeadSwayPeriod    time.Duration `mapstructure:"head_sway_period" yaml:"head_sway_period"`
	HeadSwayAmplitude float64       `mapstructure:"head_sway_amplitude" yaml:"head_sway_amplitude"`

	BlinkMin   time.Duration `mapstructure:"blink_min" yaml:"blink_min"`
	BlinkMax   time.Duration `mapstructure:"blink_max" yaml:"blink_max"`
	BlinkClose time.Duration `mapstructure:"blink_close" yaml:"blink_close"`
	BlinkHold  time.Duration `mapstructure:"blink_hold" yaml:"blink_hold"`
	BlinkOpen  time.Duration `mapstructure:"blink_open" yaml:"blink_open"`
}

func DefaultIdleConfig() IdleConfig {
	return IdleConfig{
		BreathPeriod:      3500 * time.Millisecond,
		BreathDepth:       1.0,
		BodySway:          1.5,
		HeadSwayPeriod:    7 * time.Second,
		HeadSwayAmplitude: 3.0,
		BlinkMin:          2 * time.Second,
		BlinkMax:          6 * time.Second,
		BlinkClose:        60 * time.Millisecond,
		BlinkHold:         40 * time.Millisecond,
		BlinkOpen:         90 * time.Millisecond,
	}
}

// StillIdleConfig breathes and sways with zero amplitude and never blinks
// within any practical run, so the layer emits exactly the baseline pose.
func StillIdleConfig() IdleConfig {
	cfg := DefaultIdleConfig()
	cfg.BreathDepth = 0
	cfg.BodySway = 0
	cfg.HeadSwayAmplitude = 0
	cfg.BlinkMin = 24 * time.Hour
	cfg.BlinkMax = 24 * time.Hour
	return cfg
}

func (c IdleConfig) withDefaults() IdleConfig {
	d := DefaultIdleConfig()
	if c.BreathPeriod <= 0 {
		c.BreathPeriod = d.BreathPeriod
	}
	if c.HeadSwayPeriod <= 0 {
		c.HeadSwayPeriod = d.HeadSwayPeriod
	}
	if c.BlinkMin <= 0 {
		c.BlinkMin = d.BlinkMin
	}
	if c.BlinkMax < c.BlinkMin {
		c.BlinkMax = c.BlinkMin
	}
	if c.BlinkClose <= 0 {
		c.BlinkClose = d.BlinkClose
	}
	if c.BlinkHold < 0 {
		c.BlinkHold = 0
	}
	if c.BlinkOpen <= 0 {
		c.BlinkOpen = d.BlinkOpen
	}
	return c
}

// IdleGenerator produces breathing, blinking and sway. All periodic signals
// are zero at the phase origin, so a freshly (re)started generator emits the
// rest pose and ramps in without a jump.
type IdleGenerator struct {
	cfg IdleConfig
	rng *rand.Rand

	paused     bool
	origin     time.Duration
	blinkStart time.Duration
}

// NewIdleGenerator creates a running generator with its phase origin at 0.
// A nil rng uses a time-seeded source.
func NewIdleGenerator(cfg IdleConfig, rng *rand.Rand) *IdleGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &IdleGenerator{
		cfg: cfg.withDefaults(),
		rng: rng,
	}
	g.blinkStart = g.nextGap()
	return g
}

func (g *IdleGenerator) Pause() {
	g.paused = true
}

// Resume restarts generation with a fresh phase. The blink clock restarts
// too, so time spent paused can never produce an overdue blink.
func (g *IdleGenerator) Resume(now time.Duration) {
	g.paused = false
	g.origin = now
	g.blinkStart = now + g.nextGap()
}

func (g *IdleGenerator) Paused() bool {
	return g.paused
}

// NextBlinkAt returns the start time of the current or upcoming blink.
func (g *IdleGenerator) NextBlinkAt() time.Duration {
	return g.blinkStart
}

// Update returns the idle layer at now, or an empty vector while paused.
func (g *IdleGenerator) Update(now time.Duration) Vector {
	var out Vector
	if g.paused {
		return out
	}

	elapsed := (now - g.origin).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	g.applyBreathing(&out, elapsed)
	g.applyHeadSway(&out, elapsed)
	g.applyBlink(&out, now)
	return out
}

func (g *IdleGenerator) applyBreathing(out *Vector, elapsed float64) {
	phase := 2 * math.Pi * elapsed / g.cfg.BreathPeriod.Seconds()
	breath := 0.5 * (1 - math.Cos(phase))

	out.Set(Breath, breath*g.cfg.BreathDepth)
	out.Set(BodyAngleX, math.Sin(phase)*g.cfg.BodySway)
	out.Set(BodyAngleY, breath*g.cfg.BodySway*0.5)
}

func (g *IdleGenerator) applyHeadSway(out *Vector, elapsed float64) {
	w := 2 * math.Pi * elapsed / g.cfg.HeadSwayPeriod.Seconds()
	amp := g.cfg.HeadSwayAmplitude

	swayX := (math.Sin(w) + 0.5*math.Sin(w*2.3) + 0.25*math.Sin(w*4.1)) / 1.75
	swayY := (math.Sin(w*0.8) + 0.5*math.Sin(w*1.9)) / 1.5

	out.Set(HeadAngleX, swayX*amp)
	out.Set(HeadAngleY, swayY*amp*0.6)
}

func (g *IdleGenerator) applyBlink(out *Vector, now time.Duration) {
	total := g.cfg.BlinkClose + g.cfg.BlinkHold + g.cfg.BlinkOpen
	for now >= g.blinkStart+total {
		g.blinkStart += g.nextGap()
	}

	closed := 0.0
	if now >= g.blinkStart {
		closed = g.blinkEnvelope(now - g.blinkStart)
	}
	open := 1 - closed
	out.Set(EyeLOpen, open)
	out.Set(EyeROpen, open)
}

// blinkEnvelope returns how closed the eyes are (0 open, 1 shut) at offset d
// into a blink.
func (g *IdleGenerator) blinkEnvelope(d time.Duration) float64 {
	c, h, o := g.cfg.BlinkClose, g.cfg.BlinkHold, g.cfg.BlinkOpen
	switch {
	case d < c:
		return EaseOutQuad(float64(d) / float64(c))
	case d < c+h:
		return 1
	case d < c+h+o:
		return 1 - EaseInQuad(float64(d-c-h)/float64(o))
	default:
		return 0
	}
}

func (g *IdleGenerator) nextGap() time.Duration {
	span := g.cfg.BlinkMax - g.cfg.BlinkMin
	if span <= 0 {
		return g.cfg.BlinkMin
	}
	return g.cfg.BlinkMin + time.Duration(g.rng.Float64()*float64(span))
}
