package avatar2d

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRevertDuration is how long the return to baseline takes after a
// hold expires.
const DefaultRevertDuration = 350 * time.Millisecond

var ErrUnknownEmotion = errors.New("unknown emotion")

// Emotion is one catalog entry: the pose an expression drives toward and
// how long it takes and lasts.
type Emotion struct {
	Name       string
	Motion     string
	Target     Vector
	Transition time.Duration
	Hold       time.Duration
	Easing     EasingFunc
	// Neutral marks the baseline expression, which never schedules a
	// reversion.
	Neutral bool
}

// EmotionSource resolves emotion names. catalog.Catalog implements it.
type EmotionSource interface {
	Lookup(name string) (Emotion, bool)
}

// Mode is the single source of truth for whether an expression owns the
// face.
type Mode int

const (
	ModeIdle Mode = iota
	ModeTransitioning
	ModeHeld
	ModeReverting
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeTransitioning:
		return "transitioning"
	case ModeHeld:
		return "held"
	case ModeReverting:
		return "reverting"
	default:
		return "unknown"
	}
}

// EmotionMachine owns the trigger -> transition -> hold -> revert lifecycle.
// It is not safe for concurrent use; the owning Rig serializes ticks,
// triggers and reversion callbacks.
type EmotionMachine struct {
	emotions       EmotionSource
	animator       *TransitionAnimator
	idle           *IdleGenerator
	baseline       Vector
	revertDuration time.Duration
	logger         zerolog.Logger

	// schedule arranges for Revert(id) to be called after d.
	schedule func(d time.Duration, id uint64)

	// pose returns the frame currently on screen, minus lip-sync.
	pose func(now time.Duration) Vector

	onModeChange func(from, to Mode, emotion string)
	onStale      func(id uint64)

	mode          Mode
	counter       uint64
	lastTriggerID uint64
	active        *Emotion
	transitionEnd time.Duration
}

func NewEmotionMachine(emotions EmotionSource, animator *TransitionAnimator, idle *IdleGenerator, baseline Vector, revertDuration time.Duration, logger zerolog.Logger) *EmotionMachine {
	if revertDuration < 0 {
		revertDuration = DefaultRevertDuration
	}
	return &EmotionMachine{
		emotions:       emotions,
		animator:       animator,
		idle:           idle,
		baseline:       baseline,
		revertDuration: revertDuration,
		logger:         logger,
		schedule:       func(time.Duration, uint64) {},
	}
}

// SetScheduler installs the function used to arm reversion timers.
func (m *EmotionMachine) SetScheduler(fn func(d time.Duration, id uint64)) {
	m.schedule = fn
}

// SetRevertDuration changes the return-to-baseline time for later
// reversions. Negative selects the default; zero reverts instantly.
func (m *EmotionMachine) SetRevertDuration(d time.Duration) {
	if d < 0 {
		d = DefaultRevertDuration
	}
	m.revertDuration = d
}

func (m *EmotionMachine) RevertDuration() time.Duration {
	return m.revertDuration
}

func (m *EmotionMachine) Mode() Mode {
	return m.mode
}

func (m *EmotionMachine) LastTriggerID() uint64 {
	return m.lastTriggerID
}

// Active returns the emotion currently transitioning in or held.
func (m *EmotionMachine) Active() (Emotion, bool) {
	if m.active == nil {
		return Emotion{}, false
	}
	return *m.active, true
}

// HeldTarget returns the pose to reassert every frame while Held.
func (m *EmotionMachine) HeldTarget() (Vector, bool) {
	if m.mode != ModeHeld || m.active == nil {
		return Vector{}, false
	}
	return m.active.Target, true
}

// Trigger interrupts whatever is in flight and starts transitioning to the
// named emotion. Every call is a new trigger, even for a repeated name.
func (m *EmotionMachine) Trigger(now time.Duration, name string) (uint64, error) {
	e, ok := m.emotions.Lookup(name)
	if !ok {
		return 0, ErrUnknownEmotion
	}

	// Every key starts from what is on screen and keys the emotion leaves
	// alone ease to baseline, so paused idle motion and interrupted
	// expressions never snap.
	if m.pose != nil {
		m.animator.Reset(m.pose(now))
	}
	target := m.baseline
	target.Overlay(e.Target)

	m.counter++
	m.lastTriggerID = m.counter
	m.active = &e
	m.transitionEnd = now + e.Transition

	easing := e.Easing
	if easing == nil {
		easing = EaseOutCubic
	}
	m.idle.Pause()
	m.animator.AnimateTo(now, target, e.Transition, easing)
	m.setMode(ModeTransitioning)

	m.logger.Debug().
		Str("emotion", e.Name).
		Uint64("trigger", m.lastTriggerID).
		Dur("transition", e.Transition).
		Dur("hold", e.Hold).
		Msg("Emotion triggered")

	return m.lastTriggerID, nil
}

// Advance moves Transitioning to Held once the transition time has passed.
// Elapsed time, not the animator's bookkeeping, decides.
func (m *EmotionMachine) Advance(now time.Duration) {
	if m.mode != ModeTransitioning || now < m.transitionEnd {
		return
	}

	if m.active.Neutral {
		m.active = nil
		m.idle.Resume(now)
		m.setMode(ModeIdle)
		return
	}

	m.setMode(ModeHeld)

	// Anchor the hold to the end of the transition, not to the frame that
	// noticed it.
	delay := m.active.Hold - (now - m.transitionEnd)
	if delay < 0 {
		delay = 0
	}
	m.schedule(delay, m.lastTriggerID)
}

// Revert is the reversion timer body. It returns false when the timer was
// superseded by a later trigger.
func (m *EmotionMachine) Revert(now time.Duration, id uint64) bool {
	if id != m.lastTriggerID || m.mode != ModeHeld || m.active == nil {
		m.logger.Debug().
			Uint64("trigger", id).
			Uint64("current", m.lastTriggerID).
			Msg("Discarding stale reversion")
		if m.onStale != nil {
			m.onStale(id)
		}
		return false
	}

	target := m.baseline.Restrict(m.active.Target)
	m.setMode(ModeReverting)
	m.animator.AnimateTo(now, target, m.revertDuration, EaseInOutCubic)
	m.idle.Resume(now)
	m.active = nil
	m.setMode(ModeIdle)
	return true
}

// Reset returns to Idle and invalidates every pending reversion. The
// trigger counter keeps counting so old ids can never match again.
func (m *EmotionMachine) Reset(now time.Duration) {
	m.lastTriggerID = 0
	m.active = nil
	m.transitionEnd = 0
	m.animator.Reset(m.baseline)
	m.idle.Resume(now)
	m.setMode(ModeIdle)
}

func (m *EmotionMachine) setMode(to Mode) {
	from := m.mode
	m.mode = to
	if from == to || m.onModeChange == nil {
		return
	}
	name := ""
	if m.active != nil {
		name = m.active.Name
	}
	m.onModeChange(from, to, name)
}
