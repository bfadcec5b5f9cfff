// Package avatar2d composes the per-frame pose of a parametric 2D rig from
// idle motion, pointer tracking, emotion expressions and lip-sync.
package avatar2d

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/normanking/cortexrig/internal/clock"
	"github.com/rs/zerolog"
)

// Applier receives every composed frame. target.Adapter implements it.
type Applier interface {
	Apply(frame Vector) error
}

// Observer is notified of rig activity. Callbacks must not block or call
// back into the rig; all but FrameComposed run with the rig locked.
type Observer interface {
	FrameComposed(rigID string, applied bool)
	ModeChanged(rigID string, from, to Mode, emotion string)
	Triggered(rigID string, emotion string, id uint64)
	StaleReversion(rigID string, id uint64)
}

// Options configures a Rig. Zero values select defaults; use SetPointerWeight
// and SetRevertDuration for a literal zero.
type Options struct {
	Clock          clock.Clock
	Emotions       EmotionSource
	Baseline       Vector
	Idle           IdleConfig
	PointerWeight  float64
	RevertDuration time.Duration
	Rand           *rand.Rand
	Logger         zerolog.Logger
}

// State is a read-only view of the engine state.
type State struct {
	Mode          Mode
	LastTriggerID uint64
	Emotion       string
	IdlePaused    bool
	MouthOverride float64
	Attached      bool
}

// Rig owns the engine state of one character. Rigs share nothing, so any
// number can run side by side.
type Rig struct {
	id     string
	clock  clock.Clock
	logger zerolog.Logger

	mu            sync.Mutex
	baseline      Vector
	animator      *TransitionAnimator
	idle          *IdleGenerator
	pointer       *PointerBlender
	machine       *EmotionMachine
	mouthOverride float64
	target        Applier
	observers     []Observer
	lastFrame     Vector
}

// NewRig creates a detached rig. It composes frames from the first tick;
// frames are only applied once a target is attached.
func NewRig(opts Options) *Rig {
	if opts.Clock == nil {
		opts.Clock = clock.NewSystem()
	}
	if opts.Emotions == nil {
		opts.Emotions = noEmotions{}
	}
	if opts.PointerWeight == 0 {
		opts.PointerWeight = DefaultPointerWeight
	}
	if opts.RevertDuration == 0 {
		opts.RevertDuration = DefaultRevertDuration
	}

	baseline := Baseline()
	baseline.Overlay(opts.Baseline)

	id := uuid.NewString()
	logger := opts.Logger.With().Str("component", "rig").Str("rig", id).Logger()

	r := &Rig{
		id:       id,
		clock:    opts.Clock,
		logger:   logger,
		baseline: baseline,
		animator: NewTransitionAnimator(baseline),
		idle:     NewIdleGenerator(opts.Idle, opts.Rand),
		pointer:  NewPointerBlender(opts.PointerWeight),
	}
	r.idle.Resume(r.clock.Now())

	r.machine = NewEmotionMachine(opts.Emotions, r.animator, r.idle, baseline, opts.RevertDuration, logger)
	r.machine.SetScheduler(r.scheduleRevert)
	r.machine.pose = r.pose
	r.machine.onModeChange = r.notifyModeChange
	r.machine.onStale = r.notifyStale
	r.lastFrame = baseline

	return r
}

func (r *Rig) ID() string {
	return r.id
}

// Now returns the rig clock's current time. Tick drivers should use it.
func (r *Rig) Now() time.Duration {
	return r.clock.Now()
}

func (r *Rig) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Attach starts driving target with fresh engine state.
func (r *Rig) Attach(target Applier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
	r.machine.Reset(r.clock.Now())
	r.logger.Info().Msg("Render target attached")
}

// Detach stops applying frames and discards the engine state, including any
// pending reversion.
func (r *Rig) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.target == nil {
		return
	}
	r.target = nil
	r.machine.Reset(r.clock.Now())
	r.logger.Info().Msg("Render target detached")
}

// Trigger starts the named emotion, interrupting any in flight.
func (r *Rig) Trigger(name string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.machine.Trigger(r.clock.Now(), name)
	if err != nil {
		r.logger.Warn().Err(err).Str("emotion", name).Msg("Ignoring emotion trigger")
		return 0, err
	}
	e, _ := r.machine.Active()
	for _, o := range r.observers {
		o.Triggered(r.id, e.Name, id)
	}
	return id, nil
}

// SetPointerOffset replaces the smoothed pointer offset.
func (r *Rig) SetPointerOffset(offset Vector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointer.SetOffset(offset)
}

// SetPointerWeight changes how strongly the pointer offset is applied.
func (r *Rig) SetPointerWeight(weight float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointer.SetWeight(weight)
}

// SetRevertDuration changes how long later reversions take. Zero snaps back
// to baseline; negative selects DefaultRevertDuration.
func (r *Rig) SetRevertDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machine.SetRevertDuration(d)
}

// SetMouthOverride sets the lip-sync level in [0,1]; 0 disables it.
func (r *Rig) SetMouthOverride(level float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mouthOverride = clamp(level, 0, 1)
}

// State returns a snapshot of the engine state.
func (r *Rig) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := State{
		Mode:          r.machine.Mode(),
		LastTriggerID: r.machine.LastTriggerID(),
		IdlePaused:    r.idle.Paused(),
		MouthOverride: r.mouthOverride,
		Attached:      r.target != nil,
	}
	if e, ok := r.machine.Active(); ok {
		s.Emotion = e.Name
	}
	return s
}

// LastFrame returns the most recently composed frame.
func (r *Rig) LastFrame() Vector {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFrame
}

// Tick composes the frame for now and applies it to the attached target.
// now must come from the rig's clock and never decrease.
func (r *Rig) Tick(now time.Duration) Vector {
	r.mu.Lock()
	r.machine.Advance(now)
	r.pointer.Update(now)

	layers := Layers{
		Baseline:      r.baseline,
		Idle:          r.idle.Update(now),
		Mode:          r.machine.Mode(),
		Pointer:       r.pointer,
		Transition:    r.animator.Update(now),
		MouthOverride: r.mouthOverride,
	}
	if held, ok := r.machine.HeldTarget(); ok {
		layers.Held = held
	}
	frame := Compose(layers)
	r.lastFrame = frame

	target := r.target
	observers := r.observers
	r.mu.Unlock()

	applied := false
	if target != nil {
		if err := target.Apply(frame); err != nil {
			r.logger.Warn().Err(err).Msg("Frame apply failed")
		} else {
			applied = true
		}
	}
	for _, o := range observers {
		o.FrameComposed(r.id, applied)
	}
	return frame
}

// pose composes the frame at now without lip-sync or retiring transitions.
// The caller holds r.mu.
func (r *Rig) pose(now time.Duration) Vector {
	r.pointer.Update(now)
	layers := Layers{
		Baseline:   r.baseline,
		Idle:       r.idle.Update(now),
		Mode:       r.machine.Mode(),
		Pointer:    r.pointer,
		Transition: r.animator.Snapshot(now),
	}
	if held, ok := r.machine.HeldTarget(); ok {
		layers.Held = held
	}
	return Compose(layers)
}

func (r *Rig) scheduleRevert(d time.Duration, id uint64) {
	r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.machine.Revert(r.clock.Now(), id)
	})
}

func (r *Rig) notifyModeChange(from, to Mode, emotion string) {
	if to == ModeIdle {
		r.pointer.FadeIn(r.clock.Now(), r.machine.RevertDuration())
	}
	for _, o := range r.observers {
		o.ModeChanged(r.id, from, to, emotion)
	}
}

func (r *Rig) notifyStale(id uint64) {
	for _, o := range r.observers {
		o.StaleReversion(r.id, id)
	}
}

type noEmotions struct{}

func (noEmotions) Lookup(string) (Emotion, bool) {
	return Emotion{}, false
}
