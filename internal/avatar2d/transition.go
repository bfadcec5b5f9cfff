package avatar2d

import "time"

// Transition is one in-flight interpolation of a single parameter.
type Transition struct {
	From     float64
	To       float64
	Start    time.Duration
	Duration time.Duration
	Easing   EasingFunc
}

// progress returns the eased position at now and whether the transition has
// reached its target.
func (t *Transition) progress(now time.Duration) (float64, bool) {
	if t.Duration <= 0 {
		return 1, true
	}
	raw := clamp(float64(now-t.Start)/float64(t.Duration), 0, 1)
	if raw >= 1 {
		return 1, true
	}
	return t.Easing(raw), false
}

// Interpolate returns the value at now. A finished transition returns To
// exactly.
func (t *Transition) Interpolate(now time.Duration) float64 {
	p, done := t.progress(now)
	if done {
		return t.To
	}
	return lerp(t.From, t.To, p)
}

func (t *Transition) IsComplete(now time.Duration) bool {
	_, done := t.progress(now)
	return done
}

// TransitionAnimator interpolates individual parameters toward targets and
// can be retargeted mid-flight without discontinuity. It is not safe for
// concurrent use; the owning Rig serializes access.
type TransitionAnimator struct {
	current Vector
	active  [ParamCount]*Transition
}

// NewTransitionAnimator creates an animator whose resting values are
// initial. Keys missing from initial rest at zero.
func NewTransitionAnimator(initial Vector) *TransitionAnimator {
	a := &TransitionAnimator{}
	for p := Param(0); p < ParamCount; p++ {
		a.current.Set(p, initial.Get(p))
	}
	return a
}

// AnimateTo starts a transition for every key in target. Each starts from
// the animator's own blended value at now, so retargeting never pops.
func (a *TransitionAnimator) AnimateTo(now time.Duration, target Vector, duration time.Duration, easing EasingFunc) {
	if easing == nil {
		easing = Linear
	}
	for _, p := range target.Keys() {
		a.active[p] = &Transition{
			From:     a.Value(p, now),
			To:       target.Get(p),
			Start:    now,
			Duration: duration,
			Easing:   easing,
		}
	}
}

// Value returns the animator's blended value for p at now without
// advancing any state.
func (a *TransitionAnimator) Value(p Param, now time.Duration) float64 {
	if tr := a.active[p]; tr != nil {
		return tr.Interpolate(now)
	}
	return a.current.Get(p)
}

// Update evaluates every active transition at now. Finished transitions are
// emitted one last time at their exact target and then retired.
func (a *TransitionAnimator) Update(now time.Duration) Vector {
	var out Vector
	for p := Param(0); p < ParamCount; p++ {
		tr := a.active[p]
		if tr == nil {
			continue
		}
		v := tr.Interpolate(now)
		out.Set(p, v)
		a.current.Set(p, v)
		if tr.IsComplete(now) {
			a.active[p] = nil
		}
	}
	return out
}

// Snapshot returns the in-flight keys at now, like Update, but retires
// nothing.
func (a *TransitionAnimator) Snapshot(now time.Duration) Vector {
	var out Vector
	for p := Param(0); p < ParamCount; p++ {
		if tr := a.active[p]; tr != nil {
			out.Set(p, tr.Interpolate(now))
		}
	}
	return out
}

// Active reports whether any transition is in flight.
func (a *TransitionAnimator) Active() bool {
	for _, tr := range a.active {
		if tr != nil {
			return true
		}
	}
	return false
}

// IsAnimating reports whether p has an in-flight transition.
func (a *TransitionAnimator) IsAnimating(p Param) bool {
	return a.active[p] != nil
}

// Reset drops all transitions and rests every key at values.
func (a *TransitionAnimator) Reset(values Vector) {
	for p := Param(0); p < ParamCount; p++ {
		a.active[p] = nil
		a.current.Set(p, values.Get(p))
	}
}
