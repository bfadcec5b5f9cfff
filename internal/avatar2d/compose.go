package avatar2d

// Layers is everything one frame is built from, in priority order.
type Layers struct {
	Baseline   Vector
	Idle       Vector
	Mode       Mode
	Pointer    *PointerBlender
	Transition Vector
	// Held is reasserted only when Mode is ModeHeld.
	Held          Vector
	MouthOverride float64
}

// Compose layers a frame. Later layers win on shared keys:
//
//  1. baseline (total)
//  2. idle, overwrite
//  3. transition animator, overwrite; idle's deviation from baseline rides
//     on top so a returning key lands on the live idle value
//  4. pointer, additive on head angles, Idle mode only
//  5. held emotion target, overwrite
//  6. mouth override, overwrites MouthOpen when non-zero
func Compose(l Layers) Vector {
	frame := Baseline()
	frame.Overlay(l.Baseline)
	base := frame

	frame.Overlay(l.Idle)

	for _, p := range l.Transition.Keys() {
		v := l.Transition.Get(p)
		if idle, ok := l.Idle.Lookup(p); ok {
			v += idle - base.Get(p)
		}
		frame.Set(p, v)
	}

	if l.Pointer != nil {
		l.Pointer.Contribute(&frame, l.Mode)
	}

	if l.Mode == ModeHeld {
		frame.Overlay(l.Held)
	}

	if l.MouthOverride > 0 {
		frame.Set(MouthOpen, l.MouthOverride)
	}

	return frame
}
