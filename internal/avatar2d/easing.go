package avatar2d

import (
	"fmt"
	"math"
)

// EasingFunc shapes normalized time. Inputs and outputs are in [0,1];
// monotonicity is expected but not enforced.
type EasingFunc func(t float64) float64

func Linear(t float64) float64 {
	return t
}

func EaseInQuad(t float64) float64 {
	return t * t
}

func EaseOutQuad(t float64) float64 {
	return t * (2 - t)
}

func EaseInCubic(t float64) float64 {
	return t * t * t
}

func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Spring overshoots slightly before settling. It is not monotonic.
func Spring(t float64) float64 {
	const damping, frequency = 0.3, 8.0
	if t >= 1 {
		return 1
	}
	decay := math.Exp(-damping * t * frequency)
	oscillation := math.Cos(frequency * t * (1 - damping))
	return 1 - decay*oscillation
}

var easings = map[string]EasingFunc{
	"linear":         Linear,
	"easeInQuad":     EaseInQuad,
	"easeOutQuad":    EaseOutQuad,
	"easeInCubic":    EaseInCubic,
	"easeOutCubic":   EaseOutCubic,
	"easeInOutCubic": EaseInOutCubic,
	"spring":         Spring,
}

// EasingByName resolves an easing from config. Empty selects EaseOutCubic.
func EasingByName(name string) (EasingFunc, error) {
	if name == "" {
		return EaseOutCubic, nil
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}
