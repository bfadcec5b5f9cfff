package avatar2d

import "time"

// DefaultPointerWeight attenuates the pointer offset before it is added.
const DefaultPointerWeight = 0.5

var headAxes = [...]Param{HeadAngleX, HeadAngleY, HeadAngleZ}

// PointerBlender adds an externally smoothed head-rotation offset on top of
// the layers below it. It never contributes while an emotion is active.
type PointerBlender struct {
	weight float64
	offset Vector

	// gain ramps the offset back in after an expression hands the head
	// back to idle.
	gain      float64
	fadeStart time.Duration
	fadeLen   time.Duration
}

func NewPointerBlender(weight float64) *PointerBlender {
	if weight < 0 {
		weight = 0
	}
	return &PointerBlender{weight: weight, gain: 1}
}

// FadeIn restarts the offset from zero at now, reaching full weight after d.
func (b *PointerBlender) FadeIn(now, d time.Duration) {
	if d <= 0 {
		b.gain, b.fadeLen = 1, 0
		return
	}
	b.gain, b.fadeStart, b.fadeLen = 0, now, d
}

// Update advances a running fade to now.
func (b *PointerBlender) Update(now time.Duration) {
	if b.fadeLen <= 0 {
		return
	}
	t := clamp(float64(now-b.fadeStart)/float64(b.fadeLen), 0, 1)
	b.gain = EaseInOutCubic(t)
	if t >= 1 {
		b.gain, b.fadeLen = 1, 0
	}
}

// SetOffset replaces the current offset. Keys other than the head angles
// are ignored; an empty vector means no offset.
func (b *PointerBlender) SetOffset(offset Vector) {
	var v Vector
	for _, p := range headAxes {
		if value, ok := offset.Lookup(p); ok {
			v.Set(p, value)
		}
	}
	b.offset = v
}

func (b *PointerBlender) Offset() Vector {
	return b.offset
}

func (b *PointerBlender) Weight() float64 {
	return b.weight
}

// SetWeight changes the attenuation; negative weights are treated as 0.
func (b *PointerBlender) SetWeight(weight float64) {
	if weight < 0 {
		weight = 0
	}
	b.weight = weight
}

// Contribute adds the attenuated offset onto base when mode is ModeIdle.
func (b *PointerBlender) Contribute(base *Vector, mode Mode) {
	if mode != ModeIdle {
		return
	}
	base.AddScaled(b.offset, b.weight*b.gain)
}
