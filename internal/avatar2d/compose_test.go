package avatar2d

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func headOffset(x, y, z float64) Vector {
	var v Vector
	v.Set(HeadAngleX, x)
	v.Set(HeadAngleY, y)
	v.Set(HeadAngleZ, z)
	return v
}

func TestPointerBlenderIdleOnly(t *testing.T) {
	b := NewPointerBlender(DefaultPointerWeight)
	b.SetOffset(headOffset(10, -4, 2))

	idle := Baseline()
	b.Contribute(&idle, ModeIdle)
	assert.Equal(t, 5.0, idle.Get(HeadAngleX))
	assert.Equal(t, -2.0, idle.Get(HeadAngleY))
	assert.Equal(t, 1.0, idle.Get(HeadAngleZ))

	for _, mode := range []Mode{ModeTransitioning, ModeHeld, ModeReverting} {
		frame := Baseline()
		b.Contribute(&frame, mode)
		assert.True(t, frame.Equal(Baseline()), mode.String())
	}
}

func TestPointerBlenderIgnoresOtherKeys(t *testing.T) {
	b := NewPointerBlender(1)
	offset := headOffset(1, 1, 1)
	offset.Set(MouthOpen, 1)
	b.SetOffset(offset)

	got := b.Offset()
	assert.False(t, got.Has(MouthOpen))
	assert.Equal(t, 3, got.Len())

	b.SetOffset(Vector{})
	frame := Baseline()
	b.Contribute(&frame, ModeIdle)
	assert.True(t, frame.Equal(Baseline()))
}

func TestComposeOrder(t *testing.T) {
	var idle Vector
	idle.Set(Breath, 0.5)
	idle.Set(EyeLOpen, 0.2)

	var transition Vector
	transition.Set(EyeLOpen, 0.9)

	var held Vector
	held.Set(MouthForm, 0.4)

	pointer := NewPointerBlender(0.5)
	pointer.SetOffset(headOffset(10, 0, 0))

	frame := Compose(Layers{
		Baseline:   Baseline(),
		Idle:       idle,
		Mode:       ModeIdle,
		Pointer:    pointer,
		Transition: transition,
		Held:       held,
	})

	assert.True(t, frame.IsTotal())
	assert.Equal(t, 0.5, frame.Get(Breath))
	assert.InDelta(t, 0.1, frame.Get(EyeLOpen), 1e-9, "idle deviation rides on the transition")
	assert.Equal(t, 5.0, frame.Get(HeadAngleX))
	assert.Equal(t, 0.0, frame.Get(MouthForm), "held target only applies in Held")

	frame = Compose(Layers{Baseline: Baseline(), Mode: ModeHeld, Pointer: pointer, Held: held})
	assert.Equal(t, 0.4, frame.Get(MouthForm))
	assert.Equal(t, 0.0, frame.Get(HeadAngleX))
}

func TestComposePointerAddsOverTransition(t *testing.T) {
	pointer := NewPointerBlender(1)
	pointer.SetOffset(headOffset(4, 0, 0))

	var transition Vector
	transition.Set(HeadAngleX, 6)

	frame := Compose(Layers{Baseline: Baseline(), Mode: ModeIdle, Pointer: pointer, Transition: transition})
	assert.Equal(t, 10.0, frame.Get(HeadAngleX))
}

func TestPointerBlenderFadeIn(t *testing.T) {
	b := NewPointerBlender(1)
	b.SetOffset(headOffset(10, 0, 0))
	b.FadeIn(time.Second, 400*time.Millisecond)

	frame := Baseline()
	b.Contribute(&frame, ModeIdle)
	assert.Equal(t, 0.0, frame.Get(HeadAngleX))

	b.Update(1200 * time.Millisecond)
	frame = Baseline()
	b.Contribute(&frame, ModeIdle)
	assert.InDelta(t, 5.0, frame.Get(HeadAngleX), 1e-9)

	b.Update(2 * time.Second)
	frame = Baseline()
	b.Contribute(&frame, ModeIdle)
	assert.Equal(t, 10.0, frame.Get(HeadAngleX))

	b.FadeIn(3*time.Second, 0)
	frame = Baseline()
	b.Contribute(&frame, ModeIdle)
	assert.Equal(t, 10.0, frame.Get(HeadAngleX))
}

func TestComposeMouthOverride(t *testing.T) {
	var held Vector
	held.Set(MouthOpen, 0.6)

	frame := Compose(Layers{Baseline: Baseline(), Mode: ModeHeld, Held: held, MouthOverride: 0.8})
	assert.Equal(t, 0.8, frame.Get(MouthOpen))

	frame = Compose(Layers{Baseline: Baseline(), Mode: ModeHeld, Held: held})
	assert.Equal(t, 0.6, frame.Get(MouthOpen))
}
