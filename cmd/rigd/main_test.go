package main

import (
	"testing"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/normanking/cortexrig/internal/catalog"
	"github.com/normanking/cortexrig/internal/clock"
	"github.com/normanking/cortexrig/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRigTakesZeroLiterally(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rig.PointerWeight = 0
	cfg.Rig.RevertDuration = 0

	clk := clock.NewManual()
	rig := newRig(cfg, avatar2d.Options{
		Clock:    clk,
		Emotions: catalog.Default(),
		Idle:     avatar2d.StillIdleConfig(),
		Logger:   zerolog.Nop(),
	})

	var offset avatar2d.Vector
	offset.Set(avatar2d.HeadAngleX, 20)
	rig.SetPointerOffset(offset)
	f := rig.Tick(clk.Now())
	assert.Equal(t, 0.0, f.Get(avatar2d.HeadAngleX))

	_, err := rig.Trigger("happy")
	require.NoError(t, err)
	clk.Set(200 * time.Millisecond)
	rig.Tick(clk.Now())
	require.Equal(t, avatar2d.ModeHeld, rig.State().Mode)

	clk.Set(1700 * time.Millisecond)
	f = rig.Tick(clk.Now())
	assert.Equal(t, avatar2d.ModeIdle, rig.State().Mode)
	assert.Equal(t, 0.0, f.Get(avatar2d.MouthForm), "reverted without easing")
}
