package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second/60, cfg.TickInterval())
	assert.Equal(t, 350*time.Millisecond, cfg.Rig.RevertDuration)
	assert.Equal(t, 0.5, cfg.Rig.PointerWeight)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rig.TickRate = 0
	cfg.Rig.PointerWeight = -1
	cfg.Target.Path = "rig"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rig.tick_rate")
	assert.Contains(t, err.Error(), "rig.pointer_weight")
	assert.Contains(t, err.Error(), "target.path")
}

func TestLoaderWithoutFile(t *testing.T) {
	l, err := NewLoader(t.TempDir())
	require.NoError(t, err)

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "", l.File())
	assert.Equal(t, DefaultConfig().Target.Listen, cfg.Target.Listen)
}

func TestLoaderReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
rig:
  tick_rate: 30
  revert_duration: 500ms
idle:
  blink_min: 3s
  blink_max: 5s
target:
  listen: 0.0.0.0:9000
  ids:
    mouthOpen: ParamMouthOpen
log:
  level: debug
`), 0644))

	l, err := NewLoader(dir)
	require.NoError(t, err)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.yaml"), l.File())
	assert.Equal(t, 30, cfg.Rig.TickRate)
	assert.Equal(t, 500*time.Millisecond, cfg.Rig.RevertDuration)
	assert.Equal(t, 3*time.Second, cfg.Idle.BlinkMin)
	assert.Equal(t, DefaultConfig().Idle.BreathPeriod, cfg.Idle.BreathPeriod)
	assert.Equal(t, "0.0.0.0:9000", cfg.Target.Listen)
	assert.Equal(t, "/rig", cfg.Target.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	// viper lowercases map keys
	assert.Equal(t, "ParamMouthOpen", cfg.Target.IDs["mouthopen"])
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("CORTEXRIG_TARGET_LISTEN", "127.0.0.1:7000")
	t.Setenv("CORTEXRIG_RIG_TICK_RATE", "120")

	l, err := NewLoader(t.TempDir())
	require.NoError(t, err)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Target.Listen)
	assert.Equal(t, 120, cfg.Rig.TickRate)
}

func TestLoaderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("rig:\n  tick_rate: -5\n"), 0644))

	l, err := NewLoader(dir)
	require.NoError(t, err)
	_, err = l.Load()
	assert.Error(t, err)
}
