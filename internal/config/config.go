// Package config provides configuration management for cortexrig
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/normanking/cortexrig/internal/logging"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Rig     RigConfig           `mapstructure:"rig"`
	Idle    avatar2d.IdleConfig `mapstructure:"idle"`
	Pointer PointerConfig       `mapstructure:"pointer"`
	LipSync LipSyncConfig       `mapstructure:"lipsync"`
	Catalog CatalogConfig       `mapstructure:"catalog"`
	Target  TargetConfig        `mapstructure:"target"`
	Metrics MetricsConfig       `mapstructure:"metrics"`
	Log     logging.Config      `mapstructure:"log"`
}

// RigConfig configures the frame loop and emotion timing
type RigConfig struct {
	TickRate       int           `mapstructure:"tick_rate"` // frames per second
	PointerWeight  float64       `mapstructure:"pointer_weight"`
	RevertDuration time.Duration `mapstructure:"revert_duration"`
}

// PointerConfig tunes the pointer smoother
type PointerConfig struct {
	Frequency float64 `mapstructure:"frequency"` // spring angular frequency
	Damping   float64 `mapstructure:"damping"`
	MaxYaw    float64 `mapstructure:"max_yaw"`   // headAngleX at the screen edge
	MaxPitch  float64 `mapstructure:"max_pitch"` // headAngleY at the screen edge
	MaxRoll   float64 `mapstructure:"max_roll"`
}

// LipSyncConfig tunes the audio envelope follower
type LipSyncConfig struct {
	Attack  time.Duration `mapstructure:"attack"`
	Release time.Duration `mapstructure:"release"`
	Gain    float64       `mapstructure:"gain"`
	Floor   float64       `mapstructure:"floor"` // RMS below this is silence
}

// CatalogConfig points at an optional emotion catalog file
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// TargetConfig configures the websocket render target
type TargetConfig struct {
	Listen string            `mapstructure:"listen"`
	Path   string            `mapstructure:"path"`
	IDs    map[string]string `mapstructure:"ids"` // engine name -> renderer id
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Rig: RigConfig{
			TickRate:       60,
			PointerWeight:  avatar2d.DefaultPointerWeight,
			RevertDuration: avatar2d.DefaultRevertDuration,
		},
		Idle: avatar2d.DefaultIdleConfig(),
		Pointer: PointerConfig{
			Frequency: 6.0,
			Damping:   1.0,
			MaxYaw:    30,
			MaxPitch:  20,
			MaxRoll:   0,
		},
		LipSync: LipSyncConfig{
			Attack:  20 * time.Millisecond,
			Release: 120 * time.Millisecond,
			Gain:    4.0,
			Floor:   0.01,
		},
		Target: TargetConfig{
			Listen: "127.0.0.1:8765",
			Path:   "/rig",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Listen:  "127.0.0.1:9108",
		},
		Log: logging.DefaultConfig(),
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Rig.TickRate <= 0 || c.Rig.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("rig.tick_rate must be in (0, 1000], got %d", c.Rig.TickRate))
	}
	if c.Rig.PointerWeight < 0 {
		errs = append(errs, fmt.Errorf("rig.pointer_weight must not be negative"))
	}
	if c.Rig.RevertDuration < 0 {
		errs = append(errs, fmt.Errorf("rig.revert_duration must not be negative"))
	}
	if c.Idle.BlinkMax < c.Idle.BlinkMin {
		errs = append(errs, fmt.Errorf("idle.blink_max (%s) is below idle.blink_min (%s)", c.Idle.BlinkMax, c.Idle.BlinkMin))
	}
	if c.Target.Path == "" || !strings.HasPrefix(c.Target.Path, "/") {
		errs = append(errs, fmt.Errorf("target.path must start with /"))
	}
	return errors.Join(errs...)
}

// TickInterval is the frame period implied by Rig.TickRate.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Rig.TickRate)
}

// Loader reads configuration from a directory and the environment.
type Loader struct {
	v   *viper.Viper
	dir string
}

// NewLoader looks for config.yaml in dir, then the working directory.
// An empty dir selects ~/.cortexrig.
func NewLoader(dir string) (*Loader, error) {
	if dir == "" {
		var err error
		dir, err = GetConfigDir()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	// Environment variable overrides, e.g. CORTEXRIG_TARGET_LISTEN
	v.SetEnvPrefix("CORTEXRIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	def := DefaultConfig()
	v.SetDefault("rig.tick_rate", def.Rig.TickRate)
	v.SetDefault("rig.pointer_weight", def.Rig.PointerWeight)
	v.SetDefault("catalog.path", def.Catalog.Path)
	v.SetDefault("catalog.watch", def.Catalog.Watch)
	v.SetDefault("target.listen", def.Target.Listen)
	v.SetDefault("target.path", def.Target.Path)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.listen", def.Metrics.Listen)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.dir", def.Log.Dir)

	return &Loader{v: v, dir: dir}, nil
}

// Load reads the config file if there is one and applies it on top of the
// defaults. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return l.decode()
}

// File returns the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch calls fn with the re-read configuration each time the file
// changes. It does nothing when no file was loaded.
func (l *Loader) Watch(fn func(*Config, error)) {
	if l.File() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		fn(l.decode())
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".cortexrig"), nil
}
