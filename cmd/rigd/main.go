// Command rigd drives a parametric 2D avatar rig for a browser renderer.
package main

import (
	"fmt"
	"os"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/normanking/cortexrig/internal/catalog"
	"github.com/normanking/cortexrig/internal/config"
	"github.com/normanking/cortexrig/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set at build time)
var version = "dev"

type rootFlags struct {
	configDir string
	catalog   string
	logLevel  string
}

func main() {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "rigd",
		Short: "Pose engine for parametric 2D avatar rigs",
		Long: `rigd composes a complete pose for a Live2D-style rig every frame:
idle breathing, blinking and sway, pointer head tracking, emotion
expressions with automatic reversion, and lip-sync.

Use 'rigd [command] --help' for more information.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "directory holding config.yaml (default ~/.cortexrig)")
	rootCmd.PersistentFlags().StringVar(&flags.catalog, "catalog", "", "emotion catalog YAML layered over the built-ins")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newEmotionsCmd(flags),
		newSimulateCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(flags *rootFlags) (*config.Config, *config.Loader, error) {
	loader, err := config.NewLoader(flags.configDir)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if flags.catalog != "" {
		cfg.Catalog.Path = flags.catalog
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, loader, nil
}

// loadCatalog returns the built-in catalog, or the configured file on top
// of it.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog.Path)
}

// quietLogger is used by the one-shot commands: console only, and warnings
// and up unless --log-level asks for more.
// newRig builds a rig tuned by the rig section of cfg. A zero pointer weight
// or revert duration in the file is taken literally.
func newRig(cfg *config.Config, opts avatar2d.Options) *avatar2d.Rig {
	rig := avatar2d.NewRig(opts)
	rig.SetPointerWeight(cfg.Rig.PointerWeight)
	rig.SetRevertDuration(cfg.Rig.RevertDuration)
	return rig
}

func quietLogger(cfg *config.Config, flags *rootFlags) (*logging.Logger, error) {
	lc := cfg.Log
	lc.Dir = ""
	lc.Console = true
	lc.Output = os.Stderr
	if flags.logLevel == "" {
		if lvl, err := zerolog.ParseLevel(lc.Level); err != nil || lvl < zerolog.WarnLevel {
			lc.Level = "warn"
		}
	}
	return logging.New(lc)
}
