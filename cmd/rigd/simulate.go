package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/normanking/cortexrig/internal/clock"
	"github.com/normanking/cortexrig/internal/driver"
	"github.com/normanking/cortexrig/internal/target"
	"github.com/spf13/cobra"
)

// cue is one scripted input in a simulation timeline.
type cue struct {
	at      time.Duration
	emotion string
	mouth   float64
	isMouth bool
}

// parseTimeline reads "200ms:happy,1s:mouth=0.8,2s:sad".
func parseTimeline(s string) ([]cue, error) {
	var cues []cue
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		at, action, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("timeline entry %q: want <time>:<action>", item)
		}
		d, err := time.ParseDuration(at)
		if err != nil {
			return nil, fmt.Errorf("timeline entry %q: %w", item, err)
		}
		c := cue{at: d}
		if level, found := strings.CutPrefix(action, "mouth="); found {
			c.mouth, err = strconv.ParseFloat(level, 64)
			if err != nil {
				return nil, fmt.Errorf("timeline entry %q: %w", item, err)
			}
			c.isMouth = true
		} else {
			c.emotion = action
		}
		cues = append(cues, c)
	}
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].at < cues[j].at })
	return cues, nil
}

type simFrame struct {
	T       int64              `json:"t_ms"`
	Mode    string             `json:"mode"`
	Emotion string             `json:"emotion,omitempty"`
	Params  map[string]float64 `json:"params"`
}

func newSimulateCmd(flags *rootFlags) *cobra.Command {
	var (
		timeline string
		duration time.Duration
		fps      int
		every    time.Duration
		still    bool
		seed     int64
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted timeline headlessly and print the composed frames",
		Example: `  rigd simulate --timeline 0s:happy --duration 2.5s --every 100ms
  rigd simulate --timeline 0s:think,1s:mouth=0.8,1.5s:mouth=0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log, err := quietLogger(cfg, flags)
			if err != nil {
				return err
			}
			defer log.Close()

			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			cues, err := parseTimeline(timeline)
			if err != nil {
				return err
			}
			if fps <= 0 {
				fps = cfg.Rig.TickRate
			}

			idle := cfg.Idle
			if still {
				idle = avatar2d.StillIdleConfig()
			}

			clk := clock.NewManual()
			rig := newRig(cfg, avatar2d.Options{
				Clock:    clk,
				Emotions: cat,
				Idle:     idle,
				Rand:     rand.New(rand.NewSource(seed)),
				Logger:   log.Zerolog(),
			})

			ids, err := target.CubismIDs().WithOverrides(cfg.Target.IDs)
			if err != nil {
				return err
			}
			rig.Attach(target.NewAdapter(target.NewRecorder(nil, 0), ids, log.Zerolog()))

			drv := driver.New(rig, time.Second/time.Duration(fps), log.Zerolog())
			drv.AddHook(func(now time.Duration) {
				for len(cues) > 0 && cues[0].at <= now {
					c := cues[0]
					cues = cues[1:]
					if c.isMouth {
						rig.SetMouthOverride(c.mouth)
						continue
					}
					// Unknown emotions are logged and skipped.
					_, _ = rig.Trigger(c.emotion)
				}
			})

			var frames []simFrame
			nextEmit := time.Duration(0)
			for clk.Now() <= duration {
				frame := drv.Step()
				if now := clk.Now(); now >= nextEmit {
					st := rig.State()
					frames = append(frames, simFrame{
						T:       now.Milliseconds(),
						Mode:    st.Mode.String(),
						Emotion: st.Emotion,
						Params:  frame.Map(),
					})
					nextEmit += every
				}
				clk.Advance(drv.Interval())
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(frames)
			}
			return printFrames(cmd.OutOrStdout(), frames)
		},
	}

	cmd.Flags().StringVar(&timeline, "timeline", "0s:happy", "comma-separated <time>:<emotion> or <time>:mouth=<level> cues")
	cmd.Flags().DurationVar(&duration, "duration", 3*time.Second, "simulated time to run")
	cmd.Flags().IntVar(&fps, "fps", 0, "frames per second (default rig.tick_rate)")
	cmd.Flags().DurationVar(&every, "every", 100*time.Millisecond, "print a frame at this interval")
	cmd.Flags().BoolVar(&still, "still", false, "disable idle motion so only emotions move the rig")
	cmd.Flags().Int64Var(&seed, "seed", 1, "blink schedule seed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print frames as JSON")
	return cmd
}

func printFrames(out io.Writer, frames []simFrame) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := []string{"t(ms)", "mode"}
	header = append(header, avatar2d.ParamNames[:]...)
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")

	for _, f := range frames {
		row := []string{strconv.FormatInt(f.T, 10), f.Mode}
		for _, name := range avatar2d.ParamNames {
			row = append(row, strconv.FormatFloat(f.Params[name], 'f', 3, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	return w.Flush()
}
