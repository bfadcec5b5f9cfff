package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/normanking/cortexrig/internal/bus"
	"github.com/normanking/cortexrig/internal/catalog"
	"github.com/normanking/cortexrig/internal/config"
	"github.com/normanking/cortexrig/internal/driver"
	"github.com/normanking/cortexrig/internal/lipsync"
	"github.com/normanking/cortexrig/internal/logging"
	"github.com/normanking/cortexrig/internal/metrics"
	"github.com/normanking/cortexrig/internal/pointer"
	"github.com/normanking/cortexrig/internal/target"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var audioPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Drive a rig for websocket renderers",
		Long: `serve runs the frame loop and broadcasts every frame to renderers
connected on the websocket endpoint. Renderers may send trigger, pointer
and mouth messages back; the first connection attaches the rig and the
last disconnect detaches it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loader, err := loadConfig(flags)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, loader, log, audioPath)
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "WAV file whose energy drives the mouth once a renderer attaches")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, loader *config.Loader, log *logging.Logger, audioPath string) error {
	logger := log.Component("rigd")
	if file := loader.File(); file != "" {
		logger.Info().Str("file", file).Msg("Loaded configuration")
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	eventBus := bus.NewEventBus()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	rig := newRig(cfg, avatar2d.Options{
		Emotions: cat,
		Idle:     cfg.Idle,
		Logger:   log.Zerolog(),
	})
	rig.AddObserver(m)
	rig.AddObserver(avatar2d.NewEventPublisher(eventBus))
	rig.Subscribe(eventBus)

	ids, err := target.CubismIDs().WithOverrides(cfg.Target.IDs)
	if err != nil {
		return err
	}
	ws := target.NewWSServer(eventBus, log.Zerolog())
	adapter := target.NewAdapter(ws, ids, log.Zerolog())
	adapter.SetDropCallback(m.ParamDropped)

	drv := driver.New(rig, cfg.TickInterval(), log.Zerolog())
	drv.SetTickObserver(m.ObserveTick)

	smoother := pointer.New(pointer.Config(cfg.Pointer), cfg.Rig.TickRate)
	smoother.Subscribe(eventBus)
	drv.AddHook(func(time.Duration) {
		rig.SetPointerOffset(smoother.Step())
	})

	if audioPath != "" {
		player, err := lipsync.OpenWAV(audioPath, lipsync.Config(cfg.LipSync))
		if err != nil {
			return err
		}
		defer player.Close()
		drv.AddHook(audioHook(rig, player))
	}

	ws.SetConnectionCallbacks(
		func() { rig.Attach(adapter) },
		func() {
			rig.Detach()
			smoother.Center()
		},
	)

	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		w := catalog.NewWatcher(cat, cfg.Catalog.Path, log.Zerolog())
		w.SetReloadCallback(func(names []string) {
			eventBus.Publish(bus.Event{
				Type: bus.EventTypeCatalogReloaded,
				Data: map[string]any{"emotions": names},
			})
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("Catalog watcher stopped")
			}
		}()
	}

	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			logger.Warn().Err(err).Msg("Ignoring invalid configuration change")
			return
		}
		rig.SetPointerWeight(next.Rig.PointerWeight)
		rig.SetRevertDuration(next.Rig.RevertDuration)
		logger.Info().
			Float64("pointer_weight", next.Rig.PointerWeight).
			Dur("revert_duration", next.Rig.RevertDuration).
			Msg("Configuration reloaded")
	})

	eventBus.Subscribe(bus.EventTypeModeChanged, func(e bus.Event) {
		logger.Debug().
			Str("from", e.String("from")).
			Str("to", e.String("to")).
			Str("emotion", e.String("emotion")).
			Msg("Mode changed")
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.Target.Path, ws)
	mux.HandleFunc("/debug/logs", logsHandler(log))
	mux.HandleFunc("/debug/state", stateHandler(rig))

	servers := []*http.Server{{Addr: cfg.Target.Listen, Handler: mux}}
	if cfg.Metrics.Enabled {
		mm := http.NewServeMux()
		mm.Handle("/metrics", metrics.Handler(reg))
		servers = append(servers, &http.Server{Addr: cfg.Metrics.Listen, Handler: mm})
	}

	errCh := make(chan error, len(servers)+1)
	for _, srv := range servers {
		srv := srv
		go func() {
			logger.Info().Str("addr", srv.Addr).Msg("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}()
	}

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	go func() {
		if err := drv.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	logger.Info().
		Str("rig", rig.ID()).
		Int("emotions", cat.Len()).
		Str("ws", cfg.Target.Listen+cfg.Target.Path).
		Msg("rigd started")

	select {
	case <-ctx.Done():
		err = nil
	case err = <-errCh:
	}

	cancelLoop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn().Err(serr).Str("addr", srv.Addr).Msg("Shutdown failed")
		}
	}
	rig.Detach()
	return err
}

// audioHook plays the lip-sync track once a renderer is attached and
// releases the mouth when it ends.
func audioHook(rig *avatar2d.Rig, player *lipsync.Player) driver.Hook {
	finished := false
	return func(now time.Duration) {
		if finished || !rig.State().Attached {
			return
		}
		level, done := player.Advance(now)
		rig.SetMouthOverride(level)
		finished = done
	}
}

func logsHandler(log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		writeJSON(w, log.History(limit))
	}
}

func stateHandler(rig *avatar2d.Rig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := rig.State()
		frame := rig.LastFrame()
		writeJSON(w, map[string]any{
			"rig":             rig.ID(),
			"mode":            st.Mode.String(),
			"emotion":         st.Emotion,
			"last_trigger_id": st.LastTriggerID,
			"idle_paused":     st.IdlePaused,
			"mouth_override":  st.MouthOverride,
			"attached":        st.Attached,
			"frame":           frame.Map(),
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
