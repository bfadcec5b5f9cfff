// Package metrics exposes rig activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var modes = []avatar2d.Mode{avatar2d.ModeIdle, avatar2d.ModeTransitioning, avatar2d.ModeHeld, avatar2d.ModeReverting}

// Metrics implements avatar2d.Observer.
type Metrics struct {
	FramesComposed  *prometheus.CounterVec
	Triggers        *prometheus.CounterVec
	StaleReversions prometheus.Counter
	DroppedParams   *prometheus.CounterVec
	Mode            *prometheus.GaugeVec
	TickDuration    prometheus.Histogram
}

// New registers the rig metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		FramesComposed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cortexrig_frames_total",
				Help: "Total number of composed frames, by whether a target received them",
			},
			[]string{"applied"},
		),
		Triggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cortexrig_emotion_triggers_total",
				Help: "Total number of accepted emotion triggers",
			},
			[]string{"emotion"},
		),
		StaleReversions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cortexrig_stale_reversions_total",
				Help: "Reversion timers discarded because a newer trigger superseded them",
			},
		),
		DroppedParams: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cortexrig_dropped_parameters_total",
				Help: "Parameter writes rejected by the render target",
			},
			[]string{"id"},
		),
		Mode: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cortexrig_mode",
				Help: "1 for the rig's current emotion mode, 0 otherwise",
			},
			[]string{"mode"},
		),
		TickDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cortexrig_tick_duration_seconds",
				Help:    "Time spent composing and applying one frame",
				Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
			},
		),
	}
	m.setMode(avatar2d.ModeIdle)
	return m
}

func (m *Metrics) FrameComposed(_ string, applied bool) {
	m.FramesComposed.WithLabelValues(strconv.FormatBool(applied)).Inc()
}

func (m *Metrics) ModeChanged(_ string, _, to avatar2d.Mode, _ string) {
	m.setMode(to)
}

func (m *Metrics) Triggered(_ string, emotion string, _ uint64) {
	m.Triggers.WithLabelValues(emotion).Inc()
}

func (m *Metrics) StaleReversion(string, uint64) {
	m.StaleReversions.Inc()
}

// ParamDropped matches target.Adapter's drop callback.
func (m *Metrics) ParamDropped(id string) {
	m.DroppedParams.WithLabelValues(id).Inc()
}

// ObserveTick matches driver.Driver's tick observer.
func (m *Metrics) ObserveTick(d time.Duration) {
	m.TickDuration.Observe(d.Seconds())
}

func (m *Metrics) setMode(current avatar2d.Mode) {
	for _, mode := range modes {
		v := 0.0
		if mode == current {
			v = 1
		}
		m.Mode.WithLabelValues(mode.String()).Set(v)
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
