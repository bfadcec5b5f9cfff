package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the value of the sample of family name whose labels include
// all of labels.
func value(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
					}
				}
				if !found {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("no sample %s %v", name, labels)
	return 0
}

func TestObserverCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Triggered("rig", "happy", 1)
	m.Triggered("rig", "happy", 2)
	m.Triggered("rig", "sad", 3)
	m.StaleReversion("rig", 1)
	m.FrameComposed("rig", true)
	m.FrameComposed("rig", false)
	m.FrameComposed("rig", false)
	m.ParamDropped("ParamBreath")
	m.ObserveTick(200 * time.Microsecond)

	assert.Equal(t, 2.0, value(t, reg, "cortexrig_emotion_triggers_total", map[string]string{"emotion": "happy"}))
	assert.Equal(t, 1.0, value(t, reg, "cortexrig_emotion_triggers_total", map[string]string{"emotion": "sad"}))
	assert.Equal(t, 1.0, value(t, reg, "cortexrig_stale_reversions_total", nil))
	assert.Equal(t, 2.0, value(t, reg, "cortexrig_frames_total", map[string]string{"applied": "false"}))
	assert.Equal(t, 1.0, value(t, reg, "cortexrig_dropped_parameters_total", map[string]string{"id": "ParamBreath"}))
	assert.Equal(t, 1.0, value(t, reg, "cortexrig_tick_duration_seconds", nil))
}

func TestModeGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	assert.Equal(t, 1.0, value(t, reg, "cortexrig_mode", map[string]string{"mode": "idle"}))

	m.ModeChanged("rig", avatar2d.ModeIdle, avatar2d.ModeHeld, "happy")
	assert.Equal(t, 0.0, value(t, reg, "cortexrig_mode", map[string]string{"mode": "idle"}))
	assert.Equal(t, 1.0, value(t, reg, "cortexrig_mode", map[string]string{"mode": avatar2d.ModeHeld.String()}))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Triggered("rig", "think", 1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cortexrig_emotion_triggers_total{emotion="think"} 1`)
}
