package driver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/normanking/cortexrig/internal/avatar2d"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRig struct {
	mu    sync.Mutex
	now   time.Duration
	ticks []time.Duration
}

func (f *fakeRig) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeRig) Tick(now time.Duration) avatar2d.Vector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks = append(f.ticks, now)
	f.now += 10 * time.Millisecond
	return avatar2d.Baseline()
}

func (f *fakeRig) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ticks)
}

func TestStepRunsHooksBeforeTick(t *testing.T) {
	rig := &fakeRig{now: 40 * time.Millisecond}
	d := New(rig, 0, zerolog.Nop())
	assert.Equal(t, time.Second/60, d.Interval())

	var hooked []time.Duration
	d.AddHook(func(now time.Duration) {
		hooked = append(hooked, now)
		assert.Equal(t, len(hooked)-1, rig.count(), "hook runs before the tick")
	})
	var observed int
	d.SetTickObserver(func(time.Duration) { observed++ })

	frame := d.Step()
	d.Step()

	assert.True(t, frame.IsTotal())
	assert.Equal(t, []time.Duration{40 * time.Millisecond, 50 * time.Millisecond}, hooked)
	assert.Equal(t, []time.Duration{40 * time.Millisecond, 50 * time.Millisecond}, rig.ticks)
	assert.Equal(t, uint64(2), d.Frames())
	assert.Equal(t, 2, observed)
}

func TestRunStopsOnCancel(t *testing.T) {
	rig := &fakeRig{}
	d := New(rig, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return rig.count() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
