package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual()
	var fired []string
	var at []time.Duration

	m.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "b"); at = append(at, m.Now()) })
	m.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "a"); at = append(at, m.Now()) })
	m.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "c"); at = append(at, m.Now()) })
	assert.Equal(t, 3, m.Pending())

	m.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"a"}, fired)
	assert.Equal(t, 200*time.Millisecond, m.Now())

	m.Set(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}, at)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, time.Second, m.Now())
}

func TestManualCallbackCanSchedule(t *testing.T) {
	m := NewManual()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			m.AfterFunc(100*time.Millisecond, tick)
		}
	}
	m.AfterFunc(100*time.Millisecond, tick)

	m.Set(250 * time.Millisecond)
	assert.Equal(t, 2, count)
	m.Set(time.Second)
	assert.Equal(t, 3, count)
}

func TestManualIgnoresGoingBack(t *testing.T) {
	m := NewManual()
	m.Set(time.Second)
	m.Set(500 * time.Millisecond)
	assert.Equal(t, time.Second, m.Now())
}

func TestSystemIsMonotonic(t *testing.T) {
	s := NewSystem()
	a := s.Now()
	b := s.Now()
	assert.GreaterOrEqual(t, b, a)

	done := make(chan struct{})
	s.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AfterFunc did not fire")
	}
}
