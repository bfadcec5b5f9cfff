// Package clock provides the monotonic time base and one-shot scheduler a
// rig runs on.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock reports monotonic time since its epoch and schedules one-shot
// callbacks. Scheduled callbacks are never cancelled; owners discard stale
// ones themselves.
type Clock interface {
	Now() time.Duration
	AfterFunc(d time.Duration, fn func())
}

// System is a Clock backed by the runtime's monotonic clock.
type System struct {
	epoch time.Time
}

// NewSystem returns a clock whose epoch is the moment of the call.
func NewSystem() *System {
	return &System{epoch: time.Now()}
}

func (s *System) Now() time.Duration {
	return time.Since(s.epoch)
}

func (s *System) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Manual is a Clock that only moves when told to. Callbacks run
// synchronously inside Advance/Set, in due order, with Now reporting their
// due time while they run.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []manualTimer
}

type manualTimer struct {
	due time.Duration
	seq int
	fn  func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	m.seq++
	m.pending = append(m.pending, manualTimer{due: m.now + d, seq: m.seq, fn: fn})
	m.mu.Unlock()
}

// Advance moves time forward by d, firing every callback that falls due.
func (m *Manual) Advance(d time.Duration) {
	m.Set(m.Now() + d)
}

// Set moves time to t. Moving backwards is ignored.
func (m *Manual) Set(t time.Duration) {
	for {
		m.mu.Lock()
		if t < m.now {
			m.mu.Unlock()
			return
		}
		next, ok := m.popDue(t)
		if !ok {
			m.now = t
			m.mu.Unlock()
			return
		}
		m.now = next.due
		m.mu.Unlock()
		next.fn()
	}
}

// Pending returns how many callbacks have not fired yet.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manual) popDue(t time.Duration) (manualTimer, bool) {
	if len(m.pending) == 0 {
		return manualTimer{}, false
	}
	sort.Slice(m.pending, func(i, j int) bool {
		if m.pending[i].due != m.pending[j].due {
			return m.pending[i].due < m.pending[j].due
		}
		return m.pending[i].seq < m.pending[j].seq
	})
	if m.pending[0].due > t {
		return manualTimer{}, false
	}
	next := m.pending[0]
	m.pending = m.pending[1:]
	return next, true
}
