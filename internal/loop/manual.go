package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Loop driven by the caller. Posted work runs when
// Drain or Advance is called, and timers fire only as virtual time advances.
// It is meant for tests of loop-confined components.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []*manualTimer
	seq    int
}

// NewManual creates a Manual loop whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Post implements Loop.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// AfterFunc implements Loop.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, at: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Now implements Loop.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Drain runs posted work, including work posted while draining, until the
// queue is empty. Timers are not fired.
func (m *Manual) Drain() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order
// and draining posted work after each one.
func (m *Manual) Advance(d time.Duration) {
	m.Drain()
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDueLocked(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			m.Drain()
			return
		}
		if t.at.After(m.now) {
			m.now = t.at
		}
		t.fired = true
		m.removeLocked(t)
		m.mu.Unlock()

		t.fn()
		m.Drain()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manual) nextDueLocked(limit time.Time) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	if m.timers[0].at.After(limit) {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) removeLocked(t *manualTimer) {
	for i, candidate := range m.timers {
		if candidate == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

type manualTimer struct {
	owner   *Manual
	at      time.Time
	seq     int
	fn      func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.owner.removeLocked(t)
	return true
}
