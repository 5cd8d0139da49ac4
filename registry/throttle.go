package registry

import (
	"sync"
	"time"
)

// Throttle runs fn at most once per interval. The first Fire in a quiet period runs fn
// immediately; any Fire calls during the following interval collapse into one trailing run.
type Throttle struct {
	mu       sync.Mutex
	fn       func()
	interval time.Duration
	timer    *time.Timer
	pending  bool
	stopped  bool
}

// NewThrottle creates a throttle around fn.
func NewThrottle(interval time.Duration, fn func()) *Throttle {
	return &Throttle{fn: fn, interval: interval}
}

// Fire requests a run of fn.
func (t *Throttle) Fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.pending = true
		t.mu.Unlock()
		return
	}
	t.timer = time.AfterFunc(t.interval, t.onWindowEnd)
	t.mu.Unlock()

	go t.fn()
}

func (t *Throttle) onWindowEnd() {
	t.mu.Lock()
	if t.stopped || !t.pending {
		t.timer = nil
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.timer = time.AfterFunc(t.interval, t.onWindowEnd)
	t.mu.Unlock()

	t.fn()
}

// Stop cancels a pending trailing run. Fire is a no-op afterwards.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
