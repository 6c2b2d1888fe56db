package playback

import (
	"sync"
	"time"
)

// fakeTimer fires only when the test tells it to.
type fakeTimer struct {
	d time.Duration
	c chan time.Time

	mu      sync.Mutex
	stopped bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	pending := !t.stopped
	t.stopped = true
	return pending
}

func (t *fakeTimer) fire() { t.c <- time.Time{} }

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fakeClock hands out fakeTimers. In auto mode every timer fires as soon as
// it is created; in manual mode created timers are published on created for
// the test to fire or abandon.
type fakeClock struct {
	auto    bool
	created chan *fakeTimer
}

func newAutoClock() *fakeClock {
	return &fakeClock{auto: true}
}

func newManualClock() *fakeClock {
	return &fakeClock{created: make(chan *fakeTimer, 64)}
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	t := &fakeTimer{d: d, c: make(chan time.Time, 1)}
	if c.auto {
		t.c <- time.Time{}
		return t
	}
	c.created <- t
	return t
}
