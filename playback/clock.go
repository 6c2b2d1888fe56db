package playback

import "time"

// Clock abstracts timer creation so playback components can run against a
// controllable time source under test.
type Clock interface {
	// NewTimer returns a single-shot timer that fires once after d.
	NewTimer(d time.Duration) Timer
}

// Timer is a cancelable single-shot timer handle.
type Timer interface {
	// C returns the channel the firing time is delivered on.
	C() <-chan time.Time
	// Stop prevents the timer from firing. It reports whether the timer
	// was still pending.
	Stop() bool
}

// NewClock returns a Clock backed by the runtime's timers.
func NewClock() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{timer: time.NewTimer(d)}
}

type realTimer struct {
	timer *time.Timer
}

func (t realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t realTimer) Stop() bool {
	return t.timer.Stop()
}
