package playback

import (
	"errors"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrRevealActive reports an attempt to start a reveal while one is already
// running. The coordinator's dequeue invariant makes this unreachable in
// normal operation.
var ErrRevealActive = errors.New("a reveal is already active")

// Pacing bounds the character reveal rate for one tour step.
type Pacing struct {
	// StepBudget is the time allotted to reveal one line.
	StepBudget time.Duration
	// EndBuffer is reserved at the end of the budget so the line finishes
	// before the next step signal arrives.
	EndBuffer time.Duration
	// MinFloor is the minimum usable budget after subtracting EndBuffer.
	MinFloor time.Duration
	// CharMin and CharMax clamp the per-character delay.
	CharMin time.Duration
	CharMax time.Duration
}

// DefaultPacing returns the product pacing: a 1s step budget with a 600ms
// end buffer, a 120ms floor, and a 4–18ms per-character clamp.
func DefaultPacing() Pacing {
	return Pacing{
		StepBudget: 1000 * time.Millisecond,
		EndBuffer:  600 * time.Millisecond,
		MinFloor:   120 * time.Millisecond,
		CharMin:    4 * time.Millisecond,
		CharMax:    18 * time.Millisecond,
	}
}

// PerChar returns the clamped per-character delay for a line of the given
// rune length within the given budget. A non-positive budget falls back to
// the configured StepBudget.
func (p Pacing) PerChar(budget time.Duration, length int) time.Duration {
	if budget <= 0 {
		budget = p.StepBudget
	}
	available := budget - p.EndBuffer
	if available < p.MinFloor {
		available = p.MinFloor
	}
	if length < 1 {
		length = 1
	}
	perChar := available / time.Duration(length)
	if perChar < p.CharMin {
		perChar = p.CharMin
	}
	if perChar > p.CharMax {
		perChar = p.CharMax
	}
	return perChar
}

// RevealEvent is one unit of typed output from an active reveal: a text
// append (one character, or the trailing newline) or the completion marker.
type RevealEvent struct {
	Text string
	Done bool
}

// Scheduler reveals one narration line at a time. At most one reveal may be
// active; starting a second one returns ErrRevealActive.
type Scheduler struct {
	clock  Clock
	pacing Pacing

	mu   sync.Mutex
	busy bool
}

// NewScheduler creates a Scheduler with the given clock and pacing.
func NewScheduler(clock Clock, pacing Pacing) *Scheduler {
	return &Scheduler{clock: clock, pacing: pacing}
}

// Pacing returns the scheduler's pacing configuration.
func (s *Scheduler) Pacing() Pacing {
	return s.pacing
}

// Reveal starts revealing a line character by character within the given
// budget (zero means the configured step budget). Events are delivered on
// the returned handle's channel: one append per character, one trailing
// newline append, then a completion event, after which the channel closes.
func (s *Scheduler) Reveal(line string, budget time.Duration) (*Reveal, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrRevealActive
	}
	s.busy = true
	s.mu.Unlock()

	r := &Reveal{
		events: make(chan RevealEvent),
		cancel: make(chan struct{}),
		release: sync.OnceFunc(func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		}),
	}
	perChar := s.pacing.PerChar(budget, utf8.RuneCountInString(line))
	go r.run(s.clock, line, perChar)
	return r, nil
}

// Reveal is a cancelable in-flight character reveal owned by its creator.
type Reveal struct {
	events     chan RevealEvent
	cancel     chan struct{}
	cancelOnce sync.Once
	release    func()
}

// Events returns the channel reveal output is delivered on. The channel is
// closed when the reveal completes or is canceled.
func (r *Reveal) Events() <-chan RevealEvent {
	return r.events
}

// Cancel stops the reveal immediately: the pending character timer is
// cleared and no further events are sent. Cancel is idempotent and safe to
// call after completion.
func (r *Reveal) Cancel() {
	r.cancelOnce.Do(func() { close(r.cancel) })
	r.release()
}

func (r *Reveal) run(clock Clock, line string, perChar time.Duration) {
	defer close(r.events)

	for _, char := range line {
		timer := clock.NewTimer(perChar)
		select {
		case <-timer.C():
		case <-r.cancel:
			timer.Stop()
			return
		}
		select {
		case r.events <- RevealEvent{Text: string(char)}:
		case <-r.cancel:
			return
		}
	}

	select {
	case r.events <- RevealEvent{Text: "\n"}:
	case <-r.cancel:
		return
	}

	// Release before the completion event so the consumer can start the
	// next reveal from inside its completion handling.
	r.release()
	select {
	case r.events <- RevealEvent{Done: true}:
	case <-r.cancel:
	}
}
