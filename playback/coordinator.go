package playback

import (
	"context"
	"log/slog"

	"github.com/tourline/tourline/internal/metrics"
	"github.com/tourline/tourline/narration"
)

// State is the coordinator's lifecycle state.
type State string

const (
	// StateIdle means no tour is active.
	StateIdle State = "idle"
	// StateActive means a tour is running.
	StateActive State = "active"
	// StateDrained means narration has fully caught up: the stream is done,
	// the backlog is empty, and nothing is typing. Terminal.
	StateDrained State = "drained"
	// StateStopped means the tour was canceled or failed. Terminal.
	StateStopped State = "stopped"
)

// EventType identifies a playback lifecycle event delivered to the UI layer.
type EventType string

const (
	// EventStarted marks the beginning of a tour run.
	EventStarted EventType = "started"
	// EventAppend carries revealed text: one character, or a newline at the
	// end of a line.
	EventAppend EventType = "append"
	// EventLineDone marks the completion of one narration line's reveal.
	EventLineDone EventType = "line_done"
	// EventNotice carries an advisory message from the narration source.
	EventNotice EventType = "notice"
	// EventDrained means every narration line has been revealed.
	EventDrained EventType = "drained"
	// EventFinished means narration drained and the visualization reported
	// done: the tour is complete.
	EventFinished EventType = "finished"
	// EventStopped means the tour was canceled.
	EventStopped EventType = "stopped"
	// EventFailed means the narration transport failed; the tour was torn
	// down like a stop.
	EventFailed EventType = "failed"
)

// Event is a playback lifecycle notification.
type Event struct {
	Type  EventType `json:"type"`
	Text  string    `json:"text,omitempty"`
	Index int       `json:"index,omitempty"`
	Err   string    `json:"error,omitempty"`
}

// Coordinator pairs step signals with narration lines and drives the
// scheduler. All internal state lives on the Run loop's goroutine; external
// callers interact only through Signal and Events.
type Coordinator struct {
	scheduler *Scheduler
	logger    *slog.Logger

	signals chan StepSignal
	events  chan Event
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator creates a Coordinator around the given scheduler.
func NewCoordinator(scheduler *Scheduler, opts ...Option) *Coordinator {
	c := &Coordinator{
		scheduler: scheduler,
		logger:    slog.Default(),
		signals:   make(chan StepSignal, 64),
		events:    make(chan Event, 256),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the channel lifecycle events are delivered on. The channel
// stays open across runs; consumers stop on a terminal event (finished,
// stopped, or failed).
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Signal delivers a step signal. Signals are buffered, so ones sent just
// before Run begins are still consumed; a full buffer drops the signal.
func (c *Coordinator) Signal(sig StepSignal) {
	select {
	case c.signals <- sig:
	default:
		c.logger.Warn("signal buffer full, dropping", "type", string(sig.Type), "nonce", sig.Nonce)
	}
}

// runState is the coordinator's per-run mutable state. It is owned by the
// Run goroutine and never shared.
type runState struct {
	state      State
	pending    int      // step signals received but not yet matched to a line
	backlog    []string // lines received but not yet revealed
	active     *Reveal  // non-nil while a line is typing
	lastNonce  int64
	streamDone bool // no further lines will arrive
	vizDone    bool // visualization walked every node
	lineIndex  int
}

// streamItem carries one narration stream item, or its terminal error, into
// the run loop.
type streamItem struct {
	item narration.Item
	err  error
}

// Run executes one tour until it reaches a terminal state and returns that
// state. It consumes the narration stream, accepts step signals delivered
// through Signal, and emits lifecycle events. Context cancellation performs
// the same synchronous cleanup as an explicit stop.
func (c *Coordinator) Run(ctx context.Context, stream *narration.Stream) State {
	done := make(chan struct{})
	defer func() {
		close(done)
		// Discard signals that raced with the teardown so a later run
		// starts from a clean buffer.
		for {
			select {
			case <-c.signals:
			default:
				return
			}
		}
	}()

	st := &runState{state: StateActive, lastNonce: -1}
	metrics.ToursStarted.Inc()
	c.emit(ctx, Event{Type: EventStarted})

	items := make(chan streamItem)
	go func() {
		defer close(items)
		for item, err := range stream.Iter() {
			select {
			case items <- streamItem{item: item, err: err}:
				if err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		// The reveal channel is nil while nothing is typing, which
		// disables its select case.
		var revealEvents <-chan RevealEvent
		if st.active != nil {
			revealEvents = st.active.Events()
		}

		select {
		case <-ctx.Done():
			c.stop(ctx, st, EventStopped, "")
			return st.state

		case sig := <-c.signals:
			if terminal := c.handleSignal(ctx, st, sig); terminal {
				return st.state
			}

		case it, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			if terminal := c.handleStreamItem(ctx, st, it); terminal {
				return st.state
			}

		case ev, ok := <-revealEvents:
			if !ok {
				st.active = nil
				continue
			}
			if terminal := c.handleRevealEvent(ctx, st, ev); terminal {
				return st.state
			}
		}
	}
}

// handleSignal applies one step signal. It reports whether the run reached a
// terminal state.
func (c *Coordinator) handleSignal(ctx context.Context, st *runState, sig StepSignal) bool {
	if st.lastNonce >= 0 && sig.Nonce <= st.lastNonce {
		metrics.SignalsDeduplicated.Inc()
		c.logger.Debug("dropped repeated step signal", "nonce", sig.Nonce)
		return false
	}
	st.lastNonce = sig.Nonce

	switch sig.Type {
	case SignalStep:
		st.pending++
		c.tryDequeue(ctx, st)
		return false
	case SignalDone:
		st.vizDone = true
		if st.state == StateDrained {
			c.finish(ctx, st)
			return true
		}
		return false
	case SignalStop:
		c.stop(ctx, st, EventStopped, "")
		return true
	default:
		c.logger.Warn("ignoring unknown signal type", "type", string(sig.Type))
		return false
	}
}

// handleStreamItem applies one narration stream item.
func (c *Coordinator) handleStreamItem(ctx context.Context, st *runState, it streamItem) bool {
	if it.err != nil {
		c.logger.Error("narration stream failed", "error", it.err)
		c.stop(ctx, st, EventFailed, it.err.Error())
		return true
	}

	switch it.item.Type {
	case narration.ItemLine:
		st.backlog = append(st.backlog, it.item.Line)
		c.tryDequeue(ctx, st)
	case narration.ItemNotice:
		c.emit(ctx, Event{Type: EventNotice, Text: it.item.Notice})
	case narration.ItemDone:
		st.streamDone = true
		return c.maybeDrain(ctx, st)
	}
	return false
}

// handleRevealEvent applies one unit of scheduler output.
func (c *Coordinator) handleRevealEvent(ctx context.Context, st *runState, ev RevealEvent) bool {
	if !ev.Done {
		c.emit(ctx, Event{Type: EventAppend, Text: ev.Text})
		return false
	}

	st.active = nil
	metrics.LinesRevealed.Inc()
	c.emit(ctx, Event{Type: EventLineDone, Index: st.lineIndex})
	st.lineIndex++
	c.tryDequeue(ctx, st)
	return c.maybeDrain(ctx, st)
}

// tryDequeue starts the next reveal when nothing is typing, a step signal is
// pending, and a line is queued. This is the only place a line and a step
// are paired, which keeps the pairing 1:1 and FIFO on both sides.
func (c *Coordinator) tryDequeue(ctx context.Context, st *runState) {
	if st.active != nil || st.pending == 0 || len(st.backlog) == 0 {
		return
	}
	line := st.backlog[0]
	st.backlog = st.backlog[1:]
	st.pending--

	reveal, err := c.scheduler.Reveal(line, 0)
	if err != nil {
		// Unreachable while the dequeue invariant holds.
		c.logger.Error("reveal rejected", "error", err)
		return
	}
	st.active = reveal
}

// maybeDrain transitions to Drained once the stream is done and playback has
// caught up, and finalizes immediately when the visualization already
// reported done. It reports whether the run reached a terminal state.
func (c *Coordinator) maybeDrain(ctx context.Context, st *runState) bool {
	if st.state != StateActive || !st.streamDone || st.active != nil || len(st.backlog) > 0 {
		return false
	}
	st.state = StateDrained
	c.emit(ctx, Event{Type: EventDrained})
	if st.vizDone {
		c.finish(ctx, st)
		return true
	}
	return false
}

// finish finalizes a drained tour.
func (c *Coordinator) finish(ctx context.Context, st *runState) {
	metrics.ToursFinished.Inc()
	c.emit(ctx, Event{Type: EventFinished})
}

// stop tears the run down synchronously: the active reveal is canceled, the
// backlog and pending count are cleared, and the terminal event is emitted.
// Safe to invoke with nothing pending.
func (c *Coordinator) stop(ctx context.Context, st *runState, eventType EventType, errMsg string) {
	if st.active != nil {
		st.active.Cancel()
		st.active = nil
	}
	st.backlog = nil
	st.pending = 0
	st.state = StateStopped
	metrics.ToursStopped.Inc()
	c.emit(ctx, Event{Type: eventType, Err: errMsg})
}

// emit delivers a lifecycle event without blocking past context
// cancellation. Delivery is attempted even with a canceled context so
// terminal events reach a consumer whenever buffer space remains.
func (c *Coordinator) emit(ctx context.Context, event Event) {
	select {
	case c.events <- event:
		return
	default:
	}
	select {
	case c.events <- event:
	case <-ctx.Done():
	}
}
