// Package playback coordinates two independently arriving event sources —
// step signals emitted by a visualization and narration lines produced by a
// stream — into a single ordered, cancelable character-by-character playback.
//
// [Scheduler] reveals one line at a time inside a step's time budget, pacing
// characters between a minimum and maximum delay. [Coordinator] owns the
// playback state machine: it queues lines and pending step signals, pairs
// them strictly first-with-first, drives the scheduler, and reports tour
// lifecycle events to the UI layer. All state is mutated on the coordinator's
// single event loop, so a line is never matched to the wrong step, playback
// never double-plays text, and a stop tears everything down synchronously.
//
// Timers are created through the [Clock] capability so both components can be
// driven deterministically by a fake clock in tests.
package playback
