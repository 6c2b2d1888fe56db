// Package narrator defines the narration generation capability: a provider
// streams text deltas for an assembled prompt. Implementations live in
// subpackages; consumers wrap the delta stream with narration.FromDeltas.
package narrator

import (
	"context"
	"iter"
)

// Request is one narration generation request.
type Request struct {
	// System is the system prompt establishing the narrator persona.
	System string
	// User is the user prompt carrying the question and graph context.
	User string
	// Temperature is the sampling temperature for this question mode.
	Temperature float64
}

// Provider streams narration text for a request. The returned iterator
// yields text deltas in order; a non-nil error is terminal. Iteration stops
// when the caller breaks, the stream ends, or ctx is canceled.
type Provider interface {
	Narrate(ctx context.Context, req Request) iter.Seq2[string, error]
}

// Func adapts a function to the Provider interface.
type Func func(ctx context.Context, req Request) iter.Seq2[string, error]

// Narrate implements Provider.
func (f Func) Narrate(ctx context.Context, req Request) iter.Seq2[string, error] {
	return f(ctx, req)
}
