package narration

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tourline/tourline/internal/httpx"
	"github.com/tourline/tourline/internal/metrics"
)

// ErrTruncated reports a narration stream that ended before its done event.
// It is a terminal transport failure, not an advisory condition.
var ErrTruncated = errors.New("narration stream ended before done event")

// EventType identifies the kind of payload carried by an Event.
type EventType string

const (
	// EventDelta carries an incremental fragment of narration text.
	EventDelta EventType = "delta"
	// EventNotice carries an advisory error payload. Notices never stop
	// line accumulation or the stream.
	EventNotice EventType = "notice"
	// EventDone signals that the narration source has finished normally.
	EventDone EventType = "done"
)

// Event is one decoded narration stream event.
type Event struct {
	Type   EventType
	Delta  string
	Notice string
}

// frame is the JSON payload of a single data event on the wire.
type frame struct {
	Delta string `json:"delta"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Decoder reads narration events from a raw byte stream. Frames that are not
// "data:" events, or whose payload is not valid JSON, are discarded silently;
// keep-alive comments are not errors. A frame may carry several fields at
// once, in which case the advisory notice is delivered before the delta.
type Decoder struct {
	scanner  *httpx.SSEScanner
	pending  []Event
	doneSeen bool
}

// NewDecoder creates a Decoder reading from the given stream.
func NewDecoder(reader io.Reader) *Decoder {
	return &Decoder{scanner: httpx.NewSSEScanner(reader)}
}

// Next returns the next narration event. After the done event has been
// delivered Next returns io.EOF. If the underlying stream ends without a
// done event, Next returns ErrTruncated; read errors are wrapped and
// returned as-is.
func (d *Decoder) Next() (Event, error) {
	for {
		if len(d.pending) > 0 {
			event := d.pending[0]
			d.pending = d.pending[1:]
			return event, nil
		}
		if d.doneSeen {
			return Event{}, io.EOF
		}

		payload, err := d.scanner.Next()
		if err == io.EOF {
			return Event{}, ErrTruncated
		}
		if err != nil {
			return Event{}, fmt.Errorf("narration stream read: %w", err)
		}

		var f frame
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			metrics.FramesDropped.Inc()
			continue
		}

		if f.Error != "" {
			d.pending = append(d.pending, Event{Type: EventNotice, Notice: f.Error})
		}
		if f.Delta != "" {
			d.pending = append(d.pending, Event{Type: EventDelta, Delta: f.Delta})
		}
		if f.Done {
			d.doneSeen = true
			d.pending = append(d.pending, Event{Type: EventDone})
		}
	}
}
