package narration

import (
	"io"
	"iter"

	"github.com/tourline/tourline/internal/metrics"
)

// ItemType identifies the kind of payload carried by a stream Item.
type ItemType string

const (
	// ItemLine carries one complete narration line.
	ItemLine ItemType = "line"
	// ItemNotice carries an advisory error message from the source.
	ItemNotice ItemType = "notice"
	// ItemDone signals that the narration source finished and every line
	// has been delivered.
	ItemDone ItemType = "done"
)

// Item is a single unit yielded by a narration Stream.
type Item struct {
	Type   ItemType
	Line   string
	Notice string
}

// Stream wraps a narration iterator. Lines are yielded in the exact order
// they appeared in the source, each exactly once; a non-nil iterator error
// is terminal.
//
// Callers must consume the stream, either fully or by breaking out of the
// loop; the underlying source may hold open resources (such as an HTTP
// response body) that are only released when iteration ends.
type Stream struct {
	iterator iter.Seq2[Item, error]
}

// NewStream creates a Stream from a raw iterator.
func NewStream(iterator iter.Seq2[Item, error]) *Stream {
	return &Stream{iterator: iterator}
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for item, err := range stream.Iter() {
//	    if err != nil { handle terminal failure }
//	    switch item.Type { ... }
//	}
func (s *Stream) Iter() iter.Seq2[Item, error] {
	return s.iterator
}

// Collect consumes the entire stream and returns all lines plus any advisory
// notices. Mostly useful in tests and batch callers; interactive playback
// ranges over Iter instead.
func (s *Stream) Collect() (lines []string, notices []string, err error) {
	for item, iterErr := range s.iterator {
		if iterErr != nil {
			return lines, notices, iterErr
		}
		switch item.Type {
		case ItemLine:
			lines = append(lines, item.Line)
		case ItemNotice:
			notices = append(notices, item.Notice)
		}
	}
	return lines, notices, nil
}

// Decode builds a Stream over a raw narration byte source, composing the
// frame decoder with a line buffer. The trailing unterminated fragment, if
// any, is flushed as a final line when the done event arrives.
func Decode(reader io.Reader) *Stream {
	iterator := func(yield func(Item, error) bool) {
		decoder := NewDecoder(reader)
		var buffer LineBuffer

		for {
			event, err := decoder.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Item{}, err)
				return
			}

			switch event.Type {
			case EventDelta:
				for _, line := range buffer.Append(event.Delta) {
					if !yield(Item{Type: ItemLine, Line: line}, nil) {
						return
					}
				}

			case EventNotice:
				metrics.StreamNotices.Inc()
				if !yield(Item{Type: ItemNotice, Notice: event.Notice}, nil) {
					return
				}

			case EventDone:
				if line, ok := buffer.Flush(); ok {
					if !yield(Item{Type: ItemLine, Line: line}, nil) {
						return
					}
				}
				yield(Item{Type: ItemDone}, nil)
				return
			}
		}
	}
	return NewStream(iterator)
}

// FromDeltas builds a Stream directly from an in-process delta iterator,
// bypassing wire framing. Used when the narration generator runs in the same
// process as playback. A nil-error exhaustion of the delta source counts as
// a normal done.
func FromDeltas(deltas iter.Seq2[string, error]) *Stream {
	iterator := func(yield func(Item, error) bool) {
		var buffer LineBuffer

		for delta, err := range deltas {
			if err != nil {
				yield(Item{}, err)
				return
			}
			for _, line := range buffer.Append(delta) {
				if !yield(Item{Type: ItemLine, Line: line}, nil) {
					return
				}
			}
		}

		if line, ok := buffer.Flush(); ok {
			if !yield(Item{Type: ItemLine, Line: line}, nil) {
				return
			}
		}
		yield(Item{Type: ItemDone}, nil)
	}
	return NewStream(iterator)
}
