package server

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
)

// narrationFrame is one data frame on the narration wire. Exactly one of
// the fields is set per frame, matching what the narration decoder expects.
type narrationFrame struct {
	Delta string `json:"delta,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// writeFrame writes one SSE data frame and flushes if the writer supports
// it.
func writeFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if flusher, ok := w.(interface{ Flush() }); ok {
		flusher.Flush()
	}
	return nil
}

// writeNarration drains a delta iterator into SSE frames. Generation
// failures become an advisory error frame; the done frame is always
// written last so consumers can flush their trailing fragment.
func writeNarration(w io.Writer, deltas iter.Seq2[string, error]) error {
	for delta, err := range deltas {
		if err != nil {
			if writeErr := writeFrame(w, narrationFrame{Error: err.Error()}); writeErr != nil {
				return writeErr
			}
			break
		}
		if delta == "" {
			continue
		}
		if err := writeFrame(w, narrationFrame{Delta: delta}); err != nil {
			return err
		}
	}
	return writeFrame(w, narrationFrame{Done: true})
}
