package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tourline/tourline/insight"
	"github.com/tourline/tourline/internal/metrics"
	"github.com/tourline/tourline/narrator"
	"github.com/tourline/tourline/narration"
	"github.com/tourline/tourline/playback"
	"github.com/tourline/tourline/tour"
)

// EventHighlight marks the visualization stop that a step signal targeted.
// It is injected by the server, not the coordinator, so the event stream
// carries both the narration reveal and the node to spotlight.
const EventHighlight playback.EventType = "highlight"

// session is one live tour: a coordinator run fed by a narration stream.
// The events SSE consumer merges the coordinator's lifecycle events with
// the server-injected highlight channel.
type session struct {
	id        string
	tourOrder []string

	coordinator *playback.Coordinator
	cancel      context.CancelFunc
	highlights  chan playback.Event
	done        chan struct{}
}

// pushHighlight hands a highlight to the event stream. Highlights are
// advisory; with no consumer attached they are dropped rather than blocking
// signal ingestion.
func (sess *session) pushHighlight(event playback.Event) {
	select {
	case sess.highlights <- event:
	default:
	}
}

type startTourRequest struct {
	SessionID string `json:"session_id,omitempty"`
	tour.Graph
	Count int `json:"count,omitempty"`
}

type startTourResponse struct {
	SessionID string   `json:"session_id"`
	TourOrder []string `json:"tour_order"`
}

// handleStartTour parses the graph, selects the tour order, and launches a
// narration-fed coordinator run. Reusing a session_id stops that session's
// previous tour first.
func (s *Server) handleStartTour(w http.ResponseWriter, r *http.Request) {
	var req startTourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	graph := req.Graph
	if len(graph.Nodes) == 0 && len(graph.Links) == 0 && len(graph.Edges) == 0 {
		graph.InflateTriples()
	}

	cfg := s.loader.Config()
	count := req.Count
	if count <= 0 {
		count = cfg.Tour.Count
	}
	order := tour.Select(&graph, count)
	if len(order) == 0 {
		writeError(w, http.StatusBadRequest, "graph has no tourable nodes")
		return
	}

	id := req.SessionID
	if id != "" {
		if previous := s.session(id); previous != nil {
			previous.cancel()
			<-previous.done
		}
	} else {
		id = uuid.NewString()
	}

	sess := s.startSession(id, &graph, order, cfg.Pacing.Playback())
	writeJSON(w, http.StatusCreated, startTourResponse{
		SessionID: sess.id,
		TourOrder: sess.tourOrder,
	})
}

// startSession spins up the full pipeline for one tour: the narrator's
// deltas are framed onto an in-process pipe, decoded back off it as a
// narration stream, and fed to a fresh coordinator run.
func (s *Server) startSession(id string, graph *tour.Graph, order []string, pacing playback.Pacing) *session {
	ctx, cancel := context.WithCancel(context.Background())

	scheduler := playback.NewScheduler(playback.NewClock(), pacing)
	coordinator := playback.NewCoordinator(scheduler, playback.WithLogger(s.logger))
	sess := &session{
		id:          id,
		tourOrder:   order,
		coordinator: coordinator,
		cancel:      cancel,
		highlights:  make(chan playback.Event, 64),
		done:        make(chan struct{}),
	}
	s.addSession(sess)

	prompt, err := insight.BuildPrompt(insight.ModeTour, graph, order)
	pr, pw := io.Pipe()
	go func() {
		if err != nil {
			writeNarration(pw, func(yield func(string, error) bool) {
				yield("", err)
			})
			pw.Close()
			return
		}
		deltas := s.provider.Narrate(ctx, narrator.Request{
			System:      prompt.System,
			User:        prompt.User,
			Temperature: prompt.Temperature,
		})
		if err := writeNarration(pw, deltas); err != nil {
			s.logger.Debug("session narration interrupted", "session", id, "error", err)
		}
		pw.Close()
	}()

	go func() {
		start := time.Now()
		state := coordinator.Run(ctx, narration.Decode(pr))
		metrics.NarrationDuration.Observe(time.Since(start).Seconds())
		s.logger.Info("tour ended", "session", id, "state", string(state))
		pr.CloseWithError(context.Canceled)
		close(sess.done)
		cancel()
		s.removeSession(sess)
	}()

	return sess
}

// handleTourSignal ingests one step signal for a session. Step signals with
// a node id also inject a highlight event into the session's event stream.
func (s *Server) handleTourSignal(w http.ResponseWriter, r *http.Request) {
	sess := s.session(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	var sig playback.StepSignal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch sig.Type {
	case playback.SignalStep, playback.SignalDone, playback.SignalStop:
	default:
		writeError(w, http.StatusBadRequest, "type must be one of: step, done, stop")
		return
	}

	if sig.Type == playback.SignalStep && sig.NodeID != "" {
		sess.pushHighlight(playback.Event{Type: EventHighlight, Text: sig.NodeID, Index: sig.Index})
	}
	sess.coordinator.Signal(sig)
	w.WriteHeader(http.StatusAccepted)
}

// handleTourEvents streams a session's playback events as SSE until the
// tour reaches a terminal state or the client disconnects. One consumer per
// session: the coordinator's event channel is not fanned out.
func (s *Server) handleTourEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.session(chi.URLParam(r, "id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case event := <-sess.coordinator.Events():
			if err := writeFrame(w, event); err != nil {
				return
			}
			switch event.Type {
			case playback.EventFinished, playback.EventStopped, playback.EventFailed:
				return
			}
		case event := <-sess.highlights:
			if err := writeFrame(w, event); err != nil {
				return
			}
		case <-sess.done:
			// Drain whatever the coordinator managed to emit before the
			// run ended, then close the stream.
			for {
				select {
				case event := <-sess.coordinator.Events():
					if err := writeFrame(w, event); err != nil {
						return
					}
				default:
					return
				}
			}
		case <-r.Context().Done():
			return
		}
	}
}
