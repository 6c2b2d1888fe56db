package server

import (
	"encoding/json"
	"net/http"

	"github.com/tourline/tourline/insight"
	"github.com/tourline/tourline/narrator"
	"github.com/tourline/tourline/tour"
)

// chatStreamRequest is the narration request body. The graph collections
// are flattened alongside the question id.
type chatStreamRequest struct {
	QuestionID string `json:"question_id"`
	tour.Graph
	TourOrder []string `json:"tour_order"`
}

// handleChatStream validates the question, builds the mode-specific graph
// context, and streams narration as SSE data frames: delta frames, an
// advisory error frame on generation failure, and always a final done
// frame.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mode, err := insight.ParseMode(req.QuestionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	graph := req.Graph
	if len(graph.Nodes) == 0 && len(graph.Links) == 0 && len(graph.Edges) == 0 {
		graph.InflateTriples()
	}

	prompt, err := insight.BuildPrompt(mode, &graph, req.TourOrder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	deltas := s.provider.Narrate(r.Context(), narrator.Request{
		System:      prompt.System,
		User:        prompt.User,
		Temperature: prompt.Temperature,
	})
	if err := writeNarration(w, deltas); err != nil {
		// The client went away mid-stream; nothing to send it anymore.
		s.logger.Debug("narration stream interrupted", "error", err)
	}
}
