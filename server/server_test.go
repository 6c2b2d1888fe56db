package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tourline/tourline/config"
	"github.com/tourline/tourline/narrator"
	"github.com/tourline/tourline/playback"
)

func scriptedProvider(capture *narrator.Request, deltas ...string) narrator.Provider {
	return narrator.Func(func(ctx context.Context, req narrator.Request) iter.Seq2[string, error] {
		if capture != nil {
			*capture = req
		}
		return func(yield func(string, error) bool) {
			for _, d := range deltas {
				if !yield(d, nil) {
					return
				}
			}
		}
	})
}

func failingProvider(message string) narrator.Provider {
	return narrator.Func(func(ctx context.Context, req narrator.Request) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			yield("", errors.New(message))
		}
	})
}

func newTestServer(t *testing.T, provider narrator.Provider) *Server {
	t.Helper()
	loader, err := config.NewLoader("", nil)
	if err != nil {
		t.Fatalf("config loader: %v", err)
	}
	return New(provider, loader)
}

func parseFrames(t *testing.T, body string) []narrationFrame {
	t.Helper()
	var frames []narrationFrame
	for _, line := range strings.Split(body, "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var frame narrationFrame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			t.Fatalf("unparseable frame %q: %v", payload, err)
		}
		frames = append(frames, frame)
	}
	return frames
}

const graphBody = `{
	"nodes": [
		{"id": "a1", "name": "Nina Simone", "type": "artist"},
		{"id": "s1", "name": "Feeling Good", "type": "song"},
		{"id": "s2", "name": "Sinnerman", "type": "song"}
	],
	"links": [
		{"source": "a1", "target": "s1"},
		{"source": "a1", "target": "s2"}
	]
}`

func TestHandleChatStream_StreamsDeltaFramesThenDone(t *testing.T) {
	var captured narrator.Request
	s := newTestServer(t, scriptedProvider(&captured, "Soulful", " classics."))

	body := `{"question_id": "themes", ` + graphBody[1:]
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	frames := parseFrames(t, rec.Body.String())
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 2 deltas + done: %+v", len(frames), frames)
	}
	if frames[0].Delta != "Soulful" || frames[1].Delta != " classics." {
		t.Errorf("delta frames = %+v", frames[:2])
	}
	if !frames[2].Done {
		t.Errorf("final frame = %+v, want done", frames[2])
	}

	if captured.Temperature != 0.4 {
		t.Errorf("temperature = %v, want 0.4", captured.Temperature)
	}
	if !strings.Contains(captured.User, `"payload_mode":"themes"`) {
		t.Errorf("user prompt missing themes payload")
	}
}

func TestHandleChatStream_RejectsUnknownQuestion(t *testing.T) {
	s := newTestServer(t, scriptedProvider(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream",
		strings.NewReader(`{"question_id": "weather"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleChatStream_GenerationFailureIsAdvisoryThenDone(t *testing.T) {
	s := newTestServer(t, failingProvider("model overloaded"))

	body := `{"question_id": "fun_facts", ` + graphBody[1:]
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	frames := parseFrames(t, rec.Body.String())
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want error + done: %+v", len(frames), frames)
	}
	if frames[0].Error != "model overloaded" {
		t.Errorf("error frame = %+v", frames[0])
	}
	if !frames[1].Done {
		t.Errorf("final frame = %+v, want done", frames[1])
	}
}

func TestHandleChatStream_InflatesTriplesOnlyGraphs(t *testing.T) {
	var captured narrator.Request
	s := newTestServer(t, scriptedProvider(&captured, "ok"))

	body := `{"question_id": "selection_summary",
		"triples": [{"subject": "Nina Simone", "predicate": "performs", "object": "Feeling Good"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(captured.User, "Nina Simone") {
		t.Errorf("inflated nodes missing from context: %q", captured.User)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, scriptedProvider(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	s := newTestServer(t, scriptedProvider(nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tourline_") {
		t.Errorf("metrics body missing tourline namespace")
	}
}

func TestTourSignals_UnknownSession(t *testing.T) {
	s := newTestServer(t, scriptedProvider(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/tours/nope/signals",
		strings.NewReader(`{"type": "step", "nonce": 1}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", rec.Code)
	}
}

func postJSON(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestTourSession_EndToEnd(t *testing.T) {
	provider := scriptedProvider(nil, "First stop here.\nSecond ", "stop here.\nThird stop here.\n")
	s := newTestServer(t, provider)
	ts := httptest.NewServer(s)
	defer ts.Close()
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/api/tours", graphBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start tour status = %d", resp.StatusCode)
	}
	var started startTourResponse
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}
	resp.Body.Close()
	if started.SessionID == "" {
		t.Fatalf("missing session id")
	}
	// Hub first: a1 has the highest degree.
	if len(started.TourOrder) == 0 || started.TourOrder[0] != "a1" {
		t.Fatalf("tour order = %v, want a1 first", started.TourOrder)
	}

	eventsResp, err := client.Get(ts.URL + "/api/tours/" + started.SessionID + "/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer eventsResp.Body.Close()

	type result struct {
		events []playback.Event
		err    error
	}
	results := make(chan result, 1)
	go func() {
		var events []playback.Event
		scanner := bufio.NewScanner(eventsResp.Body)
		for scanner.Scan() {
			payload, ok := bytes.CutPrefix(scanner.Bytes(), []byte("data: "))
			if !ok {
				continue
			}
			var event playback.Event
			if err := json.Unmarshal(payload, &event); err != nil {
				results <- result{err: err}
				return
			}
			events = append(events, event)
			switch event.Type {
			case playback.EventFinished, playback.EventStopped, playback.EventFailed:
				results <- result{events: events}
				return
			}
		}
		results <- result{events: events, err: scanner.Err()}
	}()

	signalsURL := ts.URL + "/api/tours/" + started.SessionID + "/signals"
	for i, nodeID := range []string{"a1", "s1", "s2"} {
		body := fmt.Sprintf(`{"type": "step", "nodeId": %q, "index": %d, "total": 3, "nonce": %d}`, nodeID, i, i+1)
		resp := postJSON(t, client, signalsURL, body)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("signal status = %d", resp.StatusCode)
		}
		resp.Body.Close()
	}
	resp = postJSON(t, client, signalsURL, `{"type": "done", "nonce": 4}`)
	resp.Body.Close()

	var got result
	select {
	case got = <-results:
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for the tour to finish")
	}
	if got.err != nil {
		t.Fatalf("reading events: %v", got.err)
	}

	var text strings.Builder
	var lineDone, highlights int
	sawStarted, sawDrained := false, false
	for _, event := range got.events {
		switch event.Type {
		case playback.EventStarted:
			sawStarted = true
		case playback.EventAppend:
			text.WriteString(event.Text)
		case playback.EventLineDone:
			lineDone++
		case EventHighlight:
			highlights++
		case playback.EventDrained:
			sawDrained = true
		}
	}
	if !sawStarted || !sawDrained {
		t.Errorf("lifecycle incomplete: started=%v drained=%v", sawStarted, sawDrained)
	}
	if last := got.events[len(got.events)-1]; last.Type != playback.EventFinished {
		t.Errorf("last event = %s, want %s", last.Type, playback.EventFinished)
	}
	if lineDone != 3 {
		t.Errorf("revealed %d lines, want 3", lineDone)
	}
	if highlights != 3 {
		t.Errorf("got %d highlight events, want 3", highlights)
	}
	want := "First stop here.\nSecond stop here.\nThird stop here.\n"
	if text.String() != want {
		t.Errorf("revealed text %q, want %q", text.String(), want)
	}

	// The session is gone once the tour finished.
	deadline := time.Now().Add(2 * time.Second)
	for s.session(started.SessionID) != nil {
		if time.Now().After(deadline) {
			t.Fatalf("session still registered after finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartTour_ReplacesSessionWithSameID(t *testing.T) {
	provider := scriptedProvider(nil, "Line one.\nLine two.\n")
	s := newTestServer(t, provider)
	ts := httptest.NewServer(s)
	defer ts.Close()
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/api/tours", graphBody)
	var first startTourResponse
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}
	resp.Body.Close()

	replaceBody := `{"session_id": ` + fmt.Sprintf("%q", first.SessionID) + `, ` + graphBody[1:]
	resp = postJSON(t, client, ts.URL+"/api/tours", replaceBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("replacement status = %d", resp.StatusCode)
	}
	var second startTourResponse
	if err := json.NewDecoder(resp.Body).Decode(&second); err != nil {
		t.Fatalf("decoding replacement response: %v", err)
	}
	resp.Body.Close()

	if second.SessionID != first.SessionID {
		t.Errorf("replacement changed the session id: %s -> %s", first.SessionID, second.SessionID)
	}
	if s.session(first.SessionID) == nil {
		t.Errorf("replacement session not registered")
	}
}

func TestStartTour_RejectsEmptyGraph(t *testing.T) {
	s := newTestServer(t, scriptedProvider(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/tours", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
