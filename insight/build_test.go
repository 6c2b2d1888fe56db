package insight

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tourline/tourline/tour"
)

func TestParseMode_AcceptsKnownRejectsUnknown(t *testing.T) {
	for _, mode := range Modes() {
		if _, err := ParseMode(string(mode)); err != nil {
			t.Errorf("ParseMode(%q): %v", mode, err)
		}
	}
	if _, err := ParseMode("weather"); err == nil {
		t.Errorf("ParseMode accepted an unknown question id")
	}
}

func TestMode_Temperatures(t *testing.T) {
	if got := ModeFunFacts.Temperature(); got != 0.7 {
		t.Errorf("fun_facts temperature = %v, want 0.7", got)
	}
	if got := ModeTour.Temperature(); got != 0.5 {
		t.Errorf("tour temperature = %v, want 0.5", got)
	}
	if got := ModeThemes.Temperature(); got != 0.4 {
		t.Errorf("themes temperature = %v, want 0.4", got)
	}
}

func TestBuildPrompt_EmbedsContextPayload(t *testing.T) {
	g := &tour.Graph{
		Nodes: []any{node("a1", "Nina Simone", "artist", nil)},
	}

	prompt, err := BuildPrompt(ModeThemes, g, nil)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if !strings.Contains(prompt.System, "music analyst") {
		t.Errorf("system prompt = %q", prompt.System)
	}
	if !strings.Contains(prompt.User, `"payload_mode":"themes"`) {
		t.Errorf("user prompt does not embed the themes payload: %q", prompt.User)
	}
	if !strings.Contains(prompt.User, "What are the themes around this playlist?") {
		t.Errorf("user prompt missing question label: %q", prompt.User)
	}
	if prompt.Temperature != 0.4 {
		t.Errorf("temperature = %v, want 0.4", prompt.Temperature)
	}
}

func TestPayload_OversizedFallsBackToSummary(t *testing.T) {
	// Sample caps keep 24 artist names in the themes payload; fat names
	// push it past the byte cap.
	fat := strings.Repeat("x", 6000)
	g := &tour.Graph{}
	for i := 0; i < 30; i++ {
		g.Nodes = append(g.Nodes, node("artists/"+string(rune('a'+i)), fat, "artist", nil))
	}

	payload, err := Payload(ModeThemes, g, nil)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	var decoded struct {
		PayloadMode string `json:"payload_mode"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal fallback payload: %v", err)
	}
	if decoded.PayloadMode != "summary" {
		t.Errorf("payload mode = %q, want summary fallback", decoded.PayloadMode)
	}
}

func TestPayload_OversizedTourRebuildsWithFewerStops(t *testing.T) {
	fat := strings.Repeat("y", 12000)
	g := &tour.Graph{}
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id := "n" + string(rune('a'+i))
		ids = append(ids, id)
		g.Nodes = append(g.Nodes, node(id, fat, "song", nil))
	}
	for i := 1; i < 20; i++ {
		g.Links = append(g.Links, tour.Link{Source: ids[0], Target: ids[i]})
	}

	payload, err := Payload(ModeTour, g, nil)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	var decoded struct {
		TourNodes []json.RawMessage `json:"tour_nodes"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal tour payload: %v", err)
	}
	if len(decoded.TourNodes) != 8 {
		t.Errorf("fallback tour has %d stops, want 8", len(decoded.TourNodes))
	}
}

func TestSummarize_CapsSamplesAndCountsTriples(t *testing.T) {
	var nodes []CompactNode
	for i := 0; i < 30; i++ {
		nodes = append(nodes, CompactNode{ID: "n", Name: "n", Type: "song"})
	}
	triples := []tour.Triple{{Subject: "a", Predicate: "knows", Object: "b"}}

	summary := summarize(nodes, nil, triples)

	if summary.PayloadMode != "summary" {
		t.Errorf("payload mode = %q, want summary", summary.PayloadMode)
	}
	if len(summary.SampleNodes) != 20 {
		t.Errorf("sample nodes = %d, want capped at 20", len(summary.SampleNodes))
	}
	if summary.Counts.Triples != 1 || len(summary.SampleTriples) != 1 {
		t.Errorf("triples not carried: %+v", summary.Counts)
	}
}
