package insight

import (
	"encoding/json"
	"fmt"

	"github.com/tourline/tourline/tour"
)

const defaultTourStops = 12

// Context builds the context value for a question mode. The tourOrder
// argument only affects the tour mode.
func Context(mode Mode, g *tour.Graph, tourOrder []string) any {
	switch mode {
	case ModeThemes:
		return Themes(g)
	case ModeCollabs:
		return Collabs(g)
	case ModeFunFacts:
		return FunFacts(g)
	case ModeSelectionSummary:
		return SelectionSummary(g)
	default:
		return Tour(g, tourOrder, defaultTourStops)
	}
}

// Payload serializes the question context, enforcing the byte cap. An
// oversized tour payload is rebuilt with fewer stops; any other oversized
// payload falls back to the compacted summary. Triples only reach the
// summary when the graph carries nothing else.
func Payload(mode Mode, g *tour.Graph, tourOrder []string) ([]byte, error) {
	payload, err := json.Marshal(Context(mode, g, tourOrder))
	if err != nil {
		return nil, fmt.Errorf("marshaling %s context: %w", mode, err)
	}
	if len(payload) <= graphCapBytes {
		return payload, nil
	}

	var fallback any
	if mode == ModeTour {
		fallback = Tour(g, tourOrder, 8)
	} else {
		var triples []tour.Triple
		if len(g.Nodes) == 0 && len(g.Links) == 0 && len(g.Edges) == 0 {
			triples = g.Triples
		}
		fallback = summarize(compactNodes(g.Nodes), compactEdges(flatEdges(g)), triples)
	}
	payload, err = json.Marshal(fallback)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s fallback context: %w", mode, err)
	}
	return payload, nil
}

// Prompt is a fully assembled narration request for one question.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// BuildPrompt assembles the system and user prompts plus temperature for a
// question over the given graph.
func BuildPrompt(mode Mode, g *tour.Graph, tourOrder []string) (Prompt, error) {
	payload, err := Payload(mode, g, tourOrder)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System:      mode.SystemPrompt(),
		User:        mode.UserPrompt(payload),
		Temperature: mode.Temperature(),
	}, nil
}
